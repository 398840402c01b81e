package matcher

import (
	"reflect"
	"testing"

	"github.com/salahab839/prescription-api/catalogparser/entities"
)

func TestResolveExactFullMatch(t *testing.T) {
	idx := BuildIndex(testCatalog())

	obs := entities.Observation{Nom: "DOLIPRANE", Dosage: "1000 MG", Conditionnement: "BTE 8 COMPRIMES"}
	outcome := idx.Resolve(obs)

	if outcome.Status != entities.StatusVerified {
		t.Fatalf("Expected Verified, got %s (score %v)", outcome.Status, outcome.MatchScore)
	}
	if outcome.MatchScore < 85 {
		t.Errorf("Expected confidence >= 85, got %v", outcome.MatchScore)
	}
	if outcome.Nom != "DOLIPRANE" || outcome.Dosage != "1000 MG" {
		t.Errorf("Resolved to the wrong entry: %+v", outcome)
	}
	// No observation price: the catalog reference price is the fallback.
	if outcome.Ppa != "120.50" {
		t.Errorf("Expected catalog fallback price 120.50, got %q", outcome.Ppa)
	}
}

func TestResolveTokenReorderTolerance(t *testing.T) {
	idx := BuildIndex(testCatalog())

	// OCR output glues units and drops the packaging suffix; the token-set
	// scorer still has to land on the right package.
	obs := entities.Observation{Nom: "DOLIPRANE", Dosage: "1000MG", Conditionnement: "BTE 8"}
	outcome := idx.Resolve(obs)

	if outcome.Status != entities.StatusVerified {
		t.Fatalf("Expected Verified, got %s (score %v)", outcome.Status, outcome.MatchScore)
	}
	if outcome.Dosage != "1000 MG" {
		t.Errorf("Expected the 1000 MG package, got %+v", outcome)
	}
}

func TestResolveUniqueNameTypo(t *testing.T) {
	idx := BuildIndex(testCatalog())

	// One-letter typo, no usable dosage or packaging. XYLOCARD has exactly
	// one variant, so the name match alone settles it.
	obs := entities.Observation{Nom: "XYLOCRAD"}
	outcome := idx.Resolve(obs)

	if outcome.Status != entities.StatusAutoCorrected {
		t.Fatalf("Expected Auto-corrigé, got %s (score %v)", outcome.Status, outcome.MatchScore)
	}
	if outcome.Nom != "XYLOCARD" {
		t.Errorf("Expected XYLOCARD, got %q", outcome.Nom)
	}
}

func TestResolveAmbiguousVariantsRequireDetailAgreement(t *testing.T) {
	idx := BuildIndex(testCatalog())

	obs := entities.Observation{Nom: "DOLIPRANE", Dosage: "1000 MG"}
	outcome := idx.Resolve(obs)

	if !outcome.Resolved() {
		t.Fatalf("Expected a resolved outcome, got %s", outcome.Status)
	}
	if outcome.Dosage != "1000 MG" {
		t.Errorf("Resolved to the wrong variant: %+v", outcome)
	}

	// Same observation through the disambiguation stage alone: the exact
	// numeric dosage must pick the 1000 MG variant, never the 500 MG one.
	thresholds := DefaultThresholds
	thresholds.Stage1Full = 101
	outcome = idx.ResolveWith(obs, thresholds)

	if outcome.Status != entities.StatusAutoCorrected {
		t.Fatalf("Expected Auto-corrigé, got %s (score %v)", outcome.Status, outcome.MatchScore)
	}
	if outcome.Dosage != "1000 MG" {
		t.Errorf("Disambiguation picked the wrong variant: %+v", outcome)
	}
}

func TestResolveDetailsFirstVetoesGrossNameMismatch(t *testing.T) {
	idx := BuildIndex(testCatalog())

	// The details match a catalog entry exactly, but the name shares
	// nothing with it: the details-first stage must not accept.
	obs := entities.Observation{Nom: "ZZZZZ", Dosage: "500 MG", Conditionnement: "B/12 GELULES"}
	outcome := idx.Resolve(obs)

	if outcome.Resolved() {
		t.Fatalf("Expected an unresolved outcome, got %s for %+v", outcome.Status, outcome)
	}
	if outcome.Status != entities.StatusUnverified {
		t.Errorf("Expected Non vérifié, got %s", outcome.Status)
	}
	if outcome.Nom != "ZZZZZ" || outcome.Dosage != "500 MG" || outcome.Conditionnement != "B/12 GELULES" {
		t.Errorf("Unresolved outcome must echo the observation, got %+v", outcome)
	}
}

func TestResolveDetailsFirstAcceptsPlausibleName(t *testing.T) {
	idx := BuildIndex(testCatalog())

	// Force the earlier stages off to exercise the symmetric fallback on
	// its own: exact details plus a recognizably mangled name.
	thresholds := DefaultThresholds
	thresholds.Stage1Full = 101
	thresholds.Stage2Name = 101

	obs := entities.Observation{Nom: "AMOXICILINE", Dosage: "500 MG", Conditionnement: "B/12 GELULES"}
	outcome := idx.ResolveWith(obs, thresholds)

	if outcome.Status != entities.StatusAutoCorrected {
		t.Fatalf("Expected Auto-corrigé, got %s (score %v)", outcome.Status, outcome.MatchScore)
	}
	if outcome.Nom != "AMOXICILLINE BIOGARAN" {
		t.Errorf("Expected AMOXICILLINE BIOGARAN, got %q", outcome.Nom)
	}
	if outcome.MatchScore < 70 || outcome.MatchScore > 100 {
		t.Errorf("Blended confidence out of range: %v", outcome.MatchScore)
	}
}

func TestResolveGracefulFailure(t *testing.T) {
	idx := BuildIndex(testCatalog())

	obs := entities.Observation{Nom: "", Dosage: "!!##", Conditionnement: "@@@@"}
	outcome := idx.Resolve(obs)

	if outcome.Status != entities.StatusFailed {
		t.Fatalf("Expected Échec, got %s", outcome.Status)
	}
	if outcome.Dosage != "!!##" || outcome.Conditionnement != "@@@@" {
		t.Errorf("Failed outcome must echo the raw observation, got %+v", outcome)
	}
}

func TestResolveFailsClosedWithoutCatalog(t *testing.T) {
	obs := entities.Observation{Nom: "DOLIPRANE", Dosage: "1000 MG"}

	empty := BuildIndex(nil)
	if outcome := empty.Resolve(obs); outcome.Status != entities.StatusFailed {
		t.Errorf("Expected Échec on empty index, got %s", outcome.Status)
	}

	var nilIndex *Index
	if outcome := nilIndex.Resolve(obs); outcome.Status != entities.StatusFailed {
		t.Errorf("Expected Échec on nil index, got %s", outcome.Status)
	}
}

func TestResolveIdempotent(t *testing.T) {
	idx := BuildIndex(testCatalog())

	observations := []entities.Observation{
		{Nom: "DOLIPRANE", Dosage: "1000 MG", Conditionnement: "BTE 8 COMPRIMES", Ppa: "120,50"},
		{Nom: "XYLOCRAD"},
		{Nom: "ZZZZZ", Dosage: "500 MG", Conditionnement: "B/12 GELULES"},
		{},
	}

	for _, obs := range observations {
		first := idx.Resolve(obs)
		second := idx.Resolve(obs)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Resolve not deterministic for %+v: %+v vs %+v", obs, first, second)
		}
	}
}

func TestResolvePriceFromObservation(t *testing.T) {
	idx := BuildIndex(testCatalog())

	obs := entities.Observation{
		Nom:             "DOLIPRANE",
		Dosage:          "1000 MG",
		Conditionnement: "BTE 8 COMPRIMES",
		Ppa:             "120+23+1=144.50",
	}
	outcome := idx.Resolve(obs)

	if !outcome.Resolved() {
		t.Fatalf("Expected a resolved outcome, got %s", outcome.Status)
	}
	if outcome.Ppa != "144.50" {
		t.Errorf("Expected the observation price to win, got %q", outcome.Ppa)
	}
}

func TestBetterVariant(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     variantRank
		expected bool
	}{
		{"exact dosage beats higher text score", variantRank{dosageExact: true, score: 70}, variantRank{score: 95}, true},
		{"pack counts break dosage ties", variantRank{dosageExact: true, packExact: true, score: 70}, variantRank{dosageExact: true, score: 95}, true},
		{"text score decides the rest", variantRank{score: 80}, variantRank{score: 75}, true},
		{"equal ranks keep catalog order", variantRank{score: 80}, variantRank{score: 80}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := betterVariant(tc.a, tc.b); got != tc.expected {
				t.Errorf("betterVariant(%+v, %+v) = %v, expected %v", tc.a, tc.b, got, tc.expected)
			}
		})
	}
}
