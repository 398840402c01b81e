package matcher

import (
	"math"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/salahab839/prescription-api/catalogparser/entities"
)

// Thresholds holds the acceptance scores of the staged protocol. They are
// tunable; DefaultThresholds is what production runs with.
type Thresholds struct {
	// Stage1Full accepts a direct full-signature match as Vérifié.
	Stage1Full int
	// Stage2Name gates name-first disambiguation. A transposition typo on
	// an eight-letter name scores 88 on the token-set ratio, so the gate
	// sits at 85; the under-constraint of a bare name match is carried by
	// the variant disambiguation step, not by this gate.
	Stage2Name int
	// Stage2Details accepts the best variant of an ambiguous name.
	Stage2Details int
	// Stage3Details gates details-first disambiguation. Very high because
	// dosage+packaging strings are short and collide easily.
	Stage3Details int
	// Stage3Name vetoes only gross name mismatches once the details have
	// all but proven the product family.
	Stage3Name int
}

// DefaultThresholds are the production acceptance scores.
var DefaultThresholds = Thresholds{
	Stage1Full:    85,
	Stage2Name:    85,
	Stage2Details: 75,
	Stage3Details: 95,
	Stage3Name:    60,
}

// Resolve runs the staged matching protocol against the index snapshot using
// DefaultThresholds. It is deterministic for a given observation and index,
// side-effect free, and always returns a terminal outcome, never an error:
// malformed fields degrade to empty signatures and route to failure.
func (idx *Index) Resolve(obs entities.Observation) entities.MatchOutcome {
	return idx.ResolveWith(obs, DefaultThresholds)
}

// ResolveWith is Resolve with caller-supplied thresholds.
func (idx *Index) ResolveWith(obs entities.Observation, t Thresholds) entities.MatchOutcome {
	// Catalog unavailable or empty: fail closed, echoing the observation.
	if idx.Len() == 0 {
		return unresolved(obs, entities.StatusFailed, 0)
	}

	nameSig := Normalize(obs.Nom)
	fullSig := joinSignature(obs.Nom, obs.Dosage, obs.Conditionnement)
	detailsSig := joinSignature(obs.Dosage, obs.Conditionnement)

	// Stage 1: full-signature match.
	bestFullKey, bestFullScore := bestKey(fullSig, idx.fullKeys)

	// An observation without a usable name cannot be trusted to any entry,
	// whatever the details look like.
	if nameSig == "" {
		return unresolved(obs, entities.StatusFailed, float64(bestFullScore))
	}

	if bestFullScore >= t.Stage1Full {
		entry := idx.byFull[bestFullKey]
		return resolved(obs, entry, entities.StatusVerified, float64(bestFullScore))
	}

	// Stage 2: name-first disambiguation.
	bestNameKey, bestNameScore := bestKey(nameSig, idx.nameKeys)
	if bestNameScore >= t.Stage2Name {
		variants := idx.byName[bestNameKey]

		if len(variants) == 1 {
			// A unique variant needs no further disambiguation.
			return resolved(obs, variants[0], entities.StatusAutoCorrected, float64(bestNameScore))
		}

		winner, detailsScore := pickVariant(obs, detailsSig, variants)
		if detailsScore >= t.Stage2Details {
			confidence := blend(0.6, float64(bestNameScore), 0.4, float64(detailsScore))
			return resolved(obs, winner, entities.StatusAutoCorrected, confidence)
		}
	}

	// Stage 3: details-first disambiguation, the symmetric fallback.
	if detailsSig != "" {
		bestDetailsKey, bestDetailsScore := bestKey(detailsSig, idx.detailsKeys)
		if bestDetailsScore >= t.Stage3Details {
			var winner entities.CatalogEntry
			winnerNameScore := -1
			for _, candidate := range idx.byDetails[bestDetailsKey] {
				score := fuzzy.WRatio(nameSig, Normalize(candidate.Nom))
				if score > winnerNameScore {
					winner = candidate
					winnerNameScore = score
				}
			}

			if winnerNameScore >= t.Stage3Name {
				confidence := blend(0.7, float64(bestDetailsScore), 0.3, float64(winnerNameScore))
				return resolved(obs, winner, entities.StatusAutoCorrected, confidence)
			}
		}
	}

	// Stage 4: no stage accepted. Echo the raw observation with the best
	// full-signature score so a reviewer sees what was attempted.
	return unresolved(obs, entities.StatusUnverified, float64(bestFullScore))
}

// bestKey scores sig against every key with the token-set ratio and returns
// the best. Keys are pre-sorted, so ties resolve to the lexicographically
// first key rather than map iteration order.
func bestKey(sig string, keys []string) (string, int) {
	if sig == "" {
		return "", 0
	}

	best := ""
	bestScore := 0
	for _, key := range keys {
		if score := fuzzy.TokenSetRatio(sig, key); score > bestScore {
			best = key
			bestScore = score
		}
	}
	return best, bestScore
}

// pickVariant chooses among variants sharing a matched name. Exact numeric
// dosage agreement beats everything, packaging unit-count agreement breaks
// dosage ties, and the weighted-ratio text score of the details decides the
// rest. Earlier catalog order wins remaining ties. The returned score is the
// winner's details score.
func pickVariant(obs entities.Observation, detailsSig string, variants []entities.CatalogEntry) (entities.CatalogEntry, int) {
	obsDosage, hasObsDosage := NumericDosage(obs.Dosage)
	obsPacks := PackagingCounts(obs.Conditionnement)

	winner := variants[0]
	var best variantRank
	for i, variant := range variants {
		r := variantRank{
			score: wratio(detailsSig, DetailsSignature(variant)),
		}

		if hasObsDosage {
			if vDosage, ok := NumericDosage(variant.Dosage); ok && vDosage == obsDosage {
				r.dosageExact = true
			}
		}
		if len(obsPacks) > 0 {
			r.packExact = samePackagingCounts(obsPacks, PackagingCounts(variant.Presentation))
		}

		if i == 0 || betterVariant(r, best) {
			winner = variant
			best = r
		}
	}

	return winner, best.score
}

type variantRank struct {
	dosageExact bool
	packExact   bool
	score       int
}

func betterVariant(a, b variantRank) bool {
	if a.dosageExact != b.dosageExact {
		return a.dosageExact
	}
	if a.packExact != b.packExact {
		return a.packExact
	}
	return a.score > b.score
}

func wratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	return fuzzy.WRatio(a, b)
}

// blend mixes two scores and rounds to one decimal.
func blend(wa, a, wb, b float64) float64 {
	return math.Round((wa*a+wb*b)*10) / 10
}

// resolved builds the outcome for an accepted catalog entry. The price comes
// from the observation when one is recoverable, falling back to the entry's
// own reference price.
func resolved(obs entities.Observation, entry entities.CatalogEntry, status entities.Status, score float64) entities.MatchOutcome {
	ppa := ParsePrice(obs.Ppa)
	if ppa == "" && entry.Prix > 0 {
		ppa = formatPrice(entry.Prix)
	}

	return entities.MatchOutcome{
		Nom:             entry.Nom,
		Dosage:          entry.Dosage,
		Conditionnement: entry.Presentation,
		Ppa:             ppa,
		MatchScore:      score,
		Status:          status,
	}
}

// unresolved echoes the raw observation verbatim so nothing is lost for
// manual review.
func unresolved(obs entities.Observation, status entities.Status, score float64) entities.MatchOutcome {
	return entities.MatchOutcome{
		Nom:             obs.Nom,
		Dosage:          obs.Dosage,
		Conditionnement: obs.Conditionnement,
		Ppa:             obs.Ppa,
		MatchScore:      score,
		Status:          status,
	}
}
