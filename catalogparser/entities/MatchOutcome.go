package entities

// Status tags the terminal state of one resolution. The wire values are the
// French strings the original vignette clients already consume.
type Status string

const (
	// StatusVerified: the full signature matched a catalog entry directly.
	StatusVerified Status = "Vérifié"
	// StatusAutoCorrected: the entry was recovered through name or details
	// disambiguation rather than a direct full-signature hit.
	StatusAutoCorrected Status = "Auto-corrigé"
	// StatusUnverified: every stage ran and none accepted; the raw
	// observation is echoed for manual review. Not an error.
	StatusUnverified Status = "Non vérifié"
	// StatusFailed: the request was structurally hopeless (empty name
	// signature) or the catalog is unavailable.
	StatusFailed Status = "Échec"
)

// MatchOutcome is the resolver's answer for one observation. On success the
// fields carry the catalog entry's canonical values; on Unverified/Failed they
// echo the observation verbatim so a human can correct it by hand.
type MatchOutcome struct {
	Nom             string  `json:"nom"`
	Dosage          string  `json:"dosage"`
	Conditionnement string  `json:"conditionnement"`
	Ppa             string  `json:"ppa"`
	MatchScore      float64 `json:"match_score"`
	Status          Status  `json:"status"`
}

// Resolved reports whether the outcome carries a catalog entry.
func (m MatchOutcome) Resolved() bool {
	return m.Status == StatusVerified || m.Status == StatusAutoCorrected
}
