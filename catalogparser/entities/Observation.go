package entities

// Observation is the raw, untrusted extraction result for one scanned
// vignette. Any field may be empty or malformed; the resolver treats them as
// plain strings and never fails on their content.
type Observation struct {
	Nom             string `json:"nom"`
	Dosage          string `json:"dosage"`
	Conditionnement string `json:"conditionnement"`
	Ppa             string `json:"ppa"`
}
