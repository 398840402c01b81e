// Package entities defines the value types shared by the catalog loader,
// the matcher and the HTTP layer.
package entities

// CatalogEntry is one reference medication variant from the chifa catalog.
// The catalog may hold several entries sharing a commercial name that differ
// only in dosage or presentation; each one is a distinct variant.
type CatalogEntry struct {
	Nom          string  `json:"nom"`
	Dci          string  `json:"dci,omitempty"`
	Dosage       string  `json:"dosage"`
	Presentation string  `json:"presentation"`
	Forme        string  `json:"forme"`
	Prix         float64 `json:"prix"`
}
