package catalogparser

import (
	"fmt"

	"github.com/salahab839/prescription-api/matcher"
)

// columnLayout maps the catalog's required and optional columns to their
// positions in the source header row.
type columnLayout struct {
	nom          int
	dci          int
	dosage       int
	presentation int
	forme        int
	prix         int
}

// headerAliases maps normalized header cells to the canonical column. The
// chifa exports are not consistent about spelling, accents or wording, so the
// lookup goes through the same normalization the matcher uses.
var headerAliases = map[string]string{
	"nom commercial":       "nom",
	"nom":                  "nom",
	"denomination":         "nom",
	"dci":                  "dci",
	"nom dci":              "dci",
	"dosage":               "dosage",
	"presentation":         "presentation",
	"conditionnement":      "presentation",
	"forme":                "forme",
	"forme pharmaceutique": "forme",
	"ppa":                  "prix",
	"prix":                 "prix",
	"prix public":          "prix",
	"tarif de reference":   "prix",
}

// resolveColumns locates every canonical column in the header row. The
// commercial name, dosage, presentation, form and price columns are required;
// DCI is optional. A missing required column is a load error: the caller keeps
// the previous (or empty) index and the service fails closed per request.
func resolveColumns(header []string) (columnLayout, error) {
	layout := columnLayout{nom: -1, dci: -1, dosage: -1, presentation: -1, forme: -1, prix: -1}

	for i, cell := range header {
		switch headerAliases[matcher.Normalize(cell)] {
		case "nom":
			layout.nom = i
		case "dci":
			layout.dci = i
		case "dosage":
			layout.dosage = i
		case "presentation":
			layout.presentation = i
		case "forme":
			layout.forme = i
		case "prix":
			layout.prix = i
		}
	}

	missing := []string{}
	if layout.nom == -1 {
		missing = append(missing, "nom commercial")
	}
	if layout.dosage == -1 {
		missing = append(missing, "dosage")
	}
	if layout.presentation == -1 {
		missing = append(missing, "presentation")
	}
	if layout.forme == -1 {
		missing = append(missing, "forme")
	}
	if layout.prix == -1 {
		missing = append(missing, "prix")
	}

	if len(missing) > 0 {
		return layout, fmt.Errorf("catalog header is missing required columns: %v", missing)
	}

	return layout, nil
}

// cell returns the trimmed value at index i, or "" when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
