// Package catalogparser loads the chifa reference catalog into CatalogEntry
// values. It reads the xlsx export the catalog is distributed as, with a
// TSV fallback for hand-maintained extracts, and skips malformed rows with
// per-file skip statistics instead of aborting the load.
package catalogparser

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/salahab839/prescription-api/catalogparser/entities"
	"github.com/salahab839/prescription-api/interfaces"
)

// Compile-time check to ensure CatalogParser implements the parser contract
var _ interfaces.CatalogParser = (*CatalogParser)(nil)

// CatalogParser loads catalog entries from a local file.
type CatalogParser struct {
	path string
}

// NewCatalogParser creates a parser for the catalog file at path.
func NewCatalogParser(path string) *CatalogParser {
	return &CatalogParser{path: path}
}

// ParseCatalog reads the configured catalog file. The format is chosen by
// extension: .xlsx via excelize, anything else as tab-separated text.
func (p *CatalogParser) ParseCatalog() ([]entities.CatalogEntry, error) {
	switch strings.ToLower(filepath.Ext(p.path)) {
	case ".xlsx", ".xlsm":
		return parseXLSX(p.path)
	default:
		return parseTSV(p.path)
	}
}

// parsePrix converts a catalog price cell to a float. The exports use commas
// as both thousands and decimal separators, so all commas but the last are
// removed before parsing; an empty cell is price zero.
func parsePrix(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	numCommas := strings.Count(raw, ",")
	if numCommas > 1 {
		raw = strings.Replace(raw, ",", "", numCommas-1)
	}

	prix, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price value '%s': %w", raw, err)
	}

	return math.Trunc(prix*100) / 100, nil
}

// entryFromRow builds a CatalogEntry from one data row, or false when the row
// has no commercial name and must be skipped.
func entryFromRow(row []string, layout columnLayout) (entities.CatalogEntry, bool) {
	nom := strings.TrimSpace(cell(row, layout.nom))
	if nom == "" {
		return entities.CatalogEntry{}, false
	}

	entry := entities.CatalogEntry{
		Nom:          nom,
		Dci:          strings.TrimSpace(cell(row, layout.dci)),
		Dosage:       strings.TrimSpace(cell(row, layout.dosage)),
		Presentation: strings.TrimSpace(cell(row, layout.presentation)),
		Forme:        strings.TrimSpace(cell(row, layout.forme)),
	}

	if prix, err := parsePrix(cell(row, layout.prix)); err == nil {
		entry.Prix = prix
	}

	return entry, true
}
