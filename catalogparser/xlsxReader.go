package catalogparser

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/salahab839/prescription-api/catalogparser/entities"
	"github.com/salahab839/prescription-api/logging"
)

// parseXLSX reads catalog entries from the first sheet of an xlsx workbook.
func parseXLSX(path string) ([]entities.CatalogEntry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog workbook %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close catalog workbook", "error", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("catalog workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog sheet %s is empty", sheets[0])
	}

	layout, err := resolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var catalog []entities.CatalogEntry
	skippedMissingName := 0

	for _, row := range rows[1:] {
		entry, ok := entryFromRow(row, layout)
		if !ok {
			skippedMissingName++
			continue
		}
		catalog = append(catalog, entry)
	}

	if skippedMissingName > 0 {
		logging.Info("Catalog workbook skip statistics",
			"missing_name", skippedMissingName,
			"total_rows", len(rows)-1,
			"records_parsed", len(catalog))
	}

	return catalog, nil
}
