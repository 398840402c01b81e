package catalogparser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/salahab839/prescription-api/catalogparser/entities"
	"github.com/salahab839/prescription-api/logging"
)

// parseTSV reads catalog entries from a tab-separated extract. The first line
// must be the header row. Some extracts come out of older tooling in
// ISO-8859-1, so the content is decoded before scanning.
func parseTSV(path string) ([]entities.CatalogEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file %s: %w", path, err)
	}

	var reader io.Reader
	if utf8.Valid(raw) {
		reader = bytes.NewReader(raw)
	} else {
		reader = charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw))
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0), 1*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("scanner error in %s: %w", path, err)
		}
		return nil, fmt.Errorf("catalog file %s is empty", path)
	}

	layout, err := resolveColumns(strings.Split(scanner.Text(), "\t"))
	if err != nil {
		return nil, err
	}

	var catalog []entities.CatalogEntry
	lineCount := 0
	skippedEmptyLines := 0
	skippedMissingName := 0

	for scanner.Scan() {
		lineCount++
		line := scanner.Text()

		// Skip empty lines silently
		if len(line) == 0 {
			skippedEmptyLines++
			continue
		}

		entry, ok := entryFromRow(strings.Split(line, "\t"), layout)
		if !ok {
			skippedMissingName++
			continue
		}

		catalog = append(catalog, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error in %s: %w", path, err)
	}

	// Log skip statistics if any lines were skipped
	if skippedEmptyLines > 0 || skippedMissingName > 0 {
		logging.Info("Catalog TSV skip statistics",
			"empty_lines", skippedEmptyLines,
			"missing_name", skippedMissingName,
			"total_lines", lineCount,
			"records_parsed", len(catalog))
	}

	return catalog, nil
}
