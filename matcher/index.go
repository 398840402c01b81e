// Package matcher implements the vignette resolution core: string
// normalization into comparison signatures, price recovery, the immutable
// three-way catalog index and the staged fuzzy resolution protocol.
//
// Everything in this package is a pure function over plain strings or over an
// Index built once from the loaded catalog, so concurrent resolutions need no
// locking.
package matcher

import (
	"sort"
	"strings"

	"github.com/salahab839/prescription-api/catalogparser/entities"
)

// Index holds the three complementary signature lookups built from the
// catalog. It is immutable after BuildIndex returns; a catalog refresh builds
// a brand-new Index and swaps it in atomically.
type Index struct {
	byFull    map[string]entities.CatalogEntry
	byName    map[string][]entities.CatalogEntry
	byDetails map[string][]entities.CatalogEntry

	// Sorted key slices so scoring loops never depend on map iteration order.
	fullKeys    []string
	nameKeys    []string
	detailsKeys []string
}

// FullSignature is the normalized signature of an entry's name, dosage and
// presentation taken together.
func FullSignature(e entities.CatalogEntry) string {
	return joinSignature(e.Nom, e.Dosage, e.Presentation)
}

// DetailsSignature is the normalized signature of an entry's dosage and
// presentation, without the name.
func DetailsSignature(e entities.CatalogEntry) string {
	return joinSignature(e.Dosage, e.Presentation)
}

func joinSignature(parts ...string) string {
	return Normalize(strings.Join(parts, " "))
}

// BuildIndex constructs the index from the loaded catalog entries. Entries
// whose commercial name normalizes to an empty signature are skipped. When two
// entries share a full signature the last one loaded wins; that is an accepted
// catalog quality limitation, surfaced by the validation report rather than
// repaired here.
func BuildIndex(catalog []entities.CatalogEntry) *Index {
	idx := &Index{
		byFull:    make(map[string]entities.CatalogEntry),
		byName:    make(map[string][]entities.CatalogEntry),
		byDetails: make(map[string][]entities.CatalogEntry),
	}

	for _, entry := range catalog {
		nameSig := Normalize(entry.Nom)
		if nameSig == "" {
			continue
		}

		idx.byFull[FullSignature(entry)] = entry
		idx.byName[nameSig] = append(idx.byName[nameSig], entry)

		detailsSig := DetailsSignature(entry)
		idx.byDetails[detailsSig] = append(idx.byDetails[detailsSig], entry)
	}

	idx.fullKeys = sortedKeys(idx.byFull)
	idx.nameKeys = sortedNameKeys(idx.byName)
	idx.detailsKeys = sortedNameKeys(idx.byDetails)

	return idx
}

// Len returns the number of distinct full signatures in the index.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byFull)
}

// Variants returns the catalog entries sharing a normalized name, in catalog
// order. The returned slice must not be mutated.
func (idx *Index) Variants(nameSig string) []entities.CatalogEntry {
	if idx == nil {
		return nil
	}
	return idx.byName[nameSig]
}

func sortedKeys(m map[string]entities.CatalogEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedNameKeys(m map[string][]entities.CatalogEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
