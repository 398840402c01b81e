// Package interfaces defines core abstractions for the vignette resolution
// service to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"time"

	"github.com/salahab839/prescription-api/catalogparser/entities"
	"github.com/salahab839/prescription-api/matcher"
)

// QualityReport summarizes the data quality issues found in a loaded catalog.
type QualityReport struct {
	DuplicateFullSignatures []string // signatures shared by several entries; the last one loaded wins in the index
	EntriesWithoutPrice     int
	EntriesWithoutDosage    int
	EntriesWithoutForme     int
}

// CatalogStore defines the contract for catalog storage. It provides
// thread-safe access to the loaded entries and the built index, with atomic
// swaps so a refresh never disturbs in-flight resolutions.
type CatalogStore interface {
	GetCatalog() []entities.CatalogEntry
	GetIndex() *matcher.Index
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time
	SetServerStartTime(startTime time.Time)

	// UpdateCatalog atomically publishes a freshly loaded catalog and its
	// index; in-flight readers keep the snapshot they started with.
	UpdateCatalog(catalog []entities.CatalogEntry, index *matcher.Index)
	BeginUpdate() bool
	EndUpdate()
}

// CatalogParser defines the contract for loading the reference catalog from
// its source file.
type CatalogParser interface {
	ParseCatalog() ([]entities.CatalogEntry, error)
}

// TextExtractor is the OCR collaborator: raw image bytes in, extracted free
// text out. Implementations return typed errors so callers can tell "the
// image holds no text" from a transport failure.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// FieldExtractor is the language-model collaborator: free text in, a
// best-effort structured observation out. Its output is untrusted; only its
// absence is an error, never its content.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) (entities.Observation, error)
}

// Scheduler defines the contract for catalog refresh scheduling and health
// monitoring.
type Scheduler interface {
	Start() error
	Stop()
}

// CatalogValidator defines the contract for catalog and input validation.
type CatalogValidator interface {
	// ValidateEntry checks if a catalog entry is structurally valid
	ValidateEntry(e *entities.CatalogEntry) error

	// ReportQuality generates a data quality report for a loaded catalog
	ReportQuality(catalog []entities.CatalogEntry) *QualityReport

	// ValidateInput validates user input strings
	ValidateInput(input string) error
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, data map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled catalog refresh time
	CalculateNextUpdate() time.Time
}
