// Package scheduler provides automated catalog refresh scheduling and health
// monitoring for the vignette resolution API. It handles cron-based catalog
// reloads and coordinates refresh operations with the catalog container using
// dependency injection.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/salahab839/prescription-api/interfaces"
	"github.com/salahab839/prescription-api/logging"
	"github.com/salahab839/prescription-api/matcher"
	"github.com/salahab839/prescription-api/metrics"
	"github.com/salahab839/prescription-api/validation"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles catalog refreshes and health monitoring using dependency injection
type Scheduler struct {
	catalogStore interfaces.CatalogStore
	parser       interfaces.CatalogParser
	scheduler    *gocron.Scheduler
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(catalogStore interfaces.CatalogStore, parser interfaces.CatalogParser) *Scheduler {
	return &Scheduler{
		catalogStore: catalogStore,
		parser:       parser,
		scheduler:    gocron.NewScheduler(time.Local),
	}
}

// Start performs the initial catalog load and schedules daily refreshes.
// A failed initial load is reported but does not stop the server: the empty
// index fails every resolution closed until a refresh succeeds.
func (s *Scheduler) Start() error {
	if err := s.refreshCatalog(); err != nil {
		logging.Error("Failed to perform initial catalog load, resolutions will fail until a refresh succeeds", "error", err)
	}

	// Refresh daily at 06:00
	_, err := s.scheduler.Every(1).Days().At("06:00").Do(func() {
		if err := s.refreshCatalog(); err != nil {
			logging.Error("Failed to refresh catalog", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule catalog refreshes", "error", err)
		return fmt.Errorf("failed to schedule catalog refreshes: %w", err)
	}

	s.scheduler.StartAsync()

	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// refreshCatalog performs a complete catalog reload using injected dependencies
func (s *Scheduler) refreshCatalog() error {
	// Prevent concurrent refreshes
	if !s.catalogStore.BeginUpdate() {
		logging.Info("Catalog refresh already in progress, skipping...")
		return nil
	}
	defer s.catalogStore.EndUpdate()

	logging.Info("Starting catalog refresh", "time", time.Now().Format(time.RFC3339))
	start := time.Now()

	newCatalog, err := s.parser.ParseCatalog()
	if err != nil {
		logging.Error("Failed to parse catalog", "error", err)
		return fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(newCatalog) == 0 {
		return fmt.Errorf("parsed catalog is empty")
	}

	validator := validation.NewCatalogValidator()
	report := validator.ReportQuality(newCatalog)

	if len(report.DuplicateFullSignatures) > 0 {
		logging.Warn("Duplicate full signatures detected, last entry wins in the index",
			"count", len(report.DuplicateFullSignatures),
			"signatures", report.DuplicateFullSignatures,
		)
	}

	if report.EntriesWithoutPrice > 0 {
		logging.Warn("Catalog entries without a price", "count", report.EntriesWithoutPrice)
	}

	if report.EntriesWithoutDosage > 0 {
		logging.Warn("Catalog entries without a dosage", "count", report.EntriesWithoutDosage)
	}

	newIndex := matcher.BuildIndex(newCatalog)

	// Atomic swap, in-flight resolutions keep their snapshot
	s.catalogStore.UpdateCatalog(newCatalog, newIndex)

	elapsed := time.Since(start)
	metrics.CatalogEntries.Set(float64(len(newCatalog)))
	metrics.CatalogLoadDuration.Observe(elapsed.Seconds())
	logging.Info("Catalog refresh completed",
		"duration", elapsed.String(),
		"entry_count", len(newCatalog),
		"indexed_count", newIndex.Len())

	return nil
}

// startHealthMonitoring monitors the age of the loaded catalog
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			lastUpdate := s.catalogStore.GetLastUpdated()
			if time.Since(lastUpdate) > 25*time.Hour {
				logging.Warn("Catalog hasn't been refreshed in over 25 hours")
			}
		}
	}()
}
