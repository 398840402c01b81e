// Package data provides thread-safe storage for the reference catalog and
// its matcher index. The CatalogContainer uses atomic pointers so a catalog
// refresh publishes a brand-new immutable snapshot with zero downtime;
// resolutions already running keep the index they started with.
package data

import (
	"sync/atomic"
	"time"

	"github.com/salahab839/prescription-api/catalogparser/entities"
	"github.com/salahab839/prescription-api/interfaces"
	"github.com/salahab839/prescription-api/logging"
	"github.com/salahab839/prescription-api/matcher"
)

// Compile-time check to ensure CatalogContainer implements CatalogStore
var _ interfaces.CatalogStore = (*CatalogContainer)(nil)

// CatalogContainer holds the loaded catalog with atomic pointers for
// zero-downtime updates
type CatalogContainer struct {
	catalog         atomic.Value // []entities.CatalogEntry
	index           atomic.Value // *matcher.Index
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewCatalogContainer creates a new CatalogContainer with an empty catalog.
// The empty index fails every resolution closed until a real catalog is
// published.
func NewCatalogContainer() *CatalogContainer {
	cc := &CatalogContainer{}
	cc.catalog.Store(make([]entities.CatalogEntry, 0))
	cc.index.Store(matcher.BuildIndex(nil))
	cc.lastUpdated.Store(time.Time{})
	cc.serverStartTime.Store(time.Time{})
	return cc
}

// Thread-safe getters with type check

// GetCatalog returns the loaded catalog entries in catalog order
func (cc *CatalogContainer) GetCatalog() []entities.CatalogEntry {
	if v := cc.catalog.Load(); v != nil {
		if catalog, ok := v.([]entities.CatalogEntry); ok {
			return catalog
		}
	}

	logging.Warn("Catalog list is empty or invalid")
	return []entities.CatalogEntry{}
}

// GetIndex returns the current index snapshot
func (cc *CatalogContainer) GetIndex() *matcher.Index {
	if v := cc.index.Load(); v != nil {
		if index, ok := v.(*matcher.Index); ok {
			return index
		}
	}

	logging.Warn("Catalog index is empty or invalid")
	return matcher.BuildIndex(nil)
}

// GetLastUpdated returns the timestamp of the last catalog load
func (cc *CatalogContainer) GetLastUpdated() time.Time {
	if v := cc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a catalog refresh is currently in progress
func (cc *CatalogContainer) IsUpdating() bool {
	return cc.updating.Load()
}

// SetServerStartTime sets the server start time
func (cc *CatalogContainer) SetServerStartTime(startTime time.Time) {
	cc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (cc *CatalogContainer) GetServerStartTime() time.Time {
	if v := cc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateCatalog atomically publishes a freshly loaded catalog and its index
func (cc *CatalogContainer) UpdateCatalog(catalog []entities.CatalogEntry, index *matcher.Index) {
	// Atomic swap (zero downtime replacement)
	cc.catalog.Store(catalog)
	cc.index.Store(index)
	cc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a catalog refresh.
// Returns true if the refresh can proceed, false if another one is in progress
func (cc *CatalogContainer) BeginUpdate() bool {
	return cc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a catalog refresh
func (cc *CatalogContainer) EndUpdate() {
	cc.updating.Store(false)
}
