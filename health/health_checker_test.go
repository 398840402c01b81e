package health

import (
	"net/http"
	"testing"
	"time"

	"github.com/salahab839/prescription-api/catalogparser/entities"
	"github.com/salahab839/prescription-api/data"
	"github.com/salahab839/prescription-api/matcher"
)

func populatedContainer(t *testing.T) *data.CatalogContainer {
	t.Helper()
	catalog := []entities.CatalogEntry{
		{Nom: "DOLIPRANE", Dosage: "1000MG", Presentation: "BTE 8 COMPRIMES", Forme: "COMPRIME", Prix: 120.50},
	}
	container := data.NewCatalogContainer()
	container.UpdateCatalog(catalog, matcher.BuildIndex(catalog))
	return container
}

func TestHealthCheckHealthy(t *testing.T) {
	container := populatedContainer(t)
	checker := NewHealthChecker(container)

	status, data, httpStatus := checker.HealthCheck()

	if status != "healthy" {
		t.Errorf("Expected healthy, got %s", status)
	}
	if httpStatus != http.StatusOK {
		t.Errorf("Expected status 200, got %d", httpStatus)
	}
	if data["catalog_entries"] != 1 {
		t.Errorf("Expected 1 catalog entry, got %v", data["catalog_entries"])
	}
	if data["index_entries"] != 1 {
		t.Errorf("Expected 1 index entry, got %v", data["index_entries"])
	}
}

func TestHealthCheckUnhealthyWithoutCatalog(t *testing.T) {
	container := data.NewCatalogContainer()
	checker := NewHealthChecker(container)

	status, data, httpStatus := checker.HealthCheck()

	if status != "unhealthy" {
		t.Errorf("Expected unhealthy with empty catalog, got %s", status)
	}
	if httpStatus != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", httpStatus)
	}
	if data["catalog_entries"] != 0 {
		t.Errorf("Expected 0 catalog entries, got %v", data["catalog_entries"])
	}
}

func TestCalculateNextUpdate(t *testing.T) {
	checker := NewHealthChecker(data.NewCatalogContainer())

	next := checker.CalculateNextUpdate()
	now := time.Now()

	if !next.After(now) {
		t.Errorf("Expected next update in the future, got %v", next)
	}
	if next.Hour() != 6 || next.Minute() != 0 {
		t.Errorf("Expected next update at 06:00, got %02d:%02d", next.Hour(), next.Minute())
	}
	if next.Sub(now) > 24*time.Hour {
		t.Errorf("Expected next update within 24 hours, got %v away", next.Sub(now))
	}
}
