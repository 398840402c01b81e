// Package handlers provides HTTP request handlers for the vignette resolution
// API endpoints. It includes the vignette processing pipeline, direct
// observation resolution, catalog browsing and health checks, with proper
// input validation and error handling.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salahab839/prescription-api/catalogparser/entities"
	"github.com/salahab839/prescription-api/extractor"
	"github.com/salahab839/prescription-api/interfaces"
	"github.com/salahab839/prescription-api/logging"
	"github.com/salahab839/prescription-api/matcher"
	"github.com/salahab839/prescription-api/metrics"
	"github.com/salahab839/prescription-api/ocr"
)

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// respondWithError writes a JSON error payload
func respondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// recordOutcome updates resolution metrics for one finished outcome
func recordOutcome(outcome entities.MatchOutcome) {
	metrics.ResolutionsTotal.WithLabelValues(string(outcome.Status)).Inc()
	if outcome.MatchScore > 0 {
		metrics.ResolutionMatchScore.Observe(outcome.MatchScore)
	}
}

// ProcessVignette handles the full pipeline: photo upload, OCR, field
// extraction and catalog resolution. Collaborator failures map to 502, images
// or text the collaborators cannot use map to 422; an unresolved vignette is
// still a 200 with a "Non vérifié" outcome.
func ProcessVignette(catalogStore interfaces.CatalogStore, textExtractor interfaces.TextExtractor, fieldExtractor interfaces.FieldExtractor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("image")
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Missing image file: expected multipart field 'image'")
			return
		}
		defer file.Close()

		image, err := io.ReadAll(file)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Could not read image file")
			return
		}
		if len(image) == 0 {
			respondWithError(w, http.StatusBadRequest, "Empty image file")
			return
		}

		text, err := textExtractor.ExtractText(r.Context(), image)
		if err != nil {
			if errors.Is(err, ocr.ErrNoText) {
				respondWithError(w, http.StatusUnprocessableEntity, "No text detected in image")
				return
			}
			logging.Error("OCR extraction failed", "error", err)
			respondWithError(w, http.StatusBadGateway, "Text extraction service unavailable")
			return
		}

		obs, err := fieldExtractor.ExtractFields(r.Context(), text)
		if err != nil {
			if errors.Is(err, extractor.ErrUnusable) {
				respondWithError(w, http.StatusUnprocessableEntity, "Could not extract vignette fields from text")
				return
			}
			logging.Error("Field extraction failed", "error", err)
			respondWithError(w, http.StatusBadGateway, "Field extraction service unavailable")
			return
		}

		outcome := catalogStore.GetIndex().Resolve(obs)
		recordOutcome(outcome)

		logging.Info("Vignette processed",
			"status", string(outcome.Status),
			"match_score", outcome.MatchScore,
			"nom", outcome.Nom)

		RespondWithJSON(w, http.StatusOK, outcome)
	}
}

// ResolveObservation resolves an already-structured observation posted as
// JSON, skipping the OCR and extraction stages.
func ResolveObservation(catalogStore interfaces.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var obs entities.Observation
		if err := json.NewDecoder(r.Body).Decode(&obs); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		outcome := catalogStore.GetIndex().Resolve(obs)
		recordOutcome(outcome)

		RespondWithJSON(w, http.StatusOK, outcome)
	}
}

// ServePagedCatalog returns paginated catalog entries
func ServePagedCatalog(catalogStore interfaces.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageNumber := chi.URLParam(r, "pageNumber")
		page, err := strconv.Atoi(pageNumber)
		if err != nil || page < 1 {
			logging.Warn("Unusual user input", "pageNumber", pageNumber)
			respondWithError(w, http.StatusBadRequest, "Invalid page number")
			return
		}

		catalog := catalogStore.GetCatalog()
		pageSize := 10
		start := (page - 1) * pageSize
		end := start + pageSize

		if start >= len(catalog) {
			respondWithError(w, http.StatusNotFound, "Page not found")
			return
		}

		if end > len(catalog) {
			end = len(catalog)
		}

		pagedCatalog := catalog[start:end]
		totalItems := len(catalog)
		maxPage := (totalItems + pageSize - 1) / pageSize

		response := map[string]interface{}{
			"data":       pagedCatalog,
			"page":       page,
			"pageSize":   pageSize,
			"totalItems": totalItems,
			"maxPage":    maxPage,
		}

		RespondWithJSON(w, http.StatusOK, response)
	}
}

// FindCatalogEntry searches catalog entries by commercial name. The search is
// a normalized substring match, so accents and packaging abbreviations in the
// query do not matter.
func FindCatalogEntry(catalogStore interfaces.CatalogStore, validator interfaces.CatalogValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" {
			respondWithError(w, http.StatusBadRequest, "Missing search term")
			return
		}

		if err := validator.ValidateInput(name); err != nil {
			logging.Warn("Rejected search input", "name", name, "error", err)
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid search term: %v", err))
			return
		}

		needle := matcher.Normalize(name)

		catalog := catalogStore.GetCatalog()
		var results []entities.CatalogEntry

		for _, entry := range catalog {
			if strings.Contains(matcher.Normalize(entry.Nom), needle) {
				results = append(results, entry)
			}
		}

		if len(results) == 0 {
			respondWithError(w, http.StatusNotFound, "No catalog entries found")
			return
		}

		RespondWithJSON(w, http.StatusOK, results)
	}
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string                 `json:"status"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	UptimeHuman   string                 `json:"uptime_human"`
	Data          map[string]interface{} `json:"data"`
	System        map[string]interface{} `json:"system"`
}

// HealthCheck returns server health information
func HealthCheck(catalogStore interfaces.CatalogStore, checker interfaces.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		uptime := time.Since(catalogStore.GetServerStartTime())

		status, healthData, httpStatus := checker.HealthCheck()
		healthData["next_update"] = checker.CalculateNextUpdate().Format(time.RFC3339)

		response := HealthResponse{
			Status:        status,
			UptimeSeconds: uptime.Seconds(),
			UptimeHuman:   formatUptimeHuman(uptime),
			Data:          healthData,
			System: map[string]interface{}{
				"goroutines": runtime.NumGoroutine(),
				"memory": map[string]interface{}{
					"alloc_mb":       int(m.Alloc / 1024 / 1024),
					"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
					"sys_mb":         int(m.Sys / 1024 / 1024),
					"num_gc":         m.NumGC,
				},
			},
		}

		RespondWithJSON(w, httpStatus, response)
	}
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
