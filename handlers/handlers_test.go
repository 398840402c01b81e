package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salahab839/prescription-api/catalogparser/entities"
	"github.com/salahab839/prescription-api/data"
	"github.com/salahab839/prescription-api/extractor"
	"github.com/salahab839/prescription-api/health"
	"github.com/salahab839/prescription-api/matcher"
	"github.com/salahab839/prescription-api/ocr"
	"github.com/salahab839/prescription-api/validation"
)

type fakeTextExtractor struct {
	text string
	err  error
}

func (f *fakeTextExtractor) ExtractText(ctx context.Context, image []byte) (string, error) {
	return f.text, f.err
}

type fakeFieldExtractor struct {
	obs entities.Observation
	err error
}

func (f *fakeFieldExtractor) ExtractFields(ctx context.Context, text string) (entities.Observation, error) {
	return f.obs, f.err
}

func testContainer() *data.CatalogContainer {
	catalog := []entities.CatalogEntry{
		{Nom: "DOLIPRANE", Dosage: "500MG", Presentation: "BTE 16 COMPRIMES", Forme: "COMPRIME", Prix: 95.00},
		{Nom: "DOLIPRANE", Dosage: "1000MG", Presentation: "BTE 8 COMPRIMES", Forme: "COMPRIME", Prix: 120.50},
		{Nom: "XYLOCARD", Dosage: "5%", Presentation: "FLACON 20 ML", Forme: "SOLUTION", Prix: 310.75},
	}
	container := data.NewCatalogContainer()
	container.UpdateCatalog(catalog, matcher.BuildIndex(catalog))
	return container
}

func multipartImage(t *testing.T, field string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "vignette.jpg")
	if err != nil {
		t.Fatalf("Expected to create form file, got %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Expected to write form file, got %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Expected to close writer, got %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestProcessVignetteVerified(t *testing.T) {
	container := testContainer()
	textExtractor := &fakeTextExtractor{text: "DOLIPRANE 1000mg B/8 PPA 120.50"}
	fieldExtractor := &fakeFieldExtractor{obs: entities.Observation{
		Nom:             "DOLIPRANE",
		Dosage:          "1000mg",
		Conditionnement: "Bte de 8 comprimés",
		Ppa:             "120.50",
	}}

	handler := ProcessVignette(container, textExtractor, fieldExtractor)

	body, contentType := multipartImage(t, "image", []byte("fake-jpeg-bytes"))
	req := httptest.NewRequest("POST", "/vignette", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var outcome entities.MatchOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("Expected a decodable outcome, got %v", err)
	}
	if outcome.Status != entities.StatusVerified {
		t.Errorf("Expected status %s, got %s", entities.StatusVerified, outcome.Status)
	}
	if outcome.Nom != "DOLIPRANE" {
		t.Errorf("Expected nom DOLIPRANE, got %s", outcome.Nom)
	}
	if outcome.Ppa != "120.50" {
		t.Errorf("Expected ppa 120.50, got %s", outcome.Ppa)
	}
}

func TestProcessVignetteMissingImage(t *testing.T) {
	handler := ProcessVignette(testContainer(), &fakeTextExtractor{}, &fakeFieldExtractor{})

	req := httptest.NewRequest("POST", "/vignette", strings.NewReader("not multipart"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestProcessVignetteNoTextInImage(t *testing.T) {
	handler := ProcessVignette(testContainer(), &fakeTextExtractor{err: ocr.ErrNoText}, &fakeFieldExtractor{})

	body, contentType := multipartImage(t, "image", []byte("blank"))
	req := httptest.NewRequest("POST", "/vignette", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422 for blank image, got %d", rec.Code)
	}
}

func TestProcessVignetteOCRDown(t *testing.T) {
	handler := ProcessVignette(testContainer(), &fakeTextExtractor{err: fmt.Errorf("connection refused")}, &fakeFieldExtractor{})

	body, contentType := multipartImage(t, "image", []byte("img"))
	req := httptest.NewRequest("POST", "/vignette", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502 when OCR is down, got %d", rec.Code)
	}
}

func TestProcessVignetteExtractorFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"service down", fmt.Errorf("%w: timeout", extractor.ErrUnavailable), http.StatusBadGateway},
		{"unusable output", fmt.Errorf("%w: not json", extractor.ErrUnusable), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := ProcessVignette(testContainer(),
				&fakeTextExtractor{text: "some text"},
				&fakeFieldExtractor{err: tt.err})

			body, contentType := multipartImage(t, "image", []byte("img"))
			req := httptest.NewRequest("POST", "/vignette", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestResolveObservation(t *testing.T) {
	handler := ResolveObservation(testContainer())

	payload := `{"nom":"XYLOCARD","dosage":"5%","conditionnement":"FLACON 20 ML","ppa":""}`
	req := httptest.NewRequest("POST", "/resolve", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var outcome entities.MatchOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("Expected a decodable outcome, got %v", err)
	}
	if outcome.Status != entities.StatusVerified {
		t.Errorf("Expected status %s, got %s", entities.StatusVerified, outcome.Status)
	}
	if outcome.Ppa != "310.75" {
		t.Errorf("Expected catalog price fallback 310.75, got %s", outcome.Ppa)
	}
}

func TestResolveObservationBadJSON(t *testing.T) {
	handler := ResolveObservation(testContainer())

	req := httptest.NewRequest("POST", "/resolve", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestServePagedCatalog(t *testing.T) {
	handler := ServePagedCatalog(testContainer())

	req := withURLParam(httptest.NewRequest("GET", "/catalog/1", nil), "pageNumber", "1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response struct {
		Data       []entities.CatalogEntry `json:"data"`
		TotalItems int                     `json:"totalItems"`
		MaxPage    int                     `json:"maxPage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Expected a decodable response, got %v", err)
	}
	if len(response.Data) != 3 {
		t.Errorf("Expected 3 entries on page 1, got %d", len(response.Data))
	}
	if response.TotalItems != 3 || response.MaxPage != 1 {
		t.Errorf("Expected totalItems 3 and maxPage 1, got %d and %d", response.TotalItems, response.MaxPage)
	}
}

func TestServePagedCatalogInvalidPage(t *testing.T) {
	handler := ServePagedCatalog(testContainer())

	for _, page := range []string{"0", "-1", "abc"} {
		req := withURLParam(httptest.NewRequest("GET", "/catalog/"+page, nil), "pageNumber", page)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for page %q, got %d", page, rec.Code)
		}
	}
}

func TestServePagedCatalogPastEnd(t *testing.T) {
	handler := ServePagedCatalog(testContainer())

	req := withURLParam(httptest.NewRequest("GET", "/catalog/99", nil), "pageNumber", "99")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for page past the end, got %d", rec.Code)
	}
}

func TestFindCatalogEntry(t *testing.T) {
	handler := FindCatalogEntry(testContainer(), validation.NewCatalogValidator())

	req := withURLParam(httptest.NewRequest("GET", "/catalog/search/doliprane", nil), "name", "doliprane")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var results []entities.CatalogEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("Expected decodable results, got %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 DOLIPRANE variants, got %d", len(results))
	}
}

func TestFindCatalogEntryAccentInsensitive(t *testing.T) {
	handler := FindCatalogEntry(testContainer(), validation.NewCatalogValidator())

	req := withURLParam(httptest.NewRequest("GET", "/catalog/search/DOLIPRANÉ", nil), "name", "dolipranè")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected accented query to match, got status %d", rec.Code)
	}
}

func TestFindCatalogEntryRejectsDangerousInput(t *testing.T) {
	handler := FindCatalogEntry(testContainer(), validation.NewCatalogValidator())

	req := withURLParam(httptest.NewRequest("GET", "/catalog/search/x", nil), "name", "<script>alert(1)</script>")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for dangerous input, got %d", rec.Code)
	}
}

func TestFindCatalogEntryNotFound(t *testing.T) {
	handler := FindCatalogEntry(testContainer(), validation.NewCatalogValidator())

	req := withURLParam(httptest.NewRequest("GET", "/catalog/search/aspirine", nil), "name", "aspirine")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestHealthCheckEndpoint(t *testing.T) {
	container := testContainer()
	container.SetServerStartTime(time.Now().Add(-90 * time.Second))
	handler := HealthCheck(container, health.NewHealthChecker(container))

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Expected a decodable response, got %v", err)
	}
	if response.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", response.Status)
	}
	if response.UptimeSeconds < 89 {
		t.Errorf("Expected uptime around 90s, got %f", response.UptimeSeconds)
	}
	if response.Data["next_update"] == nil {
		t.Error("Expected next_update in health data")
	}
}

func TestHealthCheckEndpointUnhealthy(t *testing.T) {
	container := data.NewCatalogContainer()
	handler := HealthCheck(container, health.NewHealthChecker(container))

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 without a catalog, got %d", rec.Code)
	}
}

func TestFormatUptimeHuman(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{42 * time.Second, "42s"},
		{90 * time.Second, "1m 30s"},
		{25 * time.Hour, "1d 1h 0m 0s"},
	}

	for _, tt := range tests {
		if got := formatUptimeHuman(tt.duration); got != tt.want {
			t.Errorf("formatUptimeHuman(%v): expected %q, got %q", tt.duration, tt.want, got)
		}
	}
}
