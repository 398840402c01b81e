package logging

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetWeekKey(t *testing.T) {
	// 2024-01-04 is a Thursday in ISO week 1
	key := getWeekKey(time.Date(2024, 1, 4, 12, 0, 0, 0, time.UTC))
	if key != "2024-W01" {
		t.Errorf("Expected 2024-W01, got %s", key)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tt.input, tt.want, got)
		}
	}
}

func TestRotatingLoggerWritesToWeeklyFile(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 4, 0)
	defer func() {
		close(rl.cleanupDone)
		if err := rl.Close(); err != nil {
			t.Errorf("Expected no error on close, got %v", err)
		}
	}()

	msg := []byte("hello log\n")
	n, err := rl.Write(msg)
	if err != nil {
		t.Fatalf("Expected no error writing, got %v", err)
	}
	if n != len(msg) {
		t.Errorf("Expected %d bytes written, got %d", len(msg), n)
	}

	expected := filepath.Join(dir, "app-"+getWeekKey(time.Now())+".log")
	content, err := os.ReadFile(expected)
	if err != nil {
		t.Fatalf("Expected weekly log file %s, got error %v", expected, err)
	}
	if !strings.Contains(string(content), "hello log") {
		t.Errorf("Expected log content in %s, got %q", expected, content)
	}
}

func TestRotatingLoggerRotatesOnSize(t *testing.T) {
	dir := t.TempDir()
	// Tiny limit so the second write forces a numbered file
	rl := NewRotatingLogger(dir, 4, 16)
	defer func() {
		close(rl.cleanupDone)
		_ = rl.Close()
	}()

	if _, err := rl.Write([]byte("0123456789abcdef")); err != nil {
		t.Fatalf("Expected no error on first write, got %v", err)
	}
	if _, err := rl.Write([]byte("overflow")); err != nil {
		t.Fatalf("Expected no error on second write, got %v", err)
	}

	numbered := filepath.Join(dir, "app-"+getWeekKey(time.Now())+"_01.log")
	if _, err := os.Stat(numbered); err != nil {
		t.Errorf("Expected size-rotated file %s, got error %v", numbered, err)
	}
}

func TestLoggingMiddlewareCapturesStatus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		if _, err := w.Write([]byte("short and stout")); err != nil {
			t.Errorf("Expected no write error, got %v", err)
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/resolve", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("Expected body to pass through, got %q", rec.Body.String())
	}
}

func TestLoggingMiddlewareSkipsProbes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	called := false
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if !called {
		t.Error("Expected handler to be called for /health")
	}
}
