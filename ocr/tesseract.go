package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/salahab839/prescription-api/interfaces"
)

// Compile-time check to ensure TesseractClient implements TextExtractor
var _ interfaces.TextExtractor = (*TesseractClient)(nil)

// TesseractClient extracts text with a local Tesseract engine. It needs no
// network or API key, at the cost of noisier output on low-quality photos.
type TesseractClient struct {
	languages []string
}

// NewTesseractClient creates a local OCR client. Vignettes carry French
// labels with latin digits, so French plus English covers the character set.
func NewTesseractClient() *TesseractClient {
	return &TesseractClient{
		languages: []string{"fra", "eng"},
	}
}

// ExtractText runs Tesseract over the image bytes. A fresh client per call
// keeps the method safe for concurrent use; gosseract clients are not.
func (tc *TesseractClient) ExtractText(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer func() {
		_ = client.Close()
	}()

	if err := client.SetLanguage(tc.languages...); err != nil {
		return "", fmt.Errorf("failed to set tesseract languages: %w", err)
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to load image into tesseract: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}

	return text, nil
}
