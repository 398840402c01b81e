// Package ocr extracts free text from vignette photographs. Two providers are
// available: the Google Vision REST API and a local Tesseract engine. Both
// satisfy interfaces.TextExtractor and return ErrNoText when the image holds
// nothing readable, so callers can tell an empty vignette from a transport
// failure.
package ocr

import "errors"

// ErrNoText is returned when the OCR provider ran successfully but found no
// text in the image.
var ErrNoText = errors.New("no text detected in image")
