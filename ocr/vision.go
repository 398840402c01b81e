package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/salahab839/prescription-api/interfaces"
)

const visionEndpoint = "https://vision.googleapis.com/v1/images:annotate"

// Compile-time check to ensure VisionClient implements TextExtractor
var _ interfaces.TextExtractor = (*VisionClient)(nil)

// VisionClient extracts text with the Google Vision images:annotate endpoint
// using TEXT_DETECTION.
type VisionClient struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewVisionClient creates a Vision OCR client authenticated with an API key
func NewVisionClient(apiKey string, timeout time.Duration) *VisionClient {
	return &VisionClient{
		apiKey:   apiKey,
		endpoint: visionEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type visionRequest struct {
	Requests []visionAnnotateRequest `json:"requests"`
}

type visionAnnotateRequest struct {
	Image    visionImage     `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionImage struct {
	Content string `json:"content"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type visionResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description string `json:"description"`
		} `json:"textAnnotations"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// ExtractText sends the image to the Vision API and returns the full detected
// text block. The first annotation holds the whole page; the rest are
// per-word boxes we do not need.
func (vc *VisionClient) ExtractText(ctx context.Context, image []byte) (string, error) {
	payload := visionRequest{
		Requests: []visionAnnotateRequest{
			{
				Image:    visionImage{Content: base64.StdEncoding.EncodeToString(image)},
				Features: []visionFeature{{Type: "TEXT_DETECTION"}},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode vision request: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", vc.endpoint, vc.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := vc.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("vision returned status %d: %s", resp.StatusCode, raw)
	}

	var parsed visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode vision response: %w", err)
	}

	if len(parsed.Responses) == 0 {
		return "", ErrNoText
	}

	first := parsed.Responses[0]
	if first.Error != nil {
		return "", fmt.Errorf("vision error %d: %s", first.Error.Code, first.Error.Message)
	}
	if len(first.TextAnnotations) == 0 || first.TextAnnotations[0].Description == "" {
		return "", ErrNoText
	}

	return first.TextAnnotations[0].Description, nil
}
