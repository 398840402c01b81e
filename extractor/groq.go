// Package extractor turns OCR text into a structured observation using the
// Groq chat-completions API in JSON mode. The model output is untrusted
// advisory data: whatever fields come back are passed on verbatim for the
// resolver to judge, and only the absence of a usable response is an error.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/salahab839/prescription-api/catalogparser/entities"
	"github.com/salahab839/prescription-api/interfaces"
)

const groqEndpoint = "https://api.groq.com/openai/v1/chat/completions"

var (
	// ErrUnavailable is returned when the extraction service cannot be
	// reached or refuses the request.
	ErrUnavailable = errors.New("field extraction service unavailable")

	// ErrUnusable is returned when the service responded but produced
	// nothing that can be parsed into an observation.
	ErrUnusable = errors.New("field extraction produced no usable output")
)

const systemPrompt = `Tu extrais les informations d'une vignette de médicament à partir d'un texte OCR brut.
Réponds uniquement avec un objet JSON contenant exactement ces clés:
"nom" (nom commercial du médicament), "dosage", "conditionnement", "ppa" (prix public algérien).
Si une information est absente du texte, mets une chaîne vide.`

// Compile-time check to ensure GroqClient implements FieldExtractor
var _ interfaces.FieldExtractor = (*GroqClient)(nil)

// GroqClient extracts vignette fields with a Groq-hosted language model
type GroqClient struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewGroqClient creates a Groq extraction client
func NewGroqClient(apiKey, model string, timeout time.Duration) *GroqClient {
	return &GroqClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: groqEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractFields asks the model to structure the OCR text. The response is
// decoded into an Observation without any cleanup; the resolver treats every
// field as a raw claim anyway.
func (gc *GroqClient) ExtractFields(ctx context.Context, text string) (entities.Observation, error) {
	payload := chatRequest{
		Model: gc.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature:    0,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return entities.Observation{}, fmt.Errorf("failed to encode extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gc.endpoint, bytes.NewReader(body))
	if err != nil {
		return entities.Observation{}, fmt.Errorf("failed to build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+gc.apiKey)

	resp, err := gc.client.Do(req)
	if err != nil {
		return entities.Observation{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return entities.Observation{}, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return entities.Observation{}, fmt.Errorf("%w: %v", ErrUnusable, err)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return entities.Observation{}, fmt.Errorf("%w: empty completion", ErrUnusable)
	}

	var obs entities.Observation
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &obs); err != nil {
		return entities.Observation{}, fmt.Errorf("%w: %v", ErrUnusable, err)
	}

	return obs, nil
}
