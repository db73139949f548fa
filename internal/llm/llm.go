package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Method names how the document reached the model.
type Method string

const (
	MethodText     Method = "text"
	MethodDocument Method = "document"
)

// Usage is the token accounting reported by the provider.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Extraction is the raw JSON object a model produced for one certificate.
type Extraction struct {
	Raw   json.RawMessage
	Model string
	Usage Usage
}

// Extractor turns a certificate of analysis into structured JSON.
type Extractor interface {
	// ExtractFromText reads text pulled out of a text-based PDF.
	ExtractFromText(ctx context.Context, text string) (Extraction, error)
	// ExtractFromDocument sends the PDF itself, for scans.
	ExtractFromDocument(ctx context.Context, pdf []byte) (Extraction, error)
}

// ErrUnavailable is returned when no provider is configured.
var ErrUnavailable = errors.New("extraction provider not configured")

// PlaceholderClient is used when LLM_PROVIDER is none or misconfigured.
type PlaceholderClient struct{}

func (PlaceholderClient) ExtractFromText(context.Context, string) (Extraction, error) {
	return Extraction{}, ErrUnavailable
}

func (PlaceholderClient) ExtractFromDocument(context.Context, []byte) (Extraction, error) {
	return Extraction{}, ErrUnavailable
}

// CleanJSON strips a markdown code fence some models wrap around JSON and
// checks that what remains is a single JSON object.
func CleanJSON(content string) (json.RawMessage, error) {
	b := bytes.TrimSpace([]byte(content))
	if bytes.HasPrefix(b, []byte("```")) {
		if nl := bytes.IndexByte(b, '\n'); nl >= 0 {
			b = b[nl+1:]
		}
		b = bytes.TrimSuffix(bytes.TrimSpace(b), []byte("```"))
		b = bytes.TrimSpace(b)
	}
	if len(b) == 0 || b[0] != '{' || !json.Valid(b) {
		return nil, fmt.Errorf("model returned invalid JSON object")
	}
	return json.RawMessage(b), nil
}
