package vertex

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"coa-backend/internal/llm"
	"coa-backend/internal/shared/telemetry"
)

const defaultModel = "gemini-2.0-flash"

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Extractor on Gemini through Vertex AI.
type Client struct {
	model     generator
	modelName string
	base      *genai.Client
}

// NewClient configures a JSON-mode Gemini model with the extraction prompt.
func NewClient(ctx context.Context, projectID, region, modelName string) (*Client, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex: projectID and region cannot be empty")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultModel
	}
	base, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	model := base.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(llm.SystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.1),
	}
	return &Client{model: model, modelName: modelName, base: base}, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c.base == nil {
		return nil
	}
	return c.base.Close()
}

func (c *Client) ExtractFromText(ctx context.Context, text string) (llm.Extraction, error) {
	return c.generate(ctx, llm.MethodText, genai.Text(llm.TextPrompt(text)))
}

func (c *Client) ExtractFromDocument(ctx context.Context, pdf []byte) (llm.Extraction, error) {
	if len(pdf) == 0 {
		return llm.Extraction{}, fmt.Errorf("empty document")
	}
	return c.generate(ctx, llm.MethodDocument,
		genai.Text(llm.DocumentPrompt()),
		genai.Blob{MIMEType: "application/pdf", Data: pdf},
	)
}

func (c *Client) generate(ctx context.Context, method llm.Method, parts ...genai.Part) (llm.Extraction, error) {
	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return llm.Extraction{}, fmt.Errorf("vertex generate: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return llm.Extraction{}, fmt.Errorf("vertex response empty content")
	}
	raw, err := llm.CleanJSON(text)
	if err != nil {
		return llm.Extraction{}, err
	}
	out := llm.Extraction{Raw: raw, Model: c.modelName, Usage: usageOf(resp)}
	telemetry.Info("llm.response", map[string]any{
		"provider":          "vertex",
		"model":             out.Model,
		"method":            string(method),
		"prompt_tokens":     out.Usage.PromptTokens,
		"completion_tokens": out.Usage.CompletionTokens,
		"total_tokens":      out.Usage.TotalTokens,
	})
	return out, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}

func usageOf(resp *genai.GenerateContentResponse) llm.Usage {
	if resp == nil || resp.UsageMetadata == nil {
		return llm.Usage{}
	}
	return llm.Usage{
		PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
	}
}

var _ llm.Extractor = (*Client)(nil)
