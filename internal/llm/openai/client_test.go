package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func withServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	prev := apiURL
	apiURL = srv.URL
	t.Cleanup(func() {
		apiURL = prev
		srv.Close()
	})
}

func TestExtractFromTextSendsPromptAndParsesUsage(t *testing.T) {
	var got chatRequest
	var rawBody map[string]any
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer header")
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &rawBody)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"model":"gpt-4o-2024","choices":[{"message":{"role":"assistant","content":"{\"productName\":\"Acetone\"}"}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	})

	c, err := NewClient("key", "gpt-4o")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	out, err := c.ExtractFromText(context.Background(), "Acetone COA")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if string(out.Raw) != `{"productName":"Acetone"}` {
		t.Fatalf("unexpected raw %s", out.Raw)
	}
	if out.Model != "gpt-4o-2024" || out.Usage.TotalTokens != 15 {
		t.Fatalf("unexpected meta %+v", out)
	}
	if got.ResponseFormat.Type != "json_object" || got.Temperature == nil || *got.Temperature != 0.1 {
		t.Fatalf("unexpected request settings %+v", got)
	}
	msgs := rawBody["messages"].([]any)
	user := msgs[1].(map[string]any)["content"].(string)
	if !strings.Contains(user, "Acetone COA") {
		t.Fatalf("user prompt missing text: %q", user)
	}
}

func TestExtractFromDocumentAttachesPDF(t *testing.T) {
	var rawBody map[string]any
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &rawBody)
		_, _ = w.Write([]byte("{\"choices\":[{\"message\":{\"content\":\"```json\\n{\\\"batchNo\\\":\\\"B1\\\"}\\n```\"}}]}"))
	})

	c, _ := NewClient("key", "gpt-5-mini")
	out, err := c.ExtractFromDocument(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if string(out.Raw) != `{"batchNo":"B1"}` || out.Model != "gpt-5-mini" {
		t.Fatalf("unexpected extraction %+v", out)
	}
	if _, ok := rawBody["temperature"]; ok {
		t.Fatalf("temperature must be omitted for gpt-5")
	}
	parts := rawBody["messages"].([]any)[1].(map[string]any)["content"].([]any)
	file := parts[1].(map[string]any)["file"].(map[string]any)
	if !strings.HasPrefix(file["file_data"].(string), "data:application/pdf;base64,") {
		t.Fatalf("unexpected file part %v", file)
	}
}

func TestExtractSurfacesAPIError(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	})
	c, _ := NewClient("key", "")
	_, err := c.ExtractFromText(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "slow down") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(" ", "gpt-4o"); err == nil {
		t.Fatalf("expected error for missing key")
	}
}
