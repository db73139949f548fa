package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coa-backend/internal/llm"
	"coa-backend/internal/shared/config"
)

func TestBuildInMemory(t *testing.T) {
	app, err := Build(config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		ProfileStore:    "memory",
		LLMProvider:     "none",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(app.Close)

	if _, ok := app.LLM.(llm.PlaceholderClient); !ok {
		t.Fatalf("expected placeholder llm, got %T", app.LLM)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/certificates/render", strings.NewReader(`{"record":{"productName":"Acetone"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "0b0e7a52-6c1f-4b5a-9a55-5a1e6c7a9f00")
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	_, err := Build(config.Config{Env: "production", ObjectStoreType: "local", LocalStoreDir: t.TempDir(), ProfileStore: "postgres"})
	if err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}
