package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coa-backend/internal/accounts"
	"coa-backend/internal/reviews"
	"coa-backend/internal/shared/auth"
	"coa-backend/internal/shared/config"
)

func TestRouterPublicRoutes(t *testing.T) {
	r := NewRouter(RouterDeps{
		Config:        config.Config{Env: "dev"},
		ReviewHandler: reviews.NewHandler(reviews.NewService(reviews.NewMemoryRepo())),
	})

	for _, path := range []string{"/api/v1/health", "/api/v1/reviews/summary", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, w.Code, w.Body.String())
		}
	}
}

func TestMeReportsGuest(t *testing.T) {
	r := NewRouter(RouterDeps{Config: config.Config{Env: "dev"}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("X-Guest-Id", "8f14e45f-ceea-4a67-9c1b-3b1c0d4f0a11")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["isGuest"] != true || !strings.HasPrefix(body["userId"].(string), "guest:") {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMeReportsCapabilities(t *testing.T) {
	svc := accounts.NewService(accounts.NewMemoryStore(), 5)
	if _, err := svc.UpgradeToPro(context.Background(), "google:pro"); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	r := NewRouter(RouterDeps{Config: config.Config{Env: "dev"}, Accounts: svc})

	token, err := auth.SignJWT(auth.Claims{Sub: "google:pro"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Capabilities meCapabilities `json:"capabilities"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Capabilities.CleanDownload || body.Capabilities.Source != accounts.SourcePro {
		t.Fatalf("unexpected capabilities %+v", body.Capabilities)
	}
}
