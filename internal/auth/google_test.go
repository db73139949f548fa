package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

func TestWithParams(t *testing.T) {
	got, err := withParams("https://app.example.com/auth/done?from=login", url.Values{"token": {"abc.def"}})
	if err != nil {
		t.Fatalf("withParams: %v", err)
	}
	if got != "https://app.example.com/auth/done?from=login&token=abc.def" {
		t.Fatalf("unexpected url %q", got)
	}
	if _, err := withParams("", url.Values{"token": {"x"}}); err == nil {
		t.Fatalf("expected error for empty redirect")
	}
}

func TestStateStoreConsumesOnce(t *testing.T) {
	s := newStateStore()
	s.put("fresh", pendingSignIn{expires: time.Now().Add(time.Minute), guestUserID: "guest:g"})
	s.items["stale"] = pendingSignIn{expires: time.Now().Add(-time.Second)}

	p, ok := s.consume("fresh")
	if !ok || p.guestUserID != "guest:g" {
		t.Fatalf("expected fresh state to be accepted, got %+v %v", p, ok)
	}
	if _, ok := s.consume("fresh"); ok {
		t.Fatalf("state must not be reusable")
	}
	if _, ok := s.consume("stale"); ok {
		t.Fatalf("expired state must be rejected")
	}
}

func TestStateStoreSweepsExpired(t *testing.T) {
	s := newStateStore()
	s.items["old"] = pendingSignIn{expires: time.Now().Add(-time.Minute)}
	s.put("new", pendingSignIn{expires: time.Now().Add(time.Minute)})
	if _, ok := s.items["old"]; ok || len(s.items) != 1 {
		t.Fatalf("expected expired state swept, have %v", s.items)
	}
}

func newAuthRouter(svc *GoogleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestStartWithoutConfig(t *testing.T) {
	r := newAuthRouter(NewGoogleService("", "", "", "", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "auth_not_configured") {
		t.Fatalf("unexpected response %d: %s", w.Code, w.Body.String())
	}
}

func TestStartRedirectsToGoogle(t *testing.T) {
	r := newAuthRouter(NewGoogleService("client", "secret", "https://api.example.com/cb", "https://app.example.com", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "https://accounts.google.com/") {
		t.Fatalf("unexpected location %q", loc)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start?guestId=not-a-uuid", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed guestId, got %d", w.Code)
	}
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	r := newAuthRouter(NewGoogleService("client", "secret", "https://api.example.com/cb", "https://app.example.com", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=nope&code=c", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

type recordedSignIn struct {
	userID, email string
}

type fakeRecorder struct {
	calls []recordedSignIn
}

func (f *fakeRecorder) RecordSignIn(_ context.Context, userID, email string) error {
	f.calls = append(f.calls, recordedSignIn{userID, email})
	return nil
}

func TestCallbackSignsInAndClaimsGuest(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	rec := &fakeRecorder{}
	svc := NewGoogleService("client", "secret", "https://api.example.com/cb", "https://app.example.com/done", rec)
	svc.exchange = func(context.Context, string) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "at"}, nil
	}
	svc.fetchProfile = func(context.Context, *oauth2.Token) (googleProfile, error) {
		return googleProfile{Sub: "123", Email: "qa@example.com", Verified: true}, nil
	}
	var claimedFrom, claimedTo string
	svc.ClaimGuest = func(_ context.Context, guest, user string) (int, error) {
		claimedFrom, claimedTo = guest, user
		return 3, nil
	}
	r := newAuthRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start?guestId=0b0e7a52-6c1f-4b5a-9a55-5a1e6c7a9f00", nil))
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?code=c&state="+state, nil))
	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d: %s", w.Code, w.Body.String())
	}
	done, _ := url.Parse(w.Header().Get("Location"))
	if done.Host != "app.example.com" || done.Query().Get("token") == "" || done.Query().Get("claimed") != "3" {
		t.Fatalf("unexpected redirect %q", done.String())
	}
	if claimedFrom != "guest:0b0e7a52-6c1f-4b5a-9a55-5a1e6c7a9f00" || claimedTo != "google:123" {
		t.Fatalf("unexpected claim %q -> %q", claimedFrom, claimedTo)
	}
	if len(rec.calls) != 1 || rec.calls[0] != (recordedSignIn{"google:123", "qa@example.com"}) {
		t.Fatalf("unexpected sign-in records %+v", rec.calls)
	}
}

func TestCallbackProfileFailure(t *testing.T) {
	svc := NewGoogleService("client", "secret", "https://api.example.com/cb", "https://app.example.com/done", nil)
	svc.exchange = func(context.Context, string) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "at"}, nil
	}
	svc.fetchProfile = func(context.Context, *oauth2.Token) (googleProfile, error) {
		return googleProfile{}, errors.New("userinfo 500")
	}
	svc.states.put("s1", pendingSignIn{expires: time.Now().Add(time.Minute)})
	r := newAuthRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?code=c&state=s1", nil))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}
