package reviews

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRouter(svc *Service, userID string, guest bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userId", userID)
		}
		c.Set("isGuest", guest)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitHandler(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	router := newRouter(svc, "google:1", false)

	w := doRequest(router, http.MethodPost, "/api/v1/reviews", `{"rating":5,"title":"Great","comment":"Saved us hours of formatting"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodPost, "/api/v1/reviews", `{"rating":4,"comment":"Another one too soon"}`)
	if w.Code != http.StatusTooManyRequests || !strings.Contains(w.Body.String(), "review_throttled") {
		t.Fatalf("expected 429 review_throttled, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodGet, "/api/v1/reviews/summary", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":1`) {
		t.Fatalf("unexpected summary %d: %s", w.Code, w.Body.String())
	}
}

func TestSubmitHandlerRejects(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	w := doRequest(newRouter(svc, "guest:g", true), http.MethodPost, "/api/v1/reviews", `{"rating":5,"comment":"guest review text"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for guest, got %d", w.Code)
	}

	w = doRequest(newRouter(svc, "google:1", false), http.MethodPost, "/api/v1/reviews", `{"rating":9,"comment":"x"}`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `"field":"rating"`) {
		t.Fatalf("expected 400 with field issues, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMineForGuestIsEmpty(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	w := doRequest(newRouter(svc, "guest:g", true), http.MethodGet, "/api/v1/reviews/mine", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Fatalf("unexpected response %d: %s", w.Code, w.Body.String())
	}
}
