package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	sharedauth "coa-backend/internal/shared/auth"
	"coa-backend/internal/shared/server/respond"
	"coa-backend/internal/shared/telemetry"
)

// SignInRecorder is told about every successful sign-in.
type SignInRecorder interface {
	RecordSignIn(ctx context.Context, userID, email string) error
}

// GuestClaimFunc moves a guest's certificates and branding to the signed-in
// user and reports how many rows moved.
type GuestClaimFunc func(ctx context.Context, guestUserID, userID string) (int, error)

type googleProfile struct {
	Sub      string
	Email    string
	Name     string
	Picture  string
	Verified bool
}

// GoogleService handles Google OAuth flows.
type GoogleService struct {
	oauthConfig *oauth2.Config
	uiRedirect  string
	stateTTL    time.Duration
	states      *stateStore
	recorder    SignInRecorder

	// ClaimGuest runs when the sign-in started from a guest session. Nil
	// leaves guest data where it is.
	ClaimGuest GuestClaimFunc

	exchange     func(ctx context.Context, code string) (*oauth2.Token, error)
	fetchProfile func(ctx context.Context, token *oauth2.Token) (googleProfile, error)
}

// NewGoogleService builds a GoogleService. recorder may be nil.
func NewGoogleService(clientID, clientSecret, redirectURL, uiRedirect string, recorder SignInRecorder) *GoogleService {
	s := &GoogleService{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{googleoauth2.UserinfoEmailScope, googleoauth2.UserinfoProfileScope},
			Endpoint:     google.Endpoint,
		},
		uiRedirect: uiRedirect,
		stateTTL:   5 * time.Minute,
		states:     newStateStore(),
		recorder:   recorder,
	}
	s.exchange = func(ctx context.Context, code string) (*oauth2.Token, error) {
		return s.oauthConfig.Exchange(ctx, code)
	}
	s.fetchProfile = s.userinfo
	return s
}

// RegisterRoutes attaches Google auth routes.
func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) configured() bool {
	return s.oauthConfig.ClientID != "" && s.oauthConfig.ClientSecret != "" && s.oauthConfig.RedirectURL != ""
}

// start redirects to Google. A guestId query parameter is remembered with the
// state so the guest's work can be claimed on return.
func (s *GoogleService) start(c *gin.Context) {
	if !s.configured() {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Google auth not configured", nil)
		return
	}

	var guestUserID string
	if raw := strings.TrimSpace(c.Query("guestId")); raw != "" {
		if _, err := uuid.Parse(raw); err != nil {
			respond.Validation(c, "guestId must be a UUID", respond.FieldIssue{Field: "guestId", Issue: "invalid"})
			return
		}
		guestUserID = "guest:" + raw
	}

	state := uuid.NewString()
	s.states.put(state, pendingSignIn{expires: time.Now().Add(s.stateTTL), guestUserID: guestUserID})
	c.Redirect(http.StatusFound, s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

func (s *GoogleService) callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}
	pending, ok := s.states.consume(state)
	if !ok {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := s.exchange(ctx, code)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "failed to exchange code", nil)
		return
	}
	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		telemetry.Warn("auth.userinfo_failed", map[string]any{"err": err})
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", nil)
		return
	}
	if profile.Sub == "" {
		respond.Error(c, http.StatusBadGateway, "auth_failed", "invalid user profile", nil)
		return
	}

	userID := "google:" + profile.Sub
	email := profile.Email
	if !profile.Verified {
		email = ""
	}
	if s.recorder != nil {
		if err := s.recorder.RecordSignIn(ctx, userID, email); err != nil {
			telemetry.Warn("auth.sign_in_record_failed", map[string]any{"user_id": userID, "err": err})
		}
	}
	claimed := s.claim(ctx, pending.guestUserID, userID)

	jwt, err := sharedauth.SignJWT(sharedauth.Claims{
		Sub:     userID,
		Email:   email,
		Name:    profile.Name,
		Picture: profile.Picture,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}

	params := url.Values{"token": {jwt}}
	if claimed > 0 {
		params.Set("claimed", strconv.Itoa(claimed))
	}
	redirectURL, err := withParams(s.uiRedirect, params)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to redirect", nil)
		return
	}
	telemetry.Info("auth.signed_in", map[string]any{"user_id": userID, "claimed": claimed})
	c.Redirect(http.StatusFound, redirectURL)
}

// claim is best effort: a failed migration leaves the guest rows claimable
// later through the accounts endpoint.
func (s *GoogleService) claim(ctx context.Context, guestUserID, userID string) int {
	if guestUserID == "" || s.ClaimGuest == nil {
		return 0
	}
	n, err := s.ClaimGuest(ctx, guestUserID, userID)
	if err != nil {
		telemetry.Warn("auth.guest_claim_failed", map[string]any{
			"user_id":  userID,
			"guest_id": guestUserID,
			"err":      err,
		})
		return 0
	}
	return n
}

func (s *GoogleService) userinfo(ctx context.Context, token *oauth2.Token) (googleProfile, error) {
	svc, err := googleoauth2.NewService(ctx, option.WithTokenSource(s.oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return googleProfile{}, fmt.Errorf("userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return googleProfile{}, fmt.Errorf("userinfo: %w", err)
	}
	return googleProfile{
		Sub:      info.Id,
		Email:    info.Email,
		Name:     info.Name,
		Picture:  info.Picture,
		Verified: info.VerifiedEmail != nil && *info.VerifiedEmail,
	}, nil
}

type pendingSignIn struct {
	expires     time.Time
	guestUserID string
}

type stateStore struct {
	mu    sync.Mutex
	items map[string]pendingSignIn
	now   func() time.Time
}

func newStateStore() *stateStore {
	return &stateStore{items: make(map[string]pendingSignIn), now: time.Now}
}

// put also drops expired states so abandoned logins do not accumulate.
func (s *stateStore) put(state string, p pendingSignIn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.now()
	for k, v := range s.items {
		if current.After(v.expires) {
			delete(s.items, k)
		}
	}
	s.items[state] = p
}

func (s *stateStore) consume(state string) (pendingSignIn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[state]
	if !ok {
		return pendingSignIn{}, false
	}
	delete(s.items, state)
	if s.now().After(p.expires) {
		return pendingSignIn{}, false
	}
	return p, true
}

func withParams(rawURL string, params url.Values) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
