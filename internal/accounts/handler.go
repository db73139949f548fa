package accounts

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"coa-backend/internal/shared/server/middleware"
	"coa-backend/internal/shared/server/respond"
)

// Handler exposes account endpoints.
type Handler struct {
	Svc      *Service
	Claimers map[string]GuestClaimer
}

// NewHandler constructs a Handler. claimers may be nil.
func NewHandler(svc *Service, claimers map[string]GuestClaimer) *Handler {
	return &Handler{Svc: svc, Claimers: claimers}
}

// RegisterRoutes attaches account routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/account/status", h.status)
	rg.POST("/account/use-download-credit", h.useDownloadCredit)
	rg.POST("/account/claim-guest", h.claimGuest)
}

// RegisterDevRoutes attaches state setters normally driven by billing.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/account/upgrade", h.mutate(h.Svc.UpgradeToPro))
	rg.POST("/account/subscribe", h.mutate(h.Svc.ActivateSubscription))
	rg.POST("/account/cancel", h.mutate(h.Svc.CancelSubscription))
	rg.POST("/account/reset", h.mutate(h.Svc.Reset))
	rg.POST("/account/grant-download", h.mutate(func(ctx context.Context, userID string) (Account, error) {
		return h.Svc.GrantPaidDownload(ctx, userID, 1)
	}))
}

func (h *Handler) status(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if middleware.IsGuest(c) {
		respond.JSON(c, http.StatusOK, gin.H{"account": newAccount(userID, h.Svc.now())})
		return
	}
	acct, err := h.Svc.Status(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "failed to fetch account")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"account": acct})
}

func (h *Handler) useDownloadCredit(c *gin.Context) {
	acct, err := h.Svc.ConsumeCredit(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to use download credit")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"downloadsRemaining":     acct.DownloadsRemaining,
		"downloadsUsedThisMonth": acct.DownloadsUsedThisMonth,
	})
}

func (h *Handler) mutate(fn func(context.Context, string) (Account, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, err := fn(c.Request.Context(), middleware.UserIDFromContext(c))
		if err != nil {
			writeError(c, err, "failed to update account")
			return
		}
		respond.JSON(c, http.StatusOK, gin.H{"account": acct})
	}
}

func (h *Handler) claimGuest(c *gin.Context) {
	if middleware.IsGuest(c) {
		respond.Error(c, http.StatusUnauthorized, "login_required", "login required", nil)
		return
	}
	authedUserID := strings.TrimSpace(middleware.UserIDFromContext(c))
	if authedUserID == "" {
		respond.Error(c, http.StatusUnauthorized, "login_required", "login required", nil)
		return
	}

	guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
	if guestID == "" {
		respond.Validation(c, "missing X-Guest-Id header", respond.FieldIssue{Field: "X-Guest-Id", Issue: "required"})
		return
	}
	if _, err := uuid.Parse(guestID); err != nil {
		respond.Validation(c, "invalid guest id", respond.FieldIssue{Field: "X-Guest-Id", Issue: "invalid"})
		return
	}

	result, err := ClaimGuest(c.Request.Context(), h.Claimers, "guest:"+guestID, authedUserID)
	if err != nil {
		writeError(c, err, "failed to claim guest data")
		return
	}
	respond.JSON(c, http.StatusOK, result)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrGuest):
		respond.Error(c, http.StatusUnauthorized, "login_required", "login required", nil)
	case errors.Is(err, ErrSubscriptionRequired):
		respond.Error(c, http.StatusForbidden, "subscription_required", "Active subscription required", nil)
	case errors.Is(err, ErrNoCredits):
		respond.Error(c, http.StatusPaymentRequired, "no_credits", "No download credits remaining this month", nil)
	case errors.Is(err, ErrNoPaidDownloads):
		respond.Error(c, http.StatusPaymentRequired, "no_paid_downloads", "No paid downloads remaining", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
