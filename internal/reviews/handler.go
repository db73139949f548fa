package reviews

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coa-backend/internal/shared/server/middleware"
	"coa-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reviews", h.submit)
	rg.GET("/reviews/mine", h.mine)
	rg.GET("/reviews/summary", h.summary)
}

func (h *Handler) submit(c *gin.Context) {
	if middleware.IsGuest(c) {
		respond.Error(c, http.StatusUnauthorized, "login_required", "sign in to leave a review", nil)
		return
	}
	var in Input
	if err := json.NewDecoder(c.Request.Body).Decode(&in); err != nil {
		respond.Validation(c, "invalid json body")
		return
	}
	rev, err := h.Svc.Submit(c.Request.Context(), middleware.UserIDFromContext(c), middleware.UserEmailFromContext(c), in)
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid review", verr.Issues)
	case errors.Is(err, ErrThrottled):
		respond.TooManyRequests(c, "review_throttled", "please wait a minute before submitting another review", int(ThrottleWindow.Seconds()), nil)
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save review", nil)
	default:
		respond.JSON(c, http.StatusCreated, gin.H{"review": rev})
	}
}

func (h *Handler) mine(c *gin.Context) {
	if middleware.IsGuest(c) {
		respond.JSON(c, http.StatusOK, gin.H{"items": []Review{}})
		return
	}
	list, err := h.Svc.Mine(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load reviews", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": list})
}

func (h *Handler) summary(c *gin.Context) {
	sum, err := h.Svc.Summary(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load review summary", nil)
		return
	}
	respond.JSON(c, http.StatusOK, sum)
}
