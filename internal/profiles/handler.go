package profiles

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coa-backend/coa/model"
	"coa-backend/internal/shared/server/middleware"
	"coa-backend/internal/shared/server/respond"
)

// Handler exposes the company info endpoints.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/company/info", h.get)
	rg.POST("/company/info", h.save)
	rg.DELETE("/company/info", h.delete)
}

// SaveRequest is the company info payload. Theme is either a preset id or
// an object with a custom color pair.
type SaveRequest struct {
	CompanyName      string     `json:"companyName"`
	CompanyAddress   string     `json:"companyAddress"`
	LogoURL          string     `json:"logoUrl"`
	Theme            ThemeInput `json:"theme"`
	Layout           string     `json:"layout"`
	CustomBackground string     `json:"customBackground"`
}

// Branding converts the request to the renderer's profile.
func (r SaveRequest) Branding() model.BrandingProfile {
	return model.BrandingProfile{
		Name:             r.CompanyName,
		Address:          r.CompanyAddress,
		Logo:             r.LogoURL,
		Theme:            model.Theme(r.Theme),
		Layout:           r.Layout,
		CustomBackground: r.CustomBackground,
	}
}

// ThemeInput accepts "ocean" as well as {"id":..,"primaryColor":..}.
type ThemeInput model.Theme

func (t *ThemeInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &t.ID)
	}
	var theme model.Theme
	if err := json.Unmarshal(data, &theme); err != nil {
		return err
	}
	*t = ThemeInput(theme)
	return nil
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c))
	if errors.Is(err, ErrNotFound) {
		respond.JSON(c, http.StatusOK, gin.H{"profile": nil})
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load company info", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"profile": toResponse(p)})
}

func (h *Handler) save(c *gin.Context) {
	var req SaveRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		respond.Validation(c, "invalid json body")
		return
	}
	p, err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c), req.Branding())
	var verr *ValidationError
	if errors.As(err, &verr) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid company info", verr.Issues)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save company info", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"profile": toResponse(p)})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c)); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete company info", nil)
		return
	}
	c.Status(http.StatusNoContent)
}
