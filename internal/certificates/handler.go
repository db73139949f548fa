package certificates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"coa-backend/coa/model"
	"coa-backend/internal/accounts"
	"coa-backend/internal/extraction"
	"coa-backend/internal/profiles"
	"coa-backend/internal/shared/server/middleware"
	"coa-backend/internal/shared/server/respond"
	"coa-backend/internal/shared/telemetry"
)

// Extractor reads an uploaded COA.
type Extractor interface {
	Extract(ctx context.Context, userID, fileName string, data []byte) (extraction.Result, error)
}

type Handler struct {
	Svc       *Service
	Extractor Extractor
}

// NewHandler wires the handler. extractor may be nil, which disables
// extract-and-generate.
func NewHandler(svc *Service, extractor Extractor) *Handler {
	return &Handler{Svc: svc, Extractor: extractor}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/certificates/render", h.render)
	rg.POST("/certificates/preview", h.preview)
	rg.POST("/certificates/extract-and-generate", h.extractAndGenerate)
	rg.GET("/certificates", h.list)
	rg.GET("/certificates/:id/download", h.download)
	rg.GET("/certificates/:id/download-url", h.downloadURL)
}

type renderRequest struct {
	Record   json.RawMessage       `json:"record"`
	Branding *profiles.SaveRequest `json:"branding"`
	Paid     bool                  `json:"paid"`
}

func (r renderRequest) input() (RenderInput, error) {
	raw := bytes.TrimSpace(r.Record)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return RenderInput{}, errors.New("record is required")
	}
	var in RenderInput
	if err := json.Unmarshal(raw, &in.Record); err != nil {
		return RenderInput{}, fmt.Errorf("record must be an object: %w", err)
	}
	if r.Branding != nil {
		b := r.Branding.Branding()
		in.Branding = &b
	}
	in.Paid = r.Paid
	return in, nil
}

func (h *Handler) render(c *gin.Context) {
	in, ok := bindRender(c)
	if !ok {
		return
	}
	cert, err := h.Svc.Render(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.CertificateIDKey, cert.ID)
	respond.JSON(c, http.StatusCreated, gin.H{"certificate": toResponse(cert)})
}

func (h *Handler) preview(c *gin.Context) {
	in, ok := bindRender(c)
	if !ok {
		return
	}
	doc, err := h.Svc.Preview(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("X-Page-Count", strconv.Itoa(doc.Pages))
	respond.PDF(c, doc.FileName, doc.Bytes, true)
}

func bindRender(c *gin.Context) (RenderInput, bool) {
	var req renderRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		respond.Validation(c, "invalid json body")
		return RenderInput{}, false
	}
	in, err := req.input()
	if err != nil {
		respond.Validation(c, err.Error(), respond.FieldIssue{Field: "record", Issue: "invalid"})
		return RenderInput{}, false
	}
	return in, true
}

func (h *Handler) extractAndGenerate(c *gin.Context) {
	if h.Extractor == nil {
		respond.Error(c, http.StatusServiceUnavailable, "extraction_unavailable", "extraction is not configured", nil)
		return
	}
	fileName, data, ok := extraction.ReadUpload(c)
	if !ok {
		return
	}
	in := RenderInput{Paid: strings.EqualFold(strings.TrimSpace(c.PostForm("paid")), "true")}
	if raw := strings.TrimSpace(c.PostForm("companyInfo")); raw != "" {
		var info profiles.SaveRequest
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			respond.Validation(c, "companyInfo must be a JSON object", respond.FieldIssue{Field: "companyInfo", Issue: "invalid"})
			return
		}
		b := info.Branding()
		in.Branding = &b
	}

	userID := middleware.UserIDFromContext(c)
	res, err := h.Extractor.Extract(c.Request.Context(), userID, fileName, data)
	if err != nil {
		extraction.WriteError(c, err)
		return
	}
	c.Set(middleware.ExtractionMethodKey, string(res.Method))

	in.Record = res.Record
	cert, err := h.Svc.Render(c.Request.Context(), userID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.CertificateIDKey, cert.ID)
	respond.JSON(c, http.StatusCreated, gin.H{
		"certificate": toResponse(cert),
		"record":      res.Record,
		"extraction": gin.H{
			"method":     res.Method,
			"model":      res.Model,
			"tokensUsed": res.TokensUsed,
		},
	})
}

func (h *Handler) list(c *gin.Context) {
	if middleware.IsGuest(c) {
		respond.Error(c, http.StatusUnauthorized, "login_required", "sign in to see saved certificates", nil)
		return
	}
	limit := parseIntDefault(c.Query("limit"), 20)
	offset := parseIntDefault(c.Query("offset"), 0)
	if limit <= 0 || limit > 100 || offset < 0 {
		respond.Validation(c, "invalid pagination", respond.FieldIssue{Field: "limit", Issue: "must be between 1 and 100"})
		return
	}
	certs, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]certificateResponse, 0, len(certs))
	for _, cert := range certs {
		items = append(items, toResponse(cert))
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) download(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set(middleware.CertificateIDKey, id)
	cert, body, err := h.Svc.Open(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	defer body.Close()

	if err := respond.StreamPDF(c, cert.FileName, cert.SizeBytes, body); err != nil {
		telemetry.Warn("certificate.download_interrupted", map[string]any{
			"certificate_id": cert.ID,
			"err":            err,
		})
	}
}

func (h *Handler) downloadURL(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set(middleware.CertificateIDKey, id)
	link, err := h.Svc.DownloadLink(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, link)
}

func parseIntDefault(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

func writeError(c *gin.Context, err error) {
	var verr *profiles.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid branding", verr.Issues)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "certificate not found", nil)
	case errors.Is(err, accounts.ErrNoCredits):
		respond.Error(c, http.StatusPaymentRequired, "no_credits", "No download credits remaining this month", nil)
	case errors.Is(err, accounts.ErrNoPaidDownloads):
		respond.Error(c, http.StatusPaymentRequired, "no_paid_downloads", "No paid downloads remaining", nil)
	case errors.Is(err, accounts.ErrSubscriptionRequired):
		respond.Error(c, http.StatusForbidden, "subscription_required", "Active subscription required", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "request_timeout", "request canceled", nil)
	case errors.Is(err, ErrInvalidPDF):
		respond.Error(c, http.StatusInternalServerError, "render_failed", "failed to render certificate", nil)
	default:
		telemetry.Error("certificate.failed", map[string]any{
			"err":        err,
			"request_id": middleware.RequestIDFromContext(c),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render certificate", nil)
	}
}
