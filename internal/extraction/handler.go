package extraction

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"coa-backend/internal/llm"
	"coa-backend/internal/shared/server/middleware"
	"coa-backend/internal/shared/server/respond"
	"coa-backend/internal/shared/telemetry"
)

// MaxUploadBytes caps the multipart pdfFile field.
const MaxUploadBytes = 10 << 20

// FormField is the multipart field carrying the PDF.
const FormField = "pdfFile"

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/certificates/extract", h.extract)
}

func (h *Handler) extract(c *gin.Context) {
	fileName, data, ok := ReadUpload(c)
	if !ok {
		return
	}
	res, err := h.Svc.Extract(c.Request.Context(), middleware.UserIDFromContext(c), fileName, data)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.Set(middleware.ExtractionMethodKey, string(res.Method))
	respond.JSON(c, http.StatusOK, res)
}

// ReadUpload reads the pdfFile field and writes the error response itself when
// the upload is missing or too large.
func ReadUpload(c *gin.Context) (string, []byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+1<<20)
	fh, err := c.FormFile(FormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds 10MB", nil)
			return "", nil, false
		}
		respond.Validation(c, "pdfFile is required", respond.FieldIssue{Field: FormField, Issue: "required"})
		return "", nil, false
	}
	if fh.Size > MaxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds 10MB", nil)
		return "", nil, false
	}
	f, err := fh.Open()
	if err != nil {
		respond.Validation(c, "unable to read pdfFile")
		return "", nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		respond.Validation(c, "unable to read pdfFile")
		return "", nil, false
	}
	if len(data) > MaxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds 10MB", nil)
		return "", nil, false
	}
	return fh.Filename, data, true
}

// WriteError maps extraction failures onto the API error envelope.
func WriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotPDF):
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_file_type", "only PDF files are allowed", nil)
	case errors.Is(err, ErrEmptyUpload):
		respond.Validation(c, "pdfFile is empty")
	case errors.Is(err, llm.ErrUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, "extraction_unavailable", "extraction is not configured", nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		respond.Error(c, http.StatusRequestTimeout, "request_timeout", "extraction timed out", nil)
	case errors.Is(err, ErrBadResponse):
		telemetry.Error("extraction.bad_response", map[string]any{"err": err, "request_id": middleware.RequestIDFromContext(c)})
		respond.Error(c, http.StatusBadGateway, "extraction_failed", "could not read certificate data", nil)
	default:
		telemetry.Error("extraction.failed", map[string]any{"err": err, "request_id": middleware.RequestIDFromContext(c)})
		respond.Error(c, http.StatusBadGateway, "extraction_failed", "failed to extract certificate data", nil)
	}
}
