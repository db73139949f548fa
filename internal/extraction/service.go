package extraction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coa-backend/coa/model"
	"coa-backend/internal/llm"
	"coa-backend/internal/shared/metrics"
	"coa-backend/internal/shared/storage/object"
	"coa-backend/internal/shared/telemetry"
)

// MinTextChars is the amount of extracted text below which a PDF is treated as a scan.
const MinTextChars = 100

var (
	ErrNotPDF      = errors.New("uploaded file is not a pdf")
	ErrEmptyUpload = errors.New("uploaded file is empty")
	ErrBadResponse = errors.New("extraction returned an unusable record")
)

// Result is one extracted certificate.
type Result struct {
	Record     model.ExtractedRecord `json:"record"`
	Method     llm.Method            `json:"method"`
	Model      string                `json:"model"`
	TokensUsed int                   `json:"tokensUsed"`
	UploadKey  string                `json:"uploadKey,omitempty"`
}

// Service stores an uploaded COA and asks the configured model to read it.
type Service struct {
	Store object.ObjectStore
	LLM   llm.Extractor

	textOf func(context.Context, []byte) (string, error)
}

func NewService(store object.ObjectStore, extractor llm.Extractor) *Service {
	if extractor == nil {
		extractor = llm.PlaceholderClient{}
	}
	return &Service{Store: store, LLM: extractor, textOf: TextFromPDF}
}

// Extract stores the upload, then tries text mode before falling back to
// sending the document itself.
func (s *Service) Extract(ctx context.Context, userID, fileName string, data []byte) (Result, error) {
	start := time.Now()
	res, err := s.extract(ctx, userID, fileName, data)
	metrics.IncExtraction(err == nil)
	metrics.ObserveExtractionDurationMs(float64(time.Since(start).Milliseconds()))
	return res, err
}

func (s *Service) extract(ctx context.Context, userID, fileName string, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, ErrEmptyUpload
	}
	if !IsPDF(data) {
		return Result{}, ErrNotPDF
	}

	var uploadKey string
	if s.Store != nil {
		key, _, _, err := s.Store.Save(ctx, userID, fileName, bytes.NewReader(data))
		if err != nil {
			return Result{}, fmt.Errorf("store upload: %w", err)
		}
		uploadKey = key
	}

	text, err := s.textOf(ctx, data)
	if err != nil {
		telemetry.Warn("extraction.text_failed", map[string]any{"err": err, "upload_key": uploadKey})
		text = ""
	}
	if text != "" && uploadKey != "" {
		if err := saveExtracted(ctx, s.Store, uploadKey, text); err != nil {
			telemetry.Warn("extraction.save_text_failed", map[string]any{"err": err, "upload_key": uploadKey})
		}
	}

	var (
		out    llm.Extraction
		method llm.Method
	)
	if len([]rune(strings.TrimSpace(text))) > MinTextChars {
		method = llm.MethodText
		out, err = s.LLM.ExtractFromText(ctx, text)
		if err != nil && !errors.Is(err, llm.ErrUnavailable) && ctx.Err() == nil {
			telemetry.Warn("extraction.text_mode_failed", map[string]any{"err": err, "upload_key": uploadKey})
			method = llm.MethodDocument
			out, err = s.LLM.ExtractFromDocument(ctx, data)
		}
	} else {
		method = llm.MethodDocument
		out, err = s.LLM.ExtractFromDocument(ctx, data)
	}
	if err != nil {
		return Result{}, err
	}

	var rec model.ExtractedRecord
	if err := rec.UnmarshalJSON(out.Raw); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	rec.Metadata = map[string]any{
		"model":      out.Model,
		"method":     string(method),
		"tokensUsed": out.Usage.TotalTokens,
	}

	telemetry.Info("extraction.complete", map[string]any{
		"method":      string(method),
		"model":       out.Model,
		"tokens_used": out.Usage.TotalTokens,
		"rows":        len(rec.Specifications),
		"upload_key":  uploadKey,
	})
	return Result{
		Record:     rec,
		Method:     method,
		Model:      out.Model,
		TokensUsed: out.Usage.TotalTokens,
		UploadKey:  uploadKey,
	}, nil
}
