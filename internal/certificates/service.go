package certificates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"coa-backend/coa/model"
	"coa-backend/coa/render"
	"coa-backend/internal/accounts"
	"coa-backend/internal/shared/metrics"
	"coa-backend/internal/shared/storage/object"
	"coa-backend/internal/shared/telemetry"
)

// DownloadLinkTTL bounds how long a presigned download link stays valid.
const DownloadLinkTTL = 15 * time.Minute

// ErrInvalidPDF is returned when the composed bytes do not parse as a PDF.
var ErrInvalidPDF = errors.New("rendered certificate failed validation")

// Composer renders a certificate.
type Composer interface {
	Compose(ctx context.Context, rec model.ExtractedRecord, branding model.BrandingProfile, ent model.Entitlement) (render.Document, error)
}

// Brander resolves the branding used for a render.
type Brander interface {
	Branding(ctx context.Context, userID string, override *model.BrandingProfile) (model.BrandingProfile, error)
}

// Entitler decides and charges for clean output.
type Entitler interface {
	Decide(ctx context.Context, userID string, requestPaid bool) (accounts.Decision, error)
	Charge(ctx context.Context, userID string, source accounts.Source) error
}

type Service struct {
	Repo     Repo
	Store    object.ObjectStore
	Composer Composer
	Brander  Brander
	Entitler Entitler

	now      func() time.Time
	validate func([]byte) (int, error)
}

func NewService(repo Repo, store object.ObjectStore, composer Composer, brander Brander, entitler Entitler) *Service {
	return &Service{
		Repo:     repo,
		Store:    store,
		Composer: composer,
		Brander:  brander,
		Entitler: entitler,
		now:      time.Now,
		validate: render.Validate,
	}
}

// Render composes, stores and records a certificate. A credit or paid download
// is spent only when the stored output is unwatermarked.
func (s *Service) Render(ctx context.Context, userID string, in RenderInput) (Certificate, error) {
	metrics.IncRenderStarted()
	start := time.Now()
	cert, err := s.render(ctx, userID, in)
	metrics.ObserveRenderDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.IncRenderFailed()
		return Certificate{}, err
	}
	metrics.IncRenderCompleted()
	return cert, nil
}

func (s *Service) render(ctx context.Context, userID string, in RenderInput) (Certificate, error) {
	branding, err := s.Brander.Branding(ctx, userID, in.Branding)
	if err != nil {
		return Certificate{}, err
	}
	decision, err := s.Entitler.Decide(ctx, userID, in.Paid)
	if err != nil {
		return Certificate{}, err
	}

	doc, pages, err := s.compose(ctx, in.Record, branding, decision.Entitlement)
	if err != nil {
		return Certificate{}, err
	}

	cert := Certificate{
		ID:          uuid.NewString(),
		UserID:      userID,
		FileName:    doc.FileName,
		Pages:       pages,
		Rows:        doc.Rows,
		Watermarked: doc.Watermarked,
		ProductName: in.Record.ProductName,
		CreatedAt:   s.now().UTC(),
	}
	cert.StorageKey = object.RenderedKey(userID, cert.ID)
	size, err := s.Store.SaveWithKey(ctx, cert.StorageKey, "application/pdf", bytes.NewReader(doc.Bytes))
	if err != nil {
		return Certificate{}, fmt.Errorf("store certificate: %w", err)
	}
	cert.SizeBytes = size

	// The row is written before charging so a persist failure never spends a
	// credit; a failed charge rolls the row and object back.
	if err := s.Repo.Create(ctx, cert); err != nil {
		s.discard(cert, false)
		return Certificate{}, fmt.Errorf("persist certificate: %w", err)
	}
	if !doc.Watermarked {
		if err := s.Entitler.Charge(ctx, userID, decision.Source); err != nil {
			s.discard(cert, true)
			return Certificate{}, err
		}
	}

	telemetry.Info("certificate.rendered", map[string]any{
		"certificate_id": cert.ID,
		"user_id":        userID,
		"pages":          cert.Pages,
		"rows":           cert.Rows,
		"watermarked":    cert.Watermarked,
		"source":         string(decision.Source),
		"size_bytes":     cert.SizeBytes,
	})
	return cert, nil
}

// discard removes what a failed render left behind. It runs on a fresh
// context so a canceled request still cleans up.
func (s *Service) discard(cert Certificate, persisted bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if persisted {
		if err := s.Repo.Delete(ctx, cert.UserID, cert.ID); err != nil {
			telemetry.Error("certificate.rollback_failed", map[string]any{"certificate_id": cert.ID, "user_id": cert.UserID, "step": "row", "err": err})
		}
	}
	if err := s.Store.Delete(ctx, cert.StorageKey); err != nil {
		telemetry.Error("certificate.rollback_failed", map[string]any{"certificate_id": cert.ID, "user_id": cert.UserID, "step": "object", "err": err})
	}
}

// Preview renders a watermarked copy without storing or charging.
func (s *Service) Preview(ctx context.Context, userID string, in RenderInput) (render.Document, error) {
	branding, err := s.Brander.Branding(ctx, userID, in.Branding)
	if err != nil {
		return render.Document{}, err
	}
	doc, _, err := s.compose(ctx, in.Record, branding, model.FreeEntitlement)
	return doc, err
}

func (s *Service) compose(ctx context.Context, rec model.ExtractedRecord, branding model.BrandingProfile, ent model.Entitlement) (render.Document, int, error) {
	doc, err := s.Composer.Compose(ctx, rec, branding, ent)
	if err != nil {
		return render.Document{}, 0, err
	}
	pages, err := s.validate(doc.Bytes)
	if err != nil {
		telemetry.Error("certificate.invalid_pdf", map[string]any{"err": err, "pages": doc.Pages})
		return render.Document{}, 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if pages != doc.Pages {
		telemetry.Warn("certificate.page_count_mismatch", map[string]any{"composed": doc.Pages, "parsed": pages})
	}
	return doc, pages, nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Certificate, error) {
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Open returns the certificate's metadata and a reader over its PDF.
func (s *Service) Open(ctx context.Context, userID, id string) (Certificate, io.ReadCloser, error) {
	cert, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return Certificate{}, nil, err
	}
	body, err := s.Store.Open(ctx, cert.StorageKey)
	if errors.Is(err, object.ErrNotFound) {
		return Certificate{}, nil, ErrNotFound
	}
	if err != nil {
		return Certificate{}, nil, err
	}
	return cert, body, nil
}

// DownloadLink is where a client fetches a stored certificate.
type DownloadLink struct {
	URL              string `json:"url"`
	ExpiresInSeconds int64  `json:"expiresInSeconds,omitempty"`
	Direct           bool   `json:"direct"`
}

// DownloadLink presigns a direct link when the store supports it and falls
// back to the API download route otherwise.
func (s *Service) DownloadLink(ctx context.Context, userID, id string) (DownloadLink, error) {
	cert, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return DownloadLink{}, err
	}
	presigner, ok := s.Store.(object.Presigner)
	if !ok {
		return DownloadLink{URL: apiDownloadPath(cert.ID)}, nil
	}
	url, err := presigner.PresignGet(ctx, cert.StorageKey, cert.FileName, DownloadLinkTTL)
	if err != nil {
		telemetry.Warn("certificate.presign_failed", map[string]any{
			"certificate_id": cert.ID,
			"err":            err,
		})
		return DownloadLink{URL: apiDownloadPath(cert.ID)}, nil
	}
	return DownloadLink{URL: url, ExpiresInSeconds: int64(DownloadLinkTTL.Seconds()), Direct: true}, nil
}
