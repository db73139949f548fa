package certificates

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"coa-backend/coa/model"
	"coa-backend/coa/render"
	"coa-backend/internal/accounts"
	"coa-backend/internal/profiles"
	"coa-backend/internal/shared/storage/object/local"
)

type testEnv struct {
	svc      *Service
	accounts *accounts.Service
	profiles *profiles.Service
	repo     *MemoryRepo
	storeDir string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	acctSvc := accounts.NewService(accounts.NewMemoryStore(), 2)
	profSvc := profiles.NewService(profiles.NewMemoryRepo())
	repo := NewMemoryRepo()
	composer := render.NewComposer(nil, render.ComposerOptions{
		Now: func() time.Time { return time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC) },
	})
	dir := t.TempDir()
	svc := NewService(repo, local.New(dir), composer, profSvc, acctSvc)
	return testEnv{svc: svc, accounts: acctSvc, profiles: profSvc, repo: repo, storeDir: dir}
}

func sampleRecord() model.ExtractedRecord {
	return model.ExtractedRecord{
		ProductName: "Acetone",
		BatchNo:     "B-42",
		Specifications: []model.Specification{
			{Parameter: "Assay", Specification: model.Str(">=99.5%"), Result: model.Str("99.8%")},
			{Parameter: "Water", Specification: model.Str("<=0.5%"), Result: model.Str("0.1%")},
		},
	}
}

func TestRenderFreeUserIsWatermarkedAndStored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cert, err := env.svc.Render(ctx, "google:1", RenderInput{Record: sampleRecord(), Paid: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !cert.Watermarked || cert.Pages != 1 || cert.Rows != 2 {
		t.Fatalf("unexpected certificate %+v", cert)
	}
	if cert.SizeBytes == 0 || cert.ProductName != "Acetone" {
		t.Fatalf("expected stored bytes and product, got %+v", cert)
	}

	got, body, err := env.svc.Open(ctx, "google:1", cert.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if got.ID != cert.ID || int64(len(data)) != cert.SizeBytes {
		t.Fatalf("stored pdf mismatch: %d bytes vs %d", len(data), cert.SizeBytes)
	}
	if _, err := render.Validate(data); err != nil {
		t.Fatalf("stored pdf invalid: %v", err)
	}
}

func TestRenderSubscriberSpendsCreditOnlyWhenPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.accounts.ActivateSubscription(ctx, "google:2"); err != nil {
		t.Fatalf("activate: %v", err)
	}

	cert, err := env.svc.Render(ctx, "google:2", RenderInput{Record: sampleRecord()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !cert.Watermarked {
		t.Fatalf("expected watermark without paid flag")
	}
	acct, _ := env.accounts.Status(ctx, "google:2")
	if acct.DownloadsRemaining != 2 {
		t.Fatalf("watermarked render must not spend credits, got %d", acct.DownloadsRemaining)
	}

	cert, err = env.svc.Render(ctx, "google:2", RenderInput{Record: sampleRecord(), Paid: true})
	if err != nil {
		t.Fatalf("render paid: %v", err)
	}
	if cert.Watermarked {
		t.Fatalf("expected clean output for subscriber")
	}
	acct, _ = env.accounts.Status(ctx, "google:2")
	if acct.DownloadsRemaining != 1 || acct.DownloadsUsedThisMonth != 1 {
		t.Fatalf("expected one credit spent, got %+v", acct)
	}
}

func TestRenderUsesStoredProfileUnlessOverridden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.profiles.Save(ctx, "google:3", model.BrandingProfile{Name: "Stored Labs"}); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	cert, err := env.svc.Render(ctx, "google:3", RenderInput{Record: sampleRecord()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if cert.FileName != "Stored-Labs_Acetone_B-42_COA.pdf" {
		t.Fatalf("unexpected file name %q", cert.FileName)
	}

	override := model.BrandingProfile{Name: "Other Co"}
	cert, err = env.svc.Render(ctx, "google:3", RenderInput{Record: sampleRecord(), Branding: &override})
	if err != nil {
		t.Fatalf("render override: %v", err)
	}
	if cert.FileName != "Other-Co_Acetone_B-42_COA.pdf" {
		t.Fatalf("unexpected override file name %q", cert.FileName)
	}
}

func TestPreviewNeverChargesOrStores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.accounts.UpgradeToPro(ctx, "google:4"); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	doc, err := env.svc.Preview(ctx, "google:4", RenderInput{Record: sampleRecord(), Paid: true})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !doc.Watermarked || len(doc.Bytes) == 0 {
		t.Fatalf("expected watermarked preview, got %+v", doc.Watermarked)
	}
	certs, _ := env.svc.List(ctx, "google:4", 10, 0)
	if len(certs) != 0 {
		t.Fatalf("preview must not persist, got %d", len(certs))
	}
}

type brokenComposer struct{}

func (brokenComposer) Compose(context.Context, model.ExtractedRecord, model.BrandingProfile, model.Entitlement) (render.Document, error) {
	return render.Document{Bytes: []byte("not a pdf"), Pages: 1}, nil
}

func TestRenderRejectsInvalidPDF(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Composer = brokenComposer{}
	_, err := env.svc.Render(context.Background(), "google:5", RenderInput{Record: sampleRecord()})
	if !errors.Is(err, ErrInvalidPDF) {
		t.Fatalf("expected ErrInvalidPDF, got %v", err)
	}
}

func TestOpenUnknownCertificate(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.svc.Open(context.Background(), "google:1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoClaimGuest(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	_ = repo.Create(ctx, Certificate{ID: "a", UserID: "guest:g"})
	_ = repo.Create(ctx, Certificate{ID: "b", UserID: "guest:g"})

	n, err := repo.ClaimGuest(ctx, "guest:g", "google:9")
	if err != nil || n != 2 {
		t.Fatalf("claim = %d, %v", n, err)
	}
	if _, err := repo.Get(ctx, "google:9", "a"); err != nil {
		t.Fatalf("expected claimed certificate: %v", err)
	}
	if left, _ := repo.ListByUser(ctx, "guest:g", 0, 0); len(left) != 0 {
		t.Fatalf("guest should have no certificates, got %d", len(left))
	}
}

type presigningStore struct {
	*local.Store
	err     error
	gotKey  string
	gotName string
}

func (s *presigningStore) PresignGet(_ context.Context, key, fileName string, _ time.Duration) (string, error) {
	s.gotKey, s.gotName = key, fileName
	if s.err != nil {
		return "", s.err
	}
	return "https://bucket.example/" + key + "?sig=1", nil
}

func TestDownloadLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cert, err := env.svc.Render(ctx, "google:1", RenderInput{Record: sampleRecord()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	link, err := env.svc.DownloadLink(ctx, "google:1", cert.ID)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if link.Direct || link.URL != "/api/v1/certificates/"+cert.ID+"/download" {
		t.Fatalf("expected api fallback for local store, got %+v", link)
	}

	store := &presigningStore{Store: local.New(t.TempDir())}
	env.svc.Store = store
	link, err = env.svc.DownloadLink(ctx, "google:1", cert.ID)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if !link.Direct || link.ExpiresInSeconds != 900 || store.gotKey != cert.StorageKey || store.gotName != cert.FileName {
		t.Fatalf("unexpected presigned link %+v (key %q name %q)", link, store.gotKey, store.gotName)
	}

	store.err = errors.New("signing unavailable")
	link, err = env.svc.DownloadLink(ctx, "google:1", cert.ID)
	if err != nil || link.Direct {
		t.Fatalf("expected fallback on presign failure, got %+v %v", link, err)
	}

	if _, err := env.svc.DownloadLink(ctx, "google:2", cert.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user, got %v", err)
	}
}

// chargeFailingEntitler decides like the real account service but refuses
// to spend, as when a credit was used up by a concurrent download.
type chargeFailingEntitler struct {
	*accounts.Service
	err error
}

func (e chargeFailingEntitler) Charge(context.Context, string, accounts.Source) error {
	return e.err
}

type createFailingRepo struct {
	*MemoryRepo
}

func (createFailingRepo) Create(context.Context, Certificate) error {
	return errors.New("connection reset")
}

func storedPDFs(t *testing.T, dir string) []string {
	t.Helper()
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".pdf") {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk store: %v", err)
	}
	return found
}

func TestRenderFailedChargeLeavesNoCertificate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.accounts.ActivateSubscription(ctx, "google:6"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	env.svc.Entitler = chargeFailingEntitler{Service: env.accounts, err: accounts.ErrNoCredits}

	_, err := env.svc.Render(ctx, "google:6", RenderInput{Record: sampleRecord(), Paid: true})
	if !errors.Is(err, accounts.ErrNoCredits) {
		t.Fatalf("expected ErrNoCredits, got %v", err)
	}
	if certs, _ := env.svc.List(ctx, "google:6", 10, 0); len(certs) != 0 {
		t.Fatalf("failed charge must not leave a certificate row, got %d", len(certs))
	}
	if pdfs := storedPDFs(t, env.storeDir); len(pdfs) != 0 {
		t.Fatalf("failed charge must not leave stored pdfs, got %v", pdfs)
	}
}

func TestRenderPersistFailureKeepsCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.accounts.ActivateSubscription(ctx, "google:7"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	env.svc.Repo = createFailingRepo{MemoryRepo: env.repo}

	if _, err := env.svc.Render(ctx, "google:7", RenderInput{Record: sampleRecord(), Paid: true}); err == nil {
		t.Fatalf("expected persist error")
	}
	acct, err := env.accounts.Status(ctx, "google:7")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if acct.DownloadsRemaining != 2 || acct.DownloadsUsedThisMonth != 0 {
		t.Fatalf("persist failure must not spend a credit, got %+v", acct)
	}
	if pdfs := storedPDFs(t, env.storeDir); len(pdfs) != 0 {
		t.Fatalf("persist failure must not leave stored pdfs, got %v", pdfs)
	}
}

func TestMemoryRepoDelete(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	_ = repo.Create(ctx, Certificate{ID: "a", UserID: "google:1"})
	_ = repo.Create(ctx, Certificate{ID: "b", UserID: "google:1"})

	if err := repo.Delete(ctx, "google:2", "a"); err != nil {
		t.Fatalf("delete for another user: %v", err)
	}
	if err := repo.Delete(ctx, "google:1", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "google:1", "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := repo.Get(ctx, "google:1", "b"); err != nil {
		t.Fatalf("sibling certificate lost: %v", err)
	}
}
