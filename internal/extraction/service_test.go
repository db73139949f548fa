package extraction

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"coa-backend/internal/llm"
	"coa-backend/internal/shared/storage/object/local"
)

type fakeExtractor struct {
	textCalls int
	docCalls  int
	textErr   error
	raw       string
}

func (f *fakeExtractor) ExtractFromText(context.Context, string) (llm.Extraction, error) {
	f.textCalls++
	if f.textErr != nil {
		return llm.Extraction{}, f.textErr
	}
	return llm.Extraction{Raw: []byte(f.raw), Model: "m-text", Usage: llm.Usage{TotalTokens: 12}}, nil
}

func (f *fakeExtractor) ExtractFromDocument(context.Context, []byte) (llm.Extraction, error) {
	f.docCalls++
	return llm.Extraction{Raw: []byte(f.raw), Model: "m-doc", Usage: llm.Usage{TotalTokens: 40}}, nil
}

var samplePDF = []byte("%PDF-1.4\n% sample\n")

func newTestService(t *testing.T, ex llm.Extractor, text string) *Service {
	t.Helper()
	svc := NewService(local.New(t.TempDir()), ex)
	svc.textOf = func(context.Context, []byte) (string, error) { return text, nil }
	return svc
}

func TestExtractUsesTextModeForTextPDFs(t *testing.T) {
	ex := &fakeExtractor{raw: `{"productName":"Acetone","specifications":[{"parameter":"Assay","specification":">=99%","result":"99.6%"}]}`}
	svc := newTestService(t, ex, strings.Repeat("Certificate of Analysis ", 10))

	res, err := svc.Extract(context.Background(), "user-1", "acetone.pdf", samplePDF)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Method != llm.MethodText || ex.textCalls != 1 || ex.docCalls != 0 {
		t.Fatalf("expected text mode, got %s (text=%d doc=%d)", res.Method, ex.textCalls, ex.docCalls)
	}
	if res.Record.ProductName != "Acetone" || len(res.Record.Specifications) != 1 {
		t.Fatalf("unexpected record %+v", res.Record)
	}
	if res.Record.Metadata["method"] != "text" || res.Record.Metadata["tokensUsed"] != 12 {
		t.Fatalf("unexpected metadata %v", res.Record.Metadata)
	}

	rc, err := svc.Store.Open(context.Background(), res.UploadKey+".extracted.txt")
	if err != nil {
		t.Fatalf("expected extracted text copy: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if !strings.HasPrefix(string(body), "Certificate of Analysis") {
		t.Fatalf("unexpected extracted text %q", body)
	}
}

func TestExtractShortTextUsesDocumentMode(t *testing.T) {
	ex := &fakeExtractor{raw: `{"batchNo":"B-1"}`}
	svc := newTestService(t, ex, "scan")

	res, err := svc.Extract(context.Background(), "user-1", "scan.pdf", samplePDF)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Method != llm.MethodDocument || ex.textCalls != 0 || res.Model != "m-doc" {
		t.Fatalf("expected document mode, got %+v", res)
	}
}

func TestExtractFallsBackWhenTextModeFails(t *testing.T) {
	ex := &fakeExtractor{raw: `{"batchNo":"B-1"}`, textErr: errors.New("bad json")}
	svc := newTestService(t, ex, strings.Repeat("x", MinTextChars+1))

	res, err := svc.Extract(context.Background(), "user-1", "a.pdf", samplePDF)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Method != llm.MethodDocument || ex.textCalls != 1 || ex.docCalls != 1 {
		t.Fatalf("expected fallback to document mode, got %+v", res)
	}
}

func TestExtractRejectsNonPDF(t *testing.T) {
	svc := newTestService(t, &fakeExtractor{}, "")
	if _, err := svc.Extract(context.Background(), "u", "a.png", []byte("\x89PNG")); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
	if _, err := svc.Extract(context.Background(), "u", "a.pdf", nil); !errors.Is(err, ErrEmptyUpload) {
		t.Fatalf("expected ErrEmptyUpload, got %v", err)
	}
}

func TestExtractUnavailableWithoutProvider(t *testing.T) {
	svc := newTestService(t, nil, strings.Repeat("x", 200))
	if _, err := svc.Extract(context.Background(), "u", "a.pdf", samplePDF); !errors.Is(err, llm.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestExtractRejectsNonObjectResponse(t *testing.T) {
	svc := newTestService(t, &fakeExtractor{raw: `[1]`}, "")
	if _, err := svc.Extract(context.Background(), "u", "a.pdf", samplePDF); !errors.Is(err, ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
}

func TestTextFromPDFRejectsGarbage(t *testing.T) {
	if _, err := TextFromPDF(context.Background(), []byte("hello")); err == nil {
		t.Fatalf("expected error for non-pdf input")
	}
	if !IsPDF([]byte("\n%PDF-1.7")) {
		t.Fatalf("expected leading whitespace to be tolerated")
	}
}
