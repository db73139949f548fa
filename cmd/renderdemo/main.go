package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"coa-backend/coa/assets"
	"coa-backend/coa/model"
	"coa-backend/coa/render"
)

// fixture describes one render: branding and entitlement in YAML, the
// extracted record as the JSON the extraction step would return.
type fixture struct {
	Branding     model.BrandingProfile `yaml:"branding"`
	Paid         bool                  `yaml:"paid"`
	CustomHeader bool                  `yaml:"customHeader"`
	Record       string                `yaml:"record"`
}

func main() {
	in := flag.String("in", "./cmd/renderdemo/testdata/sample.yaml", "fixture describing the certificate")
	outDir := flag.String("out", "./out", "directory for the rendered PDF")
	flag.Parse()

	doc, err := run(context.Background(), *in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render failed: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}
	outPath := filepath.Join(*outDir, doc.FileName)
	if err := os.WriteFile(outPath, doc.Bytes, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OK: wrote %s (%d pages, %d rows)\n", outPath, doc.Pages, doc.Rows)
}

func run(ctx context.Context, path string) (render.Document, error) {
	fx, err := loadFixture(path)
	if err != nil {
		return render.Document{}, err
	}

	var rec model.ExtractedRecord
	if err := rec.UnmarshalJSON([]byte(fx.Record)); err != nil {
		return render.Document{}, fmt.Errorf("decode record: %w", err)
	}

	ent := model.FreeEntitlement
	if fx.Paid {
		ent = model.Entitlement{Watermarked: false, UseCustomHeader: fx.CustomHeader}
	}

	composer := render.NewComposer(assets.NewResolver(5*time.Second), render.ComposerOptions{
		OnDegraded: func(asset string, err error) {
			fmt.Fprintf(os.Stderr, "warning: %s skipped: %v\n", asset, err)
		},
	})
	doc, err := composer.Compose(ctx, rec, fx.Branding, ent)
	if err != nil {
		return render.Document{}, err
	}

	pages, err := render.Validate(doc.Bytes)
	if err != nil {
		return render.Document{}, fmt.Errorf("validate: %w", err)
	}
	if pages != doc.Pages {
		return render.Document{}, fmt.Errorf("page count mismatch: composed %d, parsed %d", doc.Pages, pages)
	}
	return doc, nil
}

func loadFixture(path string) (fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fixture{}, err
	}
	var fx fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	if fx.Record == "" {
		return fixture{}, fmt.Errorf("fixture %s has no record", path)
	}
	return fx, nil
}
