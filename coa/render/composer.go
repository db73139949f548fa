package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"coa-backend/coa/assets"
	"coa-backend/coa/layout"
	"coa-backend/coa/model"
)

const (
	pageMargin   = 50
	bottomMargin = 60
	documentName = "Certificate of Analysis"

	infoMaxChars     = 25
	supplierMaxChars = 70
)

// Document is a finished certificate.
type Document struct {
	Bytes        []byte
	FileName     string
	Pages        int
	Rows         int
	Watermarked  bool
	CustomHeader bool
}

// ComposerOptions configures a Composer. Zero values pick the defaults.
type ComposerOptions struct {
	WatermarkText string
	Now           func() time.Time
	NewCanvas     func(created time.Time, title string) Canvas
	// OnDegraded is told when an asset could not be placed.
	OnDegraded func(asset string, err error)
}

// Composer renders certificates. It holds no per-render state and may be
// shared across goroutines.
type Composer struct {
	resolver      *assets.Resolver
	watermarkText string
	now           func() time.Time
	newCanvas     func(time.Time, string) Canvas
	onDegraded    func(string, error)
}

// NewComposer wires the asset resolver and options.
func NewComposer(resolver *assets.Resolver, opts ComposerOptions) *Composer {
	c := &Composer{
		resolver:      resolver,
		watermarkText: strings.TrimSpace(opts.WatermarkText),
		now:           opts.Now,
		newCanvas:     opts.NewCanvas,
		onDegraded:    opts.OnDegraded,
	}
	if c.resolver == nil {
		c.resolver = assets.NewResolver(assets.DefaultFetchTimeout)
	}
	if c.watermarkText == "" {
		c.watermarkText = DefaultWatermarkText
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newCanvas == nil {
		c.newCanvas = NewPDFCanvas
	}
	return c
}

// composition is the state of a single render.
type composition struct {
	canvas   Canvas
	flow     *PageFlow
	geometry layout.Geometry
	palette  layout.Palette
	branding model.BrandingProfile
	pageW    float64

	onDegraded func(string, error)
}

func (c *composition) degraded(asset string, err error) {
	if c.onDegraded != nil {
		c.onDegraded(asset, err)
	}
}

type prefetched struct {
	logo       *assets.Asset
	background *assets.Asset
}

// Compose renders the certificate. Missing fields and unusable assets degrade to
// placeholders; only a failure to produce the output bytes is returned.
func (c *Composer) Compose(ctx context.Context, rec model.ExtractedRecord, branding model.BrandingProfile, ent model.Entitlement) (Document, error) {
	art := c.prefetch(ctx, branding, ent)
	now := c.now()

	canvas := c.newCanvas(now, documentName)
	pageW, _ := canvas.PageSize()
	comp := &composition{
		canvas:     canvas,
		flow:       NewPageFlow(canvas, pageMargin, bottomMargin),
		geometry:   layout.Resolve(branding.Layout),
		palette:    layout.ResolveTheme(branding.Theme),
		branding:   branding,
		pageW:      pageW,
		onDegraded: c.onDegraded,
	}
	if ent.Watermarked {
		text := c.watermarkText
		comp.flow.OnPageStart(func(int) { stampWatermark(canvas, text) })
	}
	comp.flow.Begin(0)

	doc := Document{Watermarked: ent.Watermarked}
	var y float64
	if ent.UseCustomHeader && art.background != nil {
		y, doc.CustomHeader = comp.drawCustomHeader(art.background)
	}
	if !doc.CustomHeader {
		y = comp.drawBrandHeader(art.logo)
	}
	comp.flow.Advance(y - comp.flow.Cursor().Y)

	comp.drawTitleBlock(rec)

	rows := BuildRows(rec)
	table := NewTableRenderer(canvas, comp.flow, comp.geometry, comp.palette, pageMargin, pageW-2*pageMargin)
	doc.Rows = table.Render(rows)

	// The document ends with the table: no footer, so no trailing page.
	var buf bytes.Buffer
	if err := canvas.Output(&buf); err != nil {
		return Document{}, fmt.Errorf("write certificate: %w", err)
	}
	doc.Bytes = buf.Bytes()
	doc.Pages = comp.flow.Cursor().Page
	doc.FileName = FileName(rec, branding, now)
	return doc, nil
}

// prefetch resolves logo and background concurrently before drawing starts.
func (c *Composer) prefetch(ctx context.Context, branding model.BrandingProfile, ent model.Entitlement) prefetched {
	var out prefetched
	g, gctx := errgroup.WithContext(ctx)
	if ref := strings.TrimSpace(branding.Logo); ref != "" {
		g.Go(func() error {
			if a, ok := c.resolver.Resolve(gctx, ref); ok {
				out.logo = a
			}
			return nil
		})
	}
	if ref := strings.TrimSpace(branding.CustomBackground); ent.UseCustomHeader && ref != "" {
		g.Go(func() error {
			if a, ok := c.resolver.Resolve(gctx, ref); ok {
				out.background = a
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *composition) drawTitleBlock(rec model.ExtractedRecord) {
	contentW := c.pageW - 2*pageMargin
	align := c.geometry.TextAlign

	c.flow.Advance(10)
	y := c.flow.Reserve(30)
	c.canvas.SetFont("B", 20)
	c.canvas.SetTextColor(c.palette.Primary)
	c.canvas.Text(pageMargin, y, contentW, align, documentName)

	product := SingleLine(rec.ProductName)
	if product == "" {
		product = "Product Name Not Found"
	}
	line := "Product Name: " + product
	y = c.flow.Reserve(20)
	c.canvas.SetFont("B", 12)
	c.canvas.Text(pageMargin, y, contentW, align, Ellipsize(line, contentW, c.canvas.TextWidth))

	c.canvas.SetFont("", 8)
	c.canvas.SetTextColor(black)
	var info []string
	lot := SingleLine(rec.LotNo)
	if lot != "" {
		info = append(info, "LOT NO: "+Truncate(lot, infoMaxChars))
	}
	if batch := SingleLine(rec.BatchNo); batch != "" && lot == "" {
		info = append(info, "BATCH NO: "+Truncate(batch, infoMaxChars))
	}
	if date := SingleLine(rec.Date); date != "" {
		info = append(info, "DATE: "+Truncate(date, infoMaxChars))
	}
	if len(info) > 0 {
		y = c.flow.Reserve(12)
		c.canvas.Text(pageMargin, y, contentW, layout.AlignCenter, strings.Join(info, "  |  "))
	}

	if supplier := SingleLine(rec.Supplier); supplier != "" {
		c.canvas.SetFont("", 7.5)
		y = c.flow.Reserve(10)
		c.canvas.Text(pageMargin, y, contentW, layout.AlignCenter, "Supplier: "+Truncate(supplier, supplierMaxChars))
	}
	c.flow.Advance(5)
}
