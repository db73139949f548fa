package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"coa-backend/coa/assets"
	"coa-backend/coa/layout"
)

// Canvas is the drawing surface the composer lays out on. Coordinates are points
// from the top-left corner of the current page. Text passed in is already sanitized.
type Canvas interface {
	PageSize() (w, h float64)
	AddPage()
	PageNo() int

	SetFont(style string, size float64)
	SetTextColor(c layout.RGB)
	SetFillColor(c layout.RGB)
	SetDrawColor(c layout.RGB)
	SetLineWidth(w float64)
	SetAlpha(alpha float64)

	// Rect draws with style "D" (stroke), "F" (fill) or "FD".
	Rect(x, y, w, h float64, style string)
	// Text draws a single line with its top edge at y inside a box of width w.
	Text(x, y, w float64, align layout.Align, s string)
	TextWidth(s string) float64
	SplitLines(s string, w float64) []string

	// Rotate draws fn rotated counter-clockwise by angle degrees around (x, y).
	Rotate(angle, x, y float64, fn func())
	// Image places a registered asset; a failure leaves the page untouched.
	Image(name string, a *assets.Asset, x, y, w, h float64) error

	Output(w io.Writer) error
}

const fontFamily = "Helvetica"

// fpdfCanvas draws onto an A4 portrait document in points.
type fpdfCanvas struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
	fontSize  float64
}

// NewPDFCanvas returns an A4 canvas. created is stamped as the creation and
// modification date so identical input gives identical bytes.
func NewPDFCanvas(created time.Time, title string) Canvas {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(true)
	pdf.SetCreator("coa-backend", true)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	c := &fpdfCanvas{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
		fontSize:  12,
	}
	pdf.SetFont(fontFamily, "", c.fontSize)
	return c
}

func (c *fpdfCanvas) PageSize() (float64, float64) {
	w, h := c.pdf.GetPageSize()
	return w, h
}

func (c *fpdfCanvas) AddPage() { c.pdf.AddPage() }

func (c *fpdfCanvas) PageNo() int { return c.pdf.PageNo() }

func (c *fpdfCanvas) SetFont(style string, size float64) {
	c.fontSize = size
	c.pdf.SetFont(fontFamily, style, size)
}

func (c *fpdfCanvas) SetTextColor(rgb layout.RGB) { c.pdf.SetTextColor(rgb.R, rgb.G, rgb.B) }
func (c *fpdfCanvas) SetFillColor(rgb layout.RGB) { c.pdf.SetFillColor(rgb.R, rgb.G, rgb.B) }
func (c *fpdfCanvas) SetDrawColor(rgb layout.RGB) { c.pdf.SetDrawColor(rgb.R, rgb.G, rgb.B) }
func (c *fpdfCanvas) SetLineWidth(w float64)      { c.pdf.SetLineWidth(w) }
func (c *fpdfCanvas) SetAlpha(alpha float64)      { c.pdf.SetAlpha(alpha, "Normal") }

func (c *fpdfCanvas) Rect(x, y, w, h float64, style string) {
	c.pdf.Rect(x, y, w, h, style)
}

func (c *fpdfCanvas) Text(x, y, w float64, align layout.Align, s string) {
	alignStr := "LT"
	if align == layout.AlignCenter {
		alignStr = "CT"
	}
	c.pdf.SetXY(x, y)
	c.pdf.CellFormat(w, c.fontSize, c.translate(s), "", 0, alignStr, false, 0, "")
}

func (c *fpdfCanvas) TextWidth(s string) float64 {
	return c.pdf.GetStringWidth(c.translate(s))
}

func (c *fpdfCanvas) SplitLines(s string, w float64) []string {
	return splitLines(s, w, c.TextWidth)
}

func (c *fpdfCanvas) Rotate(angle, x, y float64, fn func()) {
	c.pdf.TransformBegin()
	c.pdf.TransformRotate(angle, x, y)
	fn()
	c.pdf.TransformEnd()
}

func (c *fpdfCanvas) Image(name string, a *assets.Asset, x, y, w, h float64) error {
	if a == nil {
		return fmt.Errorf("image %s: no asset", name)
	}
	switch a.Format {
	case assets.FormatPNG, assets.FormatJPEG, assets.FormatGIF:
	default:
		return fmt.Errorf("image %s: unsupported format %q", name, a.Format)
	}
	opts := fpdf.ImageOptions{ImageType: string(a.Format)}
	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(a.Bytes))
	if c.pdf.Err() {
		// fpdf errors are sticky; a broken image must not poison the document.
		err := c.pdf.Error()
		c.pdf.ClearError()
		return fmt.Errorf("image %s: %w", name, err)
	}
	c.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return nil
}

func (c *fpdfCanvas) Output(w io.Writer) error {
	if c.pdf.Err() {
		return c.pdf.Error()
	}
	return c.pdf.Output(w)
}

// splitLines wraps s on spaces so each line measures at most w. Explicit newlines
// always break. A single word wider than w gets its own line.
func splitLines(s string, w float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			candidate := line + " " + word
			if measure(candidate) <= w {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = word
		}
		lines = append(lines, line)
	}
	return lines
}
