package render

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"coa-backend/coa/assets"
	"coa-backend/coa/layout"
)

// op is one drawing call captured by recordingCanvas.
type op struct {
	Kind  string
	Page  int
	X, Y  float64
	W, H  float64
	Text  string
	Align layout.Align
	Style string
	Angle float64
	Alpha float64
	Size  float64
	Color layout.RGB
}

// recordingCanvas implements Canvas by remembering what was drawn. Text width
// is approximated as half the font size per character.
type recordingCanvas struct {
	page     int
	fontSize float64
	textRGB  layout.RGB
	ops      []op
	failImg  bool
	// rejectImage fails only the named image, like fpdf refusing an
	// unknown format.
	rejectImage string
	failOut     error
}

func newRecordingCanvas() *recordingCanvas {
	return &recordingCanvas{fontSize: 12}
}

func (r *recordingCanvas) factory() func(time.Time, string) Canvas {
	return func(time.Time, string) Canvas { return r }
}

func (r *recordingCanvas) PageSize() (float64, float64) { return 595.28, 841.89 }
func (r *recordingCanvas) AddPage() {
	r.page++
	r.ops = append(r.ops, op{Kind: "page", Page: r.page})
}
func (r *recordingCanvas) PageNo() int { return r.page }
func (r *recordingCanvas) SetFont(style string, size float64) {
	r.fontSize = size
}
func (r *recordingCanvas) SetTextColor(c layout.RGB) { r.textRGB = c }
func (r *recordingCanvas) SetFillColor(layout.RGB)   {}
func (r *recordingCanvas) SetDrawColor(layout.RGB)   {}
func (r *recordingCanvas) SetLineWidth(float64)      {}
func (r *recordingCanvas) SetAlpha(alpha float64) {
	r.ops = append(r.ops, op{Kind: "alpha", Page: r.page, Alpha: alpha})
}
func (r *recordingCanvas) Rect(x, y, w, h float64, style string) {
	r.ops = append(r.ops, op{Kind: "rect", Page: r.page, X: x, Y: y, W: w, H: h, Style: style})
}
func (r *recordingCanvas) Text(x, y, w float64, align layout.Align, s string) {
	r.ops = append(r.ops, op{Kind: "text", Page: r.page, X: x, Y: y, W: w, Align: align, Text: s, Size: r.fontSize, Color: r.textRGB})
}
func (r *recordingCanvas) TextWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * r.fontSize / 2
}
func (r *recordingCanvas) SplitLines(s string, w float64) []string {
	return splitLines(s, w, r.TextWidth)
}
func (r *recordingCanvas) Rotate(angle, x, y float64, fn func()) {
	r.ops = append(r.ops, op{Kind: "rotate", Page: r.page, X: x, Y: y, Angle: angle})
	fn()
}
func (r *recordingCanvas) Image(name string, a *assets.Asset, x, y, w, h float64) error {
	if r.failImg || name == r.rejectImage {
		return fmt.Errorf("image %s rejected", name)
	}
	r.ops = append(r.ops, op{Kind: "image", Page: r.page, Text: name, X: x, Y: y, W: w, H: h})
	return nil
}
func (r *recordingCanvas) Output(w io.Writer) error {
	if r.failOut != nil {
		return r.failOut
	}
	for _, o := range r.ops {
		if _, err := fmt.Fprintf(w, "%+v\n", o); err != nil {
			return err
		}
	}
	return nil
}

func (r *recordingCanvas) texts() []op {
	var out []op
	for _, o := range r.ops {
		if o.Kind == "text" {
			out = append(out, o)
		}
	}
	return out
}

func (r *recordingCanvas) hasText(s string) bool {
	for _, o := range r.texts() {
		if o.Text == s {
			return true
		}
	}
	return false
}

func (r *recordingCanvas) containsText(s string) bool {
	for _, o := range r.texts() {
		if strings.Contains(o.Text, s) {
			return true
		}
	}
	return false
}

func (r *recordingCanvas) countText(s string) int {
	n := 0
	for _, o := range r.texts() {
		if o.Text == s {
			n++
		}
	}
	return n
}

func (r *recordingCanvas) images(name string) []op {
	var out []op
	for _, o := range r.ops {
		if o.Kind == "image" && o.Text == name {
			out = append(out, o)
		}
	}
	return out
}
