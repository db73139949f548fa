package render

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"coa-backend/coa/layout"
	"coa-backend/coa/model"
)

const (
	rowHeight       = 28
	headerRowHeight = 32
	cellPadding     = 10
	rowFontSize     = 8.5
	headerFontSize  = 11
	placeholder     = "-"
)

// Row is one Item/Standard/Result line of the analysis table.
type Row struct {
	Item     string
	Standard string
	Result   string
}

// excludedFallbackKeys are rendered elsewhere or are internal.
var excludedFallbackKeys = map[string]bool{
	"productName":    true,
	"supplier":       true,
	"fullText":       true,
	"specifications": true,
	"additionalInfo": true,
	"_metadata":      true,
}

var placeholderRow = Row{Item: "Product Information", Standard: placeholder, Result: "See above"}

// BuildRows selects the table source: the specification list when present,
// otherwise one pseudo-row per displayable scalar field in record order.
func BuildRows(rec model.ExtractedRecord) []Row {
	if len(rec.Specifications) > 0 {
		rows := make([]Row, 0, len(rec.Specifications))
		for _, spec := range rec.Specifications {
			standard, result := SplitStandardResult(spec)
			rows = append(rows, Row{Item: spec.Parameter, Standard: standard, Result: result})
		}
		return rows
	}

	var rows []Row
	for _, f := range rec.Entries() {
		if excludedFallbackKeys[f.Key] {
			continue
		}
		value, ok := model.ScalarString(f.Value)
		if !ok {
			continue
		}
		rows = append(rows, Row{Item: FormatKey(f.Key), Standard: placeholder, Result: value})
	}
	if len(rows) == 0 {
		rows = append(rows, placeholderRow)
	}
	return rows
}

// SplitStandardResult separates a specification into its standard and result
// columns. An explicit result wins; otherwise a "standard | result" encoded
// specification is split on the pipes.
func SplitStandardResult(spec model.Specification) (string, string) {
	specText := ""
	if spec.Specification != nil {
		specText = *spec.Specification
	}
	if spec.Result != nil && strings.TrimSpace(*spec.Result) != "" {
		return orPlaceholder(specText), orPlaceholder(*spec.Result)
	}

	var parts []string
	for _, p := range strings.Split(specText, "|") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	switch len(parts) {
	case 0:
		return placeholder, placeholder
	case 1:
		return parts[0], placeholder
	case 2:
		return parts[0], parts[1]
	}
	mid := len(parts) / 2
	return strings.Join(parts[:mid], " "), strings.Join(parts[mid:], " ")
}

// FormatKey turns a camelCase or snake_case field key into spaced title case:
// "meltingPoint" becomes "Melting Point". Existing capitals are kept.
func FormatKey(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || r == '-':
			r = ' '
		case i > 0 && unicode.IsUpper(r):
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	spaced := strings.Join(strings.Fields(b.String()), " ")
	// Casers carry state, so each call gets its own.
	return cases.Title(language.Und, cases.NoLower).String(spaced)
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// TableRenderer draws the three-column analysis table through a PageFlow.
type TableRenderer struct {
	canvas   Canvas
	flow     *PageFlow
	geometry layout.Geometry
	palette  layout.Palette

	left   float64
	widths [3]float64
}

// NewTableRenderer lays the table out across the content width starting at left.
func NewTableRenderer(canvas Canvas, flow *PageFlow, geometry layout.Geometry, palette layout.Palette, left, width float64) *TableRenderer {
	return &TableRenderer{
		canvas:   canvas,
		flow:     flow,
		geometry: geometry,
		palette:  palette,
		left:     left,
		widths:   [3]float64{width * 0.35, width * 0.325, width * 0.325},
	}
}

// Render draws the header and every row, repeating the header on each
// continuation page. It returns the number of rows drawn.
func (t *TableRenderer) Render(rows []Row) int {
	t.flow.KeepTogether(headerRowHeight + rowHeight)
	t.drawHeader(t.flow.Reserve(headerRowHeight))
	t.flow.OnBreak(func(y float64) float64 {
		t.drawHeader(y)
		return headerRowHeight
	})
	defer t.flow.OnBreak(nil)

	drawn := 0
	for _, row := range rows {
		y := t.flow.Reserve(rowHeight)
		t.drawRow(y, row)
		drawn++
	}
	return drawn
}

func (t *TableRenderer) drawHeader(y float64) {
	total := t.widths[0] + t.widths[1] + t.widths[2]
	t.canvas.SetLineWidth(t.geometry.TableBorderWidth)
	t.canvas.SetDrawColor(t.palette.Primary)
	if t.geometry.TableHeaderFill == layout.FillOutline {
		t.canvas.Rect(t.left, y, total, headerRowHeight, "D")
		t.canvas.SetTextColor(t.palette.Primary)
	} else {
		t.canvas.SetFillColor(t.palette.Primary)
		t.canvas.Rect(t.left, y, total, headerRowHeight, "FD")
		t.canvas.SetTextColor(white)
	}
	t.canvas.SetFont("B", headerFontSize)
	x := t.left
	for i, label := range [3]string{"Item", "Standard", "Result"} {
		t.canvas.Text(x+cellPadding, y+(headerRowHeight-headerFontSize)/2, t.widths[i]-2*cellPadding, layout.AlignCenter, label)
		x += t.widths[i]
	}
}

// drawRow never aborts the table: a panic while drawing one row only loses that
// row's content, the cursor has already moved past it.
func (t *TableRenderer) drawRow(y float64, row Row) {
	defer func() { _ = recover() }()

	t.canvas.SetLineWidth(t.geometry.TableBorderWidth)
	t.canvas.SetDrawColor(t.palette.Primary)
	x := t.left
	for _, w := range t.widths {
		t.canvas.Rect(x, y, w, rowHeight, "D")
		x += w
	}

	t.canvas.SetFont("", rowFontSize)
	t.canvas.SetTextColor(black)
	cells := [3]string{
		strings.ToUpper(SingleLine(row.Item)),
		SingleLine(row.Standard),
		SingleLine(row.Result),
	}
	aligns := [3]layout.Align{layout.AlignLeft, layout.AlignCenter, layout.AlignCenter}
	textY := y + rowHeight/2 - 4
	x = t.left
	for i, text := range cells {
		if text == "" {
			text = placeholder
		}
		inner := t.widths[i] - 2*cellPadding
		t.canvas.Text(x+cellPadding, textY, inner, aligns[i], Ellipsize(text, inner, t.canvas.TextWidth))
		x += t.widths[i]
	}
}
