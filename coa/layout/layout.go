package layout

import "strings"

type HeaderStyle string

const (
	HeaderBanner  HeaderStyle = "banner"
	HeaderMinimal HeaderStyle = "minimal"
	HeaderNone    HeaderStyle = "none"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
)

type HeaderFill string

const (
	FillFilled  HeaderFill = "filled"
	FillOutline HeaderFill = "outline"
)

const (
	Classic = "classic"
	Modern  = "modern"
	Minimal = "minimal"
)

// Geometry holds the style directives a layout id maps to.
type Geometry struct {
	ID               string
	HeaderStyle      HeaderStyle
	LogoAlign        Align
	TextAlign        Align
	TableBorderWidth float64
	TableHeaderFill  HeaderFill
}

var geometries = map[string]Geometry{
	Classic: {
		ID:               Classic,
		HeaderStyle:      HeaderBanner,
		LogoAlign:        AlignCenter,
		TextAlign:        AlignCenter,
		TableBorderWidth: 2,
		TableHeaderFill:  FillFilled,
	},
	Modern: {
		ID:               Modern,
		HeaderStyle:      HeaderMinimal,
		LogoAlign:        AlignLeft,
		TextAlign:        AlignLeft,
		TableBorderWidth: 1,
		TableHeaderFill:  FillFilled,
	},
	Minimal: {
		ID:               Minimal,
		HeaderStyle:      HeaderNone,
		LogoAlign:        AlignCenter,
		TextAlign:        AlignCenter,
		TableBorderWidth: 0.5,
		TableHeaderFill:  FillOutline,
	},
}

// Resolve maps a layout id to its geometry. Unknown ids fall back to classic.
func Resolve(layoutID string) Geometry {
	if g, ok := geometries[strings.ToLower(strings.TrimSpace(layoutID))]; ok {
		return g
	}
	return geometries[Classic]
}

// Known reports whether layoutID names one of the fixed layouts.
func Known(layoutID string) bool {
	_, ok := geometries[strings.ToLower(strings.TrimSpace(layoutID))]
	return ok
}
