package render

import (
	"math"

	"coa-backend/coa/assets"
	"coa-backend/coa/layout"
)

var (
	white       = layout.RGB{R: 255, G: 255, B: 255}
	black       = layout.RGB{}
	addressGray = layout.RGB{R: 0x33, G: 0x33, B: 0x33}
)

const (
	logoMaxW         = 150
	logoMaxH         = 80
	customHeaderMaxH = 120
	customHeaderDefH = 80
	addressMaxLines  = 6
	addressMaxChars  = 300
	nameFontSize     = 14
	addressFontSize  = 9
	lineSpacing      = 1.15
)

// drawCustomHeader places full-width header artwork at the top of the first page.
// It replaces the company block entirely. Returns the y below it, or false when
// the writer rejected the artwork and nothing was drawn.
func (c *composition) drawCustomHeader(bg *assets.Asset) (float64, bool) {
	startY := float64(pageMargin)
	maxW := c.pageW - 2*pageMargin

	var w, h float64
	if bg.Measured {
		w, h = assets.FillWidth(float64(bg.Width), float64(bg.Height), maxW, customHeaderMaxH)
	} else {
		h = customHeaderDefH
		w = h * assets.DefaultWidth / assets.DefaultHeight
	}
	x := (c.pageW - w) / 2
	if err := c.canvas.Image("background", bg, x, startY, w, h); err != nil {
		c.degraded("background", err)
		return 0, false
	}
	return startY + h + 15, true
}

// drawBrandHeader draws layout chrome, logo, company name and address.
func (c *composition) drawBrandHeader(logo *assets.Asset) float64 {
	y := c.drawChrome()

	if logo != nil {
		if placed, ok := c.drawLogo(logo, y); ok {
			y += placed + 10
		} else {
			y += 20
		}
	} else {
		y += 20
	}

	contentW := c.pageW - 2*pageMargin
	if name := SingleLine(c.branding.Name); name != "" {
		c.canvas.SetFont("B", nameFontSize)
		c.canvas.SetTextColor(c.palette.Primary)
		c.canvas.Text(pageMargin, y, contentW, c.geometry.TextAlign, Ellipsize(name, contentW, c.canvas.TextWidth))
		y += 20
	}

	if address := Truncate(SanitizeText(c.branding.Address), addressMaxChars); address != "" {
		c.canvas.SetFont("", addressFontSize)
		c.canvas.SetTextColor(addressGray)
		lines := c.canvas.SplitLines(address, contentW)
		if len(lines) > addressMaxLines {
			lines = lines[:addressMaxLines]
		}
		lineH := addressFontSize * lineSpacing
		for i, line := range lines {
			c.canvas.Text(pageMargin, y+float64(i)*lineH, contentW, c.geometry.TextAlign, line)
		}
		y += float64(len(lines))*lineH + 10
	}
	return y
}

func (c *composition) drawChrome() float64 {
	switch c.geometry.HeaderStyle {
	case layout.HeaderBanner:
		c.canvas.SetFillColor(c.palette.Secondary)
		c.canvas.Rect(0, 0, c.pageW, 40, "F")
		return 60
	case layout.HeaderMinimal:
		c.canvas.SetFillColor(c.palette.Secondary)
		c.canvas.Rect(0, 0, c.pageW, 8, "F")
		c.canvas.SetFillColor(c.palette.Primary)
		c.canvas.Rect(0, 8, c.pageW, 3, "F")
		return 30
	default:
		return 30
	}
}

// drawLogo returns the placed height.
func (c *composition) drawLogo(logo *assets.Asset, y float64) (float64, bool) {
	w, h := float64(assets.DefaultWidth), float64(assets.DefaultHeight)
	if logo.Measured {
		w, h = assets.ScaleToFit(float64(logo.Width), float64(logo.Height), logoMaxW, logoMaxH)
		w, h = math.Round(w), math.Round(h)
	}
	x := float64(pageMargin)
	if c.geometry.LogoAlign == layout.AlignCenter {
		x = (c.pageW - w) / 2
	}
	if err := c.canvas.Image("logo", logo, x, y, w, h); err != nil {
		c.degraded("logo", err)
		return 0, false
	}
	return h, true
}
