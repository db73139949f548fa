package render

import "coa-backend/coa/layout"

const (
	DefaultWatermarkText = "COA Processor - Free Version"

	watermarkOpacity  = 0.25
	watermarkFontSize = 24
	watermarkBoxWidth = 300
	watermarkAngle    = 45
)

var watermarkColor = layout.RGB{R: 0x99, G: 0x99, B: 0x99}

// watermarkAnchors are fractions of the page size along the diagonal.
var watermarkAnchors = [3]float64{0.3, 0.5, 0.7}

// stampWatermark draws the diagonal watermark on the current page. It runs
// before any other content of the page so everything else sits on top.
func stampWatermark(canvas Canvas, text string) {
	w, h := canvas.PageSize()
	canvas.SetAlpha(watermarkOpacity)
	canvas.SetTextColor(watermarkColor)
	canvas.SetFont("B", watermarkFontSize)
	for _, f := range watermarkAnchors {
		x, y := w*f, h*f
		canvas.Rotate(watermarkAngle, x, y, func() {
			canvas.Text(x-watermarkBoxWidth/2, y-watermarkFontSize/2, watermarkBoxWidth, layout.AlignCenter, text)
		})
	}
	canvas.SetAlpha(1)
}
