package render

// PageCursor is the write position within the document.
type PageCursor struct {
	Y    float64
	Page int
}

// PageFlow owns the vertical cursor of one render. It is not safe for concurrent use;
// every render builds its own.
type PageFlow struct {
	canvas Canvas
	cursor PageCursor
	top    float64
	limit  float64
	breaks int

	onPageStart []func(page int)
	onBreak     func(y float64) float64
}

// NewPageFlow creates a flow whose content starts at top and must end above
// pageHeight - bottomMargin.
func NewPageFlow(canvas Canvas, top, bottomMargin float64) *PageFlow {
	_, h := canvas.PageSize()
	return &PageFlow{
		canvas: canvas,
		top:    top,
		limit:  h - bottomMargin,
	}
}

// OnPageStart registers a hook drawn first on every new page, before any content.
func (f *PageFlow) OnPageStart(fn func(page int)) {
	f.onPageStart = append(f.onPageStart, fn)
}

// OnBreak sets the chrome redrawn at the top of continuation pages. fn draws
// at y and returns the height it used. Passing nil clears it.
func (f *PageFlow) OnBreak(fn func(y float64) float64) {
	f.onBreak = fn
}

// Begin opens the first page. y is where the first block starts; the header
// block uses the page edge rather than the content margin.
func (f *PageFlow) Begin(y float64) {
	f.newPage()
	f.cursor.Y = y
}

// Reserve claims height units and returns the y at which to draw them. When the
// block would cross the bottom threshold the flow moves to a new page first and
// redraws the registered chrome.
func (f *PageFlow) Reserve(height float64) float64 {
	if f.cursor.Page == 0 {
		f.Begin(f.top)
	}
	if !f.fits(height) && f.cursor.Y > f.top {
		f.breakPage()
	}
	y := f.cursor.Y
	f.cursor.Y += height
	return y
}

// KeepTogether breaks the page unless height still fits below the cursor.
func (f *PageFlow) KeepTogether(height float64) {
	if !f.fits(height) && f.cursor.Y > f.top {
		f.breakPage()
	}
}

// Advance moves the cursor down without a break check, for spacing.
func (f *PageFlow) Advance(dy float64) {
	f.cursor.Y += dy
}

// Cursor returns the current position.
func (f *PageFlow) Cursor() PageCursor { return f.cursor }

// Breaks reports how many continuation pages were opened.
func (f *PageFlow) Breaks() int { return f.breaks }

func (f *PageFlow) fits(height float64) bool {
	return f.cursor.Y+height <= f.limit
}

func (f *PageFlow) breakPage() {
	f.breaks++
	f.newPage()
	f.cursor.Y = f.top
	if f.onBreak != nil {
		f.cursor.Y += f.onBreak(f.cursor.Y)
	}
}

func (f *PageFlow) newPage() {
	f.canvas.AddPage()
	f.cursor.Page++
	for _, fn := range f.onPageStart {
		fn(f.cursor.Page)
	}
}
