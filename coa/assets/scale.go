package assets

// ScaleToFit returns the largest box with the original aspect ratio that fits inside
// maxW x maxH. Images already inside the box keep their size.
func ScaleToFit(origW, origH, maxW, maxH float64) (float64, float64) {
	if origW <= 0 || origH <= 0 {
		return 0, 0
	}
	w, h := origW, origH
	if w > maxW {
		h = h * maxW / w
		w = maxW
	}
	if h > maxH {
		w = w * maxH / h
		h = maxH
	}
	return w, h
}

// FillWidth scales an image up or down to span maxW, then shrinks it to maxH if
// it would be taller. Used for full-width header artwork.
func FillWidth(origW, origH, maxW, maxH float64) (float64, float64) {
	if origW <= 0 || origH <= 0 {
		return 0, 0
	}
	aspect := origW / origH
	h := maxW / aspect
	if h > maxH {
		h = maxH
	}
	w := h * aspect
	if w > maxW {
		w = maxW
		h = w / aspect
	}
	return w, h
}
