package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 26, G: 55, B: 107, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(w, h)); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestDimensionsFromHeaders(t *testing.T) {
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, solidImage(64, 20), nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	var gf bytes.Buffer
	if err := gif.Encode(&gf, solidImage(12, 34), nil); err != nil {
		t.Fatalf("gif encode: %v", err)
	}

	tests := []struct {
		name   string
		data   []byte
		format Format
		w, h   int
	}{
		{name: "png", data: encodePNG(t, 320, 80), format: FormatPNG, w: 320, h: 80},
		{name: "jpeg", data: jpg.Bytes(), format: FormatJPEG, w: 64, h: 20},
		{name: "gif", data: gf.Bytes(), format: FormatGIF, w: 12, h: 34},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectFormat(tc.data); got != tc.format {
				t.Fatalf("expected format %q, got %q", tc.format, got)
			}
			w, h, ok := Dimensions(tc.data)
			if !ok {
				t.Fatalf("expected dimensions")
			}
			if w != tc.w || h != tc.h {
				t.Fatalf("expected %dx%d, got %dx%d", tc.w, tc.h, w, h)
			}
		})
	}
}

func TestDimensionsRejectsGarbage(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("hello"),
		{0x89, 0x50, 0x4E, 0x47, 0x0D},
		{0xFF, 0xD8, 0xFF, 0xDA, 0x00, 0x02},
	}
	for _, data := range cases {
		if _, _, ok := Dimensions(data); ok {
			t.Fatalf("expected no dimensions for %v", data)
		}
	}
}

func TestScaleToFitPreservesAspect(t *testing.T) {
	cases := []struct{ w, h float64 }{
		{w: 1000, h: 200},
		{w: 200, h: 1000},
		{w: 151, h: 80},
		{w: 300, h: 160},
		{w: 4000, h: 3000},
	}
	for _, tc := range cases {
		w, h := ScaleToFit(tc.w, tc.h, 150, 80)
		if w > 150+1e-9 || h > 80+1e-9 {
			t.Fatalf("%vx%v scaled to %vx%v exceeds box", tc.w, tc.h, w, h)
		}
		if math.Abs(w/h-tc.w/tc.h) > 1e-9 {
			t.Fatalf("%vx%v lost aspect ratio: %vx%v", tc.w, tc.h, w, h)
		}
	}

	w, h := ScaleToFit(40, 20, 150, 80)
	if w != 40 || h != 20 {
		t.Fatalf("expected small image untouched, got %vx%v", w, h)
	}
}

func TestFillWidthClampsHeight(t *testing.T) {
	w, h := FillWidth(1000, 100, 495, 120)
	if math.Abs(w-495) > 1e-9 || math.Abs(h-49.5) > 1e-9 {
		t.Fatalf("expected 495x49.5, got %vx%v", w, h)
	}
	w, h = FillWidth(100, 100, 495, 120)
	if h != 120 || w != 120 {
		t.Fatalf("expected 120x120, got %vx%v", w, h)
	}
}

func TestResolveDataURIAndBase64(t *testing.T) {
	raw := encodePNG(t, 40, 10)
	encoded := base64.StdEncoding.EncodeToString(raw)
	r := NewResolver(time.Second)

	for _, ref := range []string{"data:image/png;base64," + encoded, encoded} {
		asset, ok := r.Resolve(context.Background(), ref)
		if !ok {
			t.Fatalf("expected asset for %q", ref[:16])
		}
		if asset.Width != 40 || asset.Height != 10 || !asset.Measured {
			t.Fatalf("unexpected asset %+v", asset)
		}
	}
}

func TestResolveUnknownFormatUsesDefaultBox(t *testing.T) {
	ref := base64.StdEncoding.EncodeToString([]byte("not an image at all"))
	asset, ok := NewResolver(time.Second).Resolve(context.Background(), ref)
	if !ok {
		t.Fatalf("expected asset")
	}
	if asset.Measured || asset.Width != DefaultWidth || asset.Height != DefaultHeight {
		t.Fatalf("expected default box, got %+v", asset)
	}
}

func TestResolveURL(t *testing.T) {
	img := encodePNG(t, 200, 50)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/logo.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(img)
		case "/slow.png":
			time.Sleep(300 * time.Millisecond)
			_, _ = w.Write(img)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var failures []string
	r := NewResolver(100 * time.Millisecond)
	r.OnFailure = func(kind string, err error) {
		failures = append(failures, kind)
	}

	asset, ok := r.Resolve(context.Background(), srv.URL+"/logo.png")
	if !ok || asset.Width != 200 || asset.Height != 50 {
		t.Fatalf("expected fetched logo, got %+v ok=%v", asset, ok)
	}

	if _, ok := r.Resolve(context.Background(), srv.URL+"/missing.png"); ok {
		t.Fatalf("expected 404 to degrade")
	}
	if _, ok := r.Resolve(context.Background(), srv.URL+"/slow.png"); ok {
		t.Fatalf("expected timeout to degrade")
	}
	if len(failures) != 2 || failures[0] != "fetch" {
		t.Fatalf("expected two fetch failures, got %v", failures)
	}
}

func TestResolveRejectsMalformedRefs(t *testing.T) {
	r := NewResolver(time.Second)
	for _, ref := range []string{"", "   ", "data:image/png,notbase64", "data:image/png;base64", "%%%not-base64%%%"} {
		if _, ok := r.Resolve(context.Background(), ref); ok {
			t.Fatalf("expected %q to degrade", ref)
		}
	}
}
