package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/image/webp"
)

const (
	DefaultFetchTimeout = 5 * time.Second
	MaxAssetBytes       = 8 << 20

	// DefaultWidth and DefaultHeight are used when an image header cannot be read.
	DefaultWidth  = 100
	DefaultHeight = 70
)

// Asset is a decoded image ready for placement.
type Asset struct {
	Bytes  []byte
	Format Format
	Width  int
	Height int
	// Measured is false when Width/Height are the default box rather than header values.
	Measured bool
}

// Resolver turns logo and background references into image bytes.
type Resolver struct {
	httpClient *http.Client
	maxBytes   int64

	// OnFailure, when set, is told why a reference degraded to no asset.
	OnFailure func(kind string, err error)
}

// NewResolver constructs a Resolver whose URL fetches are bounded by timeout.
func NewResolver(timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Resolver{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   MaxAssetBytes,
	}
}

// NewResolverWithClient uses a caller-supplied HTTP client, mainly for tests.
func NewResolverWithClient(client *http.Client) *Resolver {
	return &Resolver{httpClient: client, maxBytes: MaxAssetBytes}
}

// Resolve accepts an http(s) URL, a base64 data URI or bare base64. Any failure
// yields (nil, false); callers render without the image.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*Asset, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, false
	}
	var (
		data []byte
		err  error
		kind string
	)
	switch {
	case isURL(ref):
		kind = "fetch"
		data, err = r.fetch(ctx, ref)
	case strings.HasPrefix(ref, "data:"):
		kind = "data_uri"
		data, err = decodeDataURI(ref)
	default:
		kind = "base64"
		data, err = decodeBase64(ref)
	}
	if err == nil && len(data) == 0 {
		err = fmt.Errorf("empty image")
	}
	if err != nil {
		r.fail(kind, err)
		return nil, false
	}
	return r.fromBytes(data), true
}

func (r *Resolver) fromBytes(data []byte) *Asset {
	asset := &Asset{Bytes: data, Format: DetectFormat(data)}
	if asset.Format == FormatWebP {
		if converted, err := transcodeWebP(data); err == nil {
			asset.Bytes = converted
			asset.Format = FormatPNG
		} else {
			r.fail("transcode", err)
		}
	}
	if w, h, ok := Dimensions(asset.Bytes); ok {
		asset.Width, asset.Height, asset.Measured = w, h, true
	} else {
		asset.Width, asset.Height = DefaultWidth, DefaultHeight
	}
	return asset
}

func (r *Resolver) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	limited := io.LimitReader(resp.Body, r.maxBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("fetch %s: image exceeds %d bytes", url, r.maxBytes)
	}
	return data, nil
}

func (r *Resolver) fail(kind string, err error) {
	if r.OnFailure != nil {
		r.OnFailure(kind, err)
	}
}

func isURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func decodeDataURI(ref string) ([]byte, error) {
	comma := strings.IndexByte(ref, ',')
	if comma < 0 {
		return nil, fmt.Errorf("data uri: missing payload")
	}
	header := ref[len("data:"):comma]
	if !strings.HasSuffix(strings.ToLower(header), ";base64") {
		return nil, fmt.Errorf("data uri: only base64 payloads are supported")
	}
	return decodeBase64(ref[comma+1:])
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// PDF writers embed PNG/JPEG/GIF only.
func transcodeWebP(data []byte) ([]byte, error) {
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
