package assets

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/image/webp"
)

// Format identifies an image container detected from its signature.
type Format string

const (
	FormatUnknown Format = ""
	FormatPNG     Format = "PNG"
	FormatJPEG    Format = "JPG"
	FormatGIF     Format = "GIF"
	FormatWebP    Format = "WEBP"
)

var (
	pngSignature  = []byte{0x89, 0x50, 0x4E, 0x47}
	jpegSignature = []byte{0xFF, 0xD8, 0xFF}
	gifSignature  = []byte("GIF")
)

// DetectFormat inspects the leading bytes of an image.
func DetectFormat(b []byte) Format {
	switch {
	case bytes.HasPrefix(b, pngSignature):
		return FormatPNG
	case bytes.HasPrefix(b, jpegSignature):
		return FormatJPEG
	case bytes.HasPrefix(b, gifSignature):
		return FormatGIF
	case len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WEBP":
		return FormatWebP
	}
	return FormatUnknown
}

// Dimensions reads pixel width and height from the image header without decoding
// pixel data. ok is false when the format is unknown or the header is truncated.
func Dimensions(b []byte) (width, height int, ok bool) {
	switch DetectFormat(b) {
	case FormatPNG:
		return pngDimensions(b)
	case FormatJPEG:
		return jpegDimensions(b)
	case FormatGIF:
		return gifDimensions(b)
	case FormatWebP:
		cfg, err := webp.DecodeConfig(bytes.NewReader(b))
		if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
			return 0, 0, false
		}
		return cfg.Width, cfg.Height, true
	}
	return 0, 0, false
}

// IHDR width and height sit right after the chunk header.
func pngDimensions(b []byte) (int, int, bool) {
	if len(b) < 24 {
		return 0, 0, false
	}
	w := binary.BigEndian.Uint32(b[16:20])
	h := binary.BigEndian.Uint32(b[20:24])
	if w == 0 || h == 0 {
		return 0, 0, false
	}
	return int(w), int(h), true
}

func gifDimensions(b []byte) (int, int, bool) {
	if len(b) < 10 {
		return 0, 0, false
	}
	w := binary.LittleEndian.Uint16(b[6:8])
	h := binary.LittleEndian.Uint16(b[8:10])
	if w == 0 || h == 0 {
		return 0, 0, false
	}
	return int(w), int(h), true
}

// jpegDimensions walks the marker segments until the first start-of-frame.
func jpegDimensions(b []byte) (int, int, bool) {
	offset := 2
	for offset+4 <= len(b) {
		if b[offset] != 0xFF {
			return 0, 0, false
		}
		marker := b[offset+1]
		switch {
		case marker == 0xFF:
			// fill byte
			offset++
			continue
		case marker == 0xD8 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			// standalone markers carry no length
			offset += 2
			continue
		case marker == 0xD9 || marker == 0xDA:
			return 0, 0, false
		}
		segLen := int(binary.BigEndian.Uint16(b[offset+2 : offset+4]))
		if segLen < 2 {
			return 0, 0, false
		}
		if isStartOfFrame(marker) {
			if offset+9 > len(b) {
				return 0, 0, false
			}
			h := binary.BigEndian.Uint16(b[offset+5 : offset+7])
			w := binary.BigEndian.Uint16(b[offset+7 : offset+9])
			if w == 0 || h == 0 {
				return 0, 0, false
			}
			return int(w), int(h), true
		}
		offset += 2 + segLen
	}
	return 0, 0, false
}

// SOF0..SOF15 except DHT (C4), JPG (C8) and DAC (CC).
func isStartOfFrame(marker byte) bool {
	if marker < 0xC0 || marker > 0xCF {
		return false
	}
	return marker != 0xC4 && marker != 0xC8 && marker != 0xCC
}
