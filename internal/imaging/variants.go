package imaging

import (
	"bytes"
	"image"

	img "github.com/disintegration/imaging"
)

// Variant names a fixed-geometry rendition of an original image. The
// value is the wire name used as a response mapping key; file names use
// the shorter PathSuffix.
type Variant string

const (
	VariantThumbnail Variant = "thumbnail"
	VariantSmall     Variant = "small"
	VariantMedium    Variant = "medium"
)

type tier struct {
	suffix  string
	size    int
	quality int
}

// Fixed target geometry: square center-crops re-encoded as JPEG.
var tiers = map[Variant]tier{
	VariantThumbnail: {suffix: "thumb", size: 128, quality: 85},
	VariantSmall:     {suffix: "small", size: 256, quality: 85},
	VariantMedium:    {suffix: "medium", size: 512, quality: 90},
}

// PathSuffix returns the file-name suffix for v ("thumb" for the
// thumbnail rendition).
func (v Variant) PathSuffix() string {
	return tiers[v].suffix
}

// Variants lists all renditions in ascending size order.
func Variants() []Variant {
	return []Variant{VariantThumbnail, VariantSmall, VariantMedium}
}

type variantProcessor struct{}

func (p *variantProcessor) Available() bool { return true }

// Generate decodes data and produces one JPEG per tier. Any failure
// (corrupt input, unsupported format) yields nil so the caller degrades
// to storing the original untouched.
func (p *variantProcessor) Generate(data []byte) (out map[Variant][]byte) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
		}
	}()

	src, err := img.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	out = make(map[Variant][]byte, len(tiers))
	for name, t := range tiers {
		encoded, err := encodeSquare(src, t)
		if err != nil {
			return nil
		}
		out[name] = encoded
	}
	return out
}

func encodeSquare(src image.Image, t tier) ([]byte, error) {
	// Fill crops to a square aspect around the center before resizing.
	resized := img.Fill(src, t.size, t.size, img.Center, img.Lanczos)
	var buf bytes.Buffer
	if err := img.Encode(&buf, resized, img.JPEG, img.JPEGQuality(t.quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
