package imaging

import "bytes"

// Format describes an image format detected from file-header magic bytes.
type Format struct {
	Extension string
	MIMEType  string
}

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	gifMagic  = []byte("GIF8")
	bmpMagic  = []byte("BM")
	riffMagic = []byte("RIFF")
	webpMagic = []byte("WEBP")
)

// SniffFormat inspects the leading bytes of data and reports the real
// image format. Client-supplied filenames and extensions are never
// trusted. Unrecognized content falls back to a generic type.
func SniffFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return Format{Extension: "jpg", MIMEType: "image/jpeg"}
	case bytes.HasPrefix(data, pngMagic):
		return Format{Extension: "png", MIMEType: "image/png"}
	case bytes.HasPrefix(data, gifMagic):
		return Format{Extension: "gif", MIMEType: "image/gif"}
	case len(data) >= 12 && bytes.HasPrefix(data, riffMagic) && bytes.Equal(data[8:12], webpMagic):
		return Format{Extension: "webp", MIMEType: "image/webp"}
	case bytes.HasPrefix(data, bmpMagic):
		return Format{Extension: "bmp", MIMEType: "image/bmp"}
	default:
		return Format{Extension: "img", MIMEType: "application/octet-stream"}
	}
}
