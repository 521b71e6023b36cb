package imaging

import (
	"bytes"
	"image"
	"sync"

	img "github.com/disintegration/imaging"
)

// Processor turns original image bytes into fixed-size renditions. Call
// sites never branch on capability availability; the pass-through
// implementation is selected at startup when processing is unavailable.
type Processor interface {
	// Generate returns the rendition set, or nil when processing is not
	// possible. It never returns an error: a nil result means the caller
	// stores the original as-is (degraded mode).
	Generate(data []byte) map[Variant][]byte
	// Available reports whether this processor produces renditions.
	Available() bool
}

var (
	probeOnce sync.Once
	probeOK   bool
)

// minimal 1x1 white JPEG used to exercise the decode/encode path once
var probeImage = func() []byte {
	var buf bytes.Buffer
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if err := img.Encode(&buf, src, img.JPEG); err != nil {
		return nil
	}
	return buf.Bytes()
}()

// Probe reports whether image processing works in this process. The
// first call pays the detection cost; the verdict is memoized for the
// process lifetime. A failed probe is a normal condition, not an error.
func Probe() bool {
	probeOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				probeOK = false
			}
		}()
		if probeImage == nil {
			return
		}
		_, err := img.Decode(bytes.NewReader(probeImage))
		probeOK = err == nil
	})
	return probeOK
}

// NewProcessor selects the processor once at startup: the full
// implementation when the probe succeeds, the pass-through otherwise.
func NewProcessor() Processor {
	if Probe() {
		return &variantProcessor{}
	}
	return PassthroughProcessor{}
}

// PassthroughProcessor is the degraded-mode implementation. It produces
// no renditions and never fails.
type PassthroughProcessor struct{}

func (PassthroughProcessor) Generate(data []byte) map[Variant][]byte { return nil }

func (PassthroughProcessor) Available() bool { return false }
