package render

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"preroll/internal/analyzer"
)

// CacheKey computes the content hash identifying a segment's rendered pixels.
// The digest covers the segment window, the layer count and, per layer, the
// clip file path, trim bounds, track number, and transform fields. Identical
// inputs always produce the same key across process runs; any change produces
// a different key, which is the cache-invalidation contract.
func CacheKey(segment analyzer.Segment) string {
	h := sha256.New()

	writeField(h, "start", ms(segment.Start))
	writeField(h, "duration", ms(segment.Duration))
	writeField(h, "canvas", fmt.Sprintf("%dx%d", segment.CanvasWidth, segment.CanvasHeight))
	writeField(h, "layers", len(segment.Layers))

	for i, layer := range segment.Layers {
		prefix := fmt.Sprintf("layer.%d.", i)
		writeField(h, prefix+"path", layer.Clip.FilePath)
		writeField(h, prefix+"trim_in", ms(layer.Clip.TrimIn))
		writeField(h, prefix+"trim_out", ms(layer.Clip.TrimOut))
		writeField(h, prefix+"clip_start", ms(layer.Clip.Start))
		writeField(h, prefix+"track", layer.TrackNumber)
		if transform := layer.Clip.Transform; transform != nil {
			writeField(h, prefix+"transform",
				fmt.Sprintf("%d:%d:%d:%d:%.4f", transform.X, transform.Y, transform.Width, transform.Height, transform.Opacity))
		}
	}

	return hex.EncodeToString(h.Sum(nil))[:32]
}

func writeField(w io.Writer, name string, value any) {
	fmt.Fprintf(w, "%s=%v\n", name, value)
}

func ms(d time.Duration) int64 {
	return d.Milliseconds()
}
