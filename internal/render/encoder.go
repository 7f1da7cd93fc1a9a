package render

import (
	"context"
	"strconv"
	"strings"
)

// Hardware encoders in preference order. The first one ffmpeg reports as
// available wins; libx264 is the universal fallback.
var hardwareEncoders = []string{
	"h264_nvenc",
	"h264_qsv",
	"h264_videotoolbox",
	"h264_vaapi",
}

const softwareEncoder = "libx264"

// selectEncoder resolves the configured encoder policy to a concrete encoder
// name. "auto" probes the ffmpeg build for hardware support, "software" skips
// the probe, and any other value is trusted as-is.
func (r *Renderer) selectEncoder(ctx context.Context) string {
	switch r.cfg.FFmpeg.Encoder {
	case "", "auto":
		return detectEncoder(ctx, r.cfg.FFmpeg.Binary)
	case "software":
		return softwareEncoder
	default:
		return r.cfg.FFmpeg.Encoder
	}
}

func detectEncoder(ctx context.Context, binary string) string {
	output, err := listEncoders(ctx, binary)
	if err != nil {
		return softwareEncoder
	}
	available := string(output)
	for _, candidate := range hardwareEncoders {
		if strings.Contains(available, candidate) {
			return candidate
		}
	}
	return softwareEncoder
}

// encoderArgs returns the codec portion of the ffmpeg command line. Software
// encodes carry quality and thread bounds so a render never saturates the
// machine the editor is running on.
func (r *Renderer) encoderArgs() []string {
	args := []string{"-c:v", r.encoder}
	if r.encoder == softwareEncoder {
		args = append(args,
			"-preset", r.cfg.FFmpeg.SoftwarePreset,
			"-crf", strconv.Itoa(r.cfg.FFmpeg.CRF),
			"-threads", strconv.Itoa(r.cfg.FFmpeg.SoftwareThreads),
		)
	}
	return args
}
