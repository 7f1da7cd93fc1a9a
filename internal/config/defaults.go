package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultLogDir               = "~/.local/share/preroll/logs"
	defaultLookaheadMillis      = 500
	defaultMaxCacheMiB          = 1024
	defaultRenderCooldownMillis = 100
	defaultPollIntervalMillis   = 50
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultEncoder              = "auto"
	defaultSoftwareThreads      = 2
	defaultSoftwarePreset       = "veryfast"
	defaultCRF                  = 23
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
		},
		Preload: Preload{
			LookaheadMillis:     defaultLookaheadMillis,
			MaxCacheMiB:         defaultMaxCacheMiB,
			RenderCooldownMilli: defaultRenderCooldownMillis,
			PollIntervalMillis:  defaultPollIntervalMillis,
		},
		FFmpeg: FFmpeg{
			Binary:          defaultFFmpegBinary,
			FFprobeBinary:   defaultFFprobeBinary,
			Encoder:         defaultEncoder,
			SoftwareThreads: defaultSoftwareThreads,
			SoftwarePreset:  defaultSoftwarePreset,
			CRF:             defaultCRF,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "preroll", "segments")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/preroll/segments"
	}
	return filepath.Join(home, ".cache", "preroll", "segments")
}
