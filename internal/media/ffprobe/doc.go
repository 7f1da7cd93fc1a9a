// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The preloader itself never probes media; this package backs the CLI's
// timeline validation, which warns when a clip file is missing a video
// stream or is shorter than its trim window before any render is attempted.
package ffprobe
