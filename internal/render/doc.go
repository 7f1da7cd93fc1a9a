// Package render turns analyzed timeline segments into cached MP4 files.
//
// Each segment is identified by a deterministic content hash over everything
// that affects its pixels, so renders are idempotent and cache files never go
// stale silently. Compositing runs through an external ffmpeg process: the
// package builds a filter_complex program for the segment's layer stack,
// selects a hardware encoder when the local ffmpeg build has one, and falls
// back to bounded libx264 otherwise.
package render
