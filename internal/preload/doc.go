// Package preload schedules background renders of composited timeline
// segments so playback never waits on ffmpeg.
//
// A priority queue orders work by urgency relative to the playhead, a
// size-bounded LRU cache holds finished segment files on disk, and an
// in-flight set guarantees at most one render per content hash. Playback
// lookups only consult the cache index and never block on a render.
package preload
