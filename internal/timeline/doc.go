// Package timeline defines the read-only project snapshot the preview core
// consumes: tracks, clips, trims, and transforms.
//
// The editing subsystem owns these structures; this package only models them
// and loads the JSON project documents it exports. All times are
// millisecond-precision time.Duration values.
package timeline
