// Package analyzer partitions a timeline into maximal intervals of constant
// video-layer overlap and classifies each as simple (playable directly) or
// complex (requires offline compositing).
//
// Analysis is pure: it performs no I/O, has no failure mode, and always
// produces the same segmentation for the same timeline snapshot.
package analyzer
