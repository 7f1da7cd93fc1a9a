// Package daemon coordinates the long-running preroll process.
//
// It wires configuration, the segment renderer, and the preloader into a
// single lifecycle with flock-based locking so only one process manages a
// given cache directory at a time.
package daemon
