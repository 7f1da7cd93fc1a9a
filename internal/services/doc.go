// Package services defines the shared error taxonomy used across preroll
// components.
//
// Errors are tagged with sentinel markers (external tool, validation,
// configuration, not found, transient) via Wrap so callers can classify
// failures without string matching. The preloader uses Retryable to decide
// whether a failed render may be re-enqueued.
package services
