package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "render", "ffmpeg", "segment composite", base)

	if !errors.Is(err, ErrExternalTool) {
		t.Error("wrapped error should match ErrExternalTool")
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should match the underlying error")
	}
	want := "external tool error: render: ffmpeg: segment composite: exit status 1"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "preload", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Error("nil marker should default to ErrTransient")
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrValidation, "", "", "", nil)
	if err.Error() != "validation error: service failure" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{Wrap(ErrExternalTool, "render", "ffmpeg", "", errors.New("boom")), true},
		{Wrap(ErrTransient, "preload", "", "", nil), true},
		{Wrap(ErrValidation, "render", "", "empty segment", nil), false},
		{Wrap(ErrConfiguration, "config", "", "bad cache dir", nil), false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
