package render

import (
	"context"
	"os/exec"
)

// Hooks below let tests intercept process execution without spawning ffmpeg.
// Production code must not modify them.

var runCommand = func(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.CombinedOutput()
}

// SetRunCommandForTests replaces the process runner and returns a restore
// function.
func SetRunCommandForTests(fn func(ctx context.Context, binary string, args []string) ([]byte, error)) func() {
	previous := runCommand
	runCommand = fn
	return func() { runCommand = previous }
}

var listEncoders = func(ctx context.Context, binary string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders")
	return cmd.Output()
}

// SetListEncodersForTests replaces the encoder probe and returns a restore
// function.
func SetListEncodersForTests(fn func(ctx context.Context, binary string) ([]byte, error)) func() {
	previous := listEncoders
	listEncoders = fn
	return func() { listEncoders = previous }
}
