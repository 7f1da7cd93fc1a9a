package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"preroll/internal/config"
	"preroll/internal/logging"
	"preroll/internal/services"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.CacheDir = t.TempDir()
	cfg.FFmpeg.Encoder = "software"
	return NewRenderer(&cfg, logging.NewNop())
}

func TestBuildCommandGrammar(t *testing.T) {
	r := newTestRenderer(t)
	seg := sampleSegment()
	out := r.OutputPath(CacheKey(seg))

	args, err := r.BuildCommand(context.Background(), seg, out)
	if err != nil {
		t.Fatal(err)
	}

	wantPrefix := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", "2.000", "-t", "2.000", "-i", "/media/a.mp4",
		"-t", "2.000", "-i", "/media/b.mp4",
	}
	if got := args[:len(wantPrefix)]; !reflect.DeepEqual(got, wantPrefix) {
		t.Errorf("input arguments = %v, want %v", got, wantPrefix)
	}

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-filter_complex",
		"-map [vout]",
		"-c:v libx264 -preset veryfast -crf 23 -threads 2",
		"-pix_fmt yuv420p -movflags +faststart -an -f mp4 " + out,
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("command missing %q: %s", want, joined)
		}
	}
}

func TestSelectEncoderAuto(t *testing.T) {
	cases := []struct {
		name    string
		listing string
		probeOK bool
		want    string
	}{
		{"nvenc preferred", "V..... h264_vaapi\n V..... h264_nvenc", true, "h264_nvenc"},
		{"vaapi only", "V..... h264_vaapi", true, "h264_vaapi"},
		{"no hardware", "V..... libx264", true, "libx264"},
		{"probe failure", "", false, "libx264"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			restore := SetListEncodersForTests(func(context.Context, string) ([]byte, error) {
				if !tc.probeOK {
					return nil, errors.New("no ffmpeg")
				}
				return []byte(tc.listing), nil
			})
			defer restore()

			cfg := config.Default()
			r := NewRenderer(&cfg, logging.NewNop())
			if got := r.selectEncoder(context.Background()); got != tc.want {
				t.Errorf("selectEncoder() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSelectEncoderPassthrough(t *testing.T) {
	cfg := config.Default()
	cfg.FFmpeg.Encoder = "hevc_nvenc"
	r := NewRenderer(&cfg, logging.NewNop())
	if got := r.selectEncoder(context.Background()); got != "hevc_nvenc" {
		t.Errorf("selectEncoder() = %q, want verbatim passthrough", got)
	}
}

func TestRenderSegmentWritesAndReuses(t *testing.T) {
	r := newTestRenderer(t)
	seg := sampleSegment()

	var calls int
	restore := SetRunCommandForTests(func(_ context.Context, _ string, args []string) ([]byte, error) {
		calls++
		return nil, os.WriteFile(args[len(args)-1], []byte("mp4"), 0o644)
	})
	defer restore()

	path, err := r.RenderSegment(context.Background(), seg)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != r.cacheDir {
		t.Errorf("output %q outside cache dir %q", path, r.cacheDir)
	}

	again, err := r.RenderSegment(context.Background(), seg)
	if err != nil {
		t.Fatal(err)
	}
	if again != path {
		t.Errorf("repeat render path = %q, want %q", again, path)
	}
	if calls != 1 {
		t.Errorf("ffmpeg invoked %d times, want 1", calls)
	}
}

func TestRenderSegmentFailureRemovesPartialOutput(t *testing.T) {
	r := newTestRenderer(t)
	seg := sampleSegment()

	restore := SetRunCommandForTests(func(_ context.Context, _ string, args []string) ([]byte, error) {
		if err := os.WriteFile(args[len(args)-1], []byte("trunc"), 0o644); err != nil {
			t.Fatal(err)
		}
		return []byte("Conversion failed!"), errors.New("exit status 1")
	})
	defer restore()

	_, err := r.RenderSegment(context.Background(), seg)
	if err == nil {
		t.Fatal("expected render failure")
	}

	var renderErr *Error
	if !errors.As(err, &renderErr) {
		t.Fatalf("error type %T, want *render.Error", err)
	}
	if renderErr.Key != CacheKey(seg) {
		t.Errorf("error key = %q, want %q", renderErr.Key, CacheKey(seg))
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Errorf("error should classify as external tool failure: %v", err)
	}
	if !strings.Contains(err.Error(), "Conversion failed!") {
		t.Errorf("error should carry ffmpeg output: %v", err)
	}

	if _, statErr := os.Stat(r.OutputPath(CacheKey(seg))); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("partial output should be removed after a failed render")
	}
}

func TestRenderSegmentEmptyOutputIsError(t *testing.T) {
	r := newTestRenderer(t)
	seg := sampleSegment()

	restore := SetRunCommandForTests(func(_ context.Context, _ string, args []string) ([]byte, error) {
		return nil, os.WriteFile(args[len(args)-1], nil, 0o644)
	})
	defer restore()

	if _, err := r.RenderSegment(context.Background(), seg); !errors.Is(err, services.ErrExternalTool) {
		t.Errorf("empty output should fail, got %v", err)
	}
}
