package preload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"preroll/internal/analyzer"
	"preroll/internal/logging"
	"preroll/internal/render"
	"preroll/internal/testsupport"
	"preroll/internal/timeline"
)

// overlapTimeline has one Complex segment at [2s, 4s); see the fixture.
func overlapTimeline() timeline.Timeline {
	return testsupport.OverlapTimeline()
}

// doubleOverlapTimeline extends the fixture with a second composited window at
// [6s, 8s) on track 2.
func doubleOverlapTimeline() timeline.Timeline {
	tl := testsupport.OverlapTimeline()
	tl.Duration = 9 * time.Second
	tl.Tracks[0].Clips[0].TrimOut = 9 * time.Second
	tl.Tracks[1].Clips = append(tl.Tracks[1].Clips, timeline.Clip{
		ID: "clip-c", FilePath: "/media/c.mp4",
		Start: 6 * time.Second, TrimOut: 2 * time.Second,
	})
	return tl
}

func complexKey(t *testing.T) string {
	t.Helper()
	for _, segment := range analyzer.AnalyzeTimeline(overlapTimeline()) {
		if analyzer.ClassifySegment(segment) == analyzer.Complex {
			return render.CacheKey(segment)
		}
	}
	t.Fatal("fixture timeline has no complex segment")
	return ""
}

type stubRenderer struct {
	mu    sync.Mutex
	dir   string
	calls int
	fail  error
}

func (s *stubRenderer) RenderSegment(_ context.Context, segment analyzer.Segment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail != nil {
		return "", s.fail
	}
	path := filepath.Join(s.dir, render.CacheKey(segment)+".mp4")
	return path, os.WriteFile(path, []byte("segment"), 0o644)
}

func (s *stubRenderer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestPreloader(t *testing.T) (*Preloader, *stubRenderer) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	renderer := &stubRenderer{dir: cfg.Paths.CacheDir}
	return NewPreloader(cfg, renderer, logging.NewNop()), renderer
}

func TestEnqueueAssignsPriority(t *testing.T) {
	cases := []struct {
		name        string
		currentTime time.Duration
		want        Priority
	}{
		{"playhead inside segment", 2500 * time.Millisecond, PriorityHigh},
		{"segment within lookahead", 1800 * time.Millisecond, PriorityMedium},
		{"segment far ahead", 0, PriorityLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, _ := newTestPreloader(t)
			p.EnqueueUpcomingSegments(tc.currentTime, overlapTimeline())

			entry, ok := p.popNext()
			if !ok {
				t.Fatal("expected one queued segment")
			}
			if entry.Priority != tc.want {
				t.Errorf("priority = %v, want %v", entry.Priority, tc.want)
			}
			if _, ok := p.popNext(); ok {
				t.Error("only the complex segment should queue")
			}
		})
	}
}

func TestEnqueueSkipsStaleSegments(t *testing.T) {
	p, _ := newTestPreloader(t)
	p.EnqueueUpcomingSegments(4500*time.Millisecond, overlapTimeline())
	if _, ok := p.popNext(); ok {
		t.Error("segment ending before the playhead should be skipped")
	}
}

func TestEnqueueDeduplicates(t *testing.T) {
	p, _ := newTestPreloader(t)
	p.EnqueueUpcomingSegments(0, overlapTimeline())
	p.EnqueueUpcomingSegments(0, overlapTimeline())

	if _, ok := p.popNext(); !ok {
		t.Fatal("expected one queued segment")
	}
	if _, ok := p.popNext(); ok {
		t.Error("re-enqueue at the same priority should not duplicate queue entries")
	}
}

func TestEnqueueUpgradesPriority(t *testing.T) {
	p, _ := newTestPreloader(t)
	tl := doubleOverlapTimeline()

	// Both composited windows [2s,4s) and [6s,8s) are far ahead at t=0.
	p.EnqueueUpcomingSegments(0, tl)
	// By 6.5s the first window is behind the playhead and the second covers it.
	p.EnqueueUpcomingSegments(6500*time.Millisecond, tl)

	entry, ok := p.popNext()
	if !ok {
		t.Fatal("expected a queued segment")
	}
	if entry.Priority != PriorityHigh || entry.Segment.Start != 6*time.Second {
		t.Errorf("pop = start %s priority %v, want the upgraded segment under the playhead",
			entry.Segment.Start, entry.Priority)
	}
}

func TestEnqueueUpgradeLeavesSupersededCopyHarmless(t *testing.T) {
	p, _ := newTestPreloader(t)
	p.EnqueueUpcomingSegments(0, overlapTimeline())
	p.EnqueueUpcomingSegments(2500*time.Millisecond, overlapTimeline())

	entry, ok := p.popNext()
	if !ok || entry.Priority != PriorityHigh {
		t.Fatalf("first pop = %+v, %v, want the high-priority copy", entry, ok)
	}
	if depth := p.Status().QueueDepth; depth != 0 {
		t.Errorf("queue depth after pop = %d, want 0", depth)
	}

	// The stale low-priority copy still pops, but once the key is cached the
	// dispatch revalidation discards it without another render.
	stale, ok := p.popNext()
	if !ok || stale.Priority != PriorityLow {
		t.Fatalf("second pop = %+v, %v, want the superseded copy", stale, ok)
	}
	p.cacheMu.Lock()
	p.cache.put(stale.Key, "/cache/"+stale.Key+".mp4", 1)
	p.cacheMu.Unlock()
	renderer := &stubRenderer{dir: t.TempDir()}
	p.renderer = renderer
	p.processEntry(context.Background(), stale)
	if calls := renderer.callCount(); calls != 0 {
		t.Errorf("superseded copy triggered %d renders, want 0", calls)
	}
}

func TestEnqueueSkipsCachedAndInFlight(t *testing.T) {
	key := complexKey(t)

	p, _ := newTestPreloader(t)
	p.cacheMu.Lock()
	p.cache.put(key, "/cache/"+key+".mp4", 1)
	p.cacheMu.Unlock()
	p.EnqueueUpcomingSegments(0, overlapTimeline())
	if _, ok := p.popNext(); ok {
		t.Error("cached segment should not re-queue")
	}

	p, _ = newTestPreloader(t)
	p.markInFlight(key)
	p.EnqueueUpcomingSegments(0, overlapTimeline())
	if _, ok := p.popNext(); ok {
		t.Error("in-flight segment should not re-queue")
	}
}

func TestGetCachedSegmentCounters(t *testing.T) {
	p, _ := newTestPreloader(t)
	if rate := p.Status().CacheHitRate; rate != 0.0 {
		t.Errorf("initial hit rate = %v, want 0.0", rate)
	}

	if _, ok := p.GetCachedSegment("missing"); ok {
		t.Fatal("unexpected hit")
	}
	p.cacheMu.Lock()
	p.cache.put("present", "/cache/present.mp4", 1)
	p.cacheMu.Unlock()
	if path, ok := p.GetCachedSegment("present"); !ok || path != "/cache/present.mp4" {
		t.Fatalf("lookup = %q, %v", path, ok)
	}

	if rate := p.Status().CacheHitRate; rate != 0.5 {
		t.Errorf("hit rate = %v, want 0.5", rate)
	}
}

func TestEvictIfNeededRemovesOldestFirst(t *testing.T) {
	p, _ := newTestPreloader(t)
	p.cache = newLRUCache(150)

	dir := p.cfg.Paths.CacheDir
	for _, key := range []string{"old", "new"} {
		path := testsupport.WriteSegmentFile(t, dir, key, 100)
		p.cache.put(key, path, 100)
	}

	p.EvictIfNeeded()

	if _, err := os.Stat(filepath.Join(dir, "old.mp4")); !errors.Is(err, os.ErrNotExist) {
		t.Error("least recently used file should be deleted")
	}
	if _, err := os.Stat(filepath.Join(dir, "new.mp4")); err != nil {
		t.Error("most recent file should survive eviction")
	}
	if p.cache.bytes() != 100 || p.cache.len() != 1 {
		t.Errorf("cache after eviction: len=%d bytes=%d", p.cache.len(), p.cache.bytes())
	}
}

func TestClearCacheDrainsQueue(t *testing.T) {
	p, _ := newTestPreloader(t)
	p.EnqueueUpcomingSegments(0, overlapTimeline())
	if depth := p.Status().QueueDepth; depth != 1 {
		t.Fatalf("queue depth before clear = %d, want 1", depth)
	}

	if err := p.ClearCache(); err != nil {
		t.Fatal(err)
	}
	if depth := p.Status().QueueDepth; depth != 0 {
		t.Errorf("queue depth after clear = %d, want 0", depth)
	}
	if _, ok := p.popNext(); ok {
		t.Error("cleared preloader should have nothing left to dispatch")
	}
}

func TestClearCacheDeletesFiles(t *testing.T) {
	p, _ := newTestPreloader(t)
	path := filepath.Join(p.cfg.Paths.CacheDir, "seg.mp4")
	if err := os.WriteFile(path, []byte("segment"), 0o644); err != nil {
		t.Fatal(err)
	}
	p.cacheMu.Lock()
	p.cache.put("seg", path, 7)
	p.cacheMu.Unlock()

	if err := p.ClearCache(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("cache file should be deleted")
	}
	status := p.Status()
	if status.CachedSegments != 0 || status.CacheBytes != 0 {
		t.Errorf("status after clear: %+v", status)
	}
}

func TestStartRendersQueuedSegments(t *testing.T) {
	p, renderer := newTestPreloader(t)
	key := complexKey(t)

	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	p.EnqueueUpcomingSegments(2*time.Second, overlapTimeline())

	deadline := time.After(5 * time.Second)
	for {
		if path, ok := p.GetCachedSegment(key); ok {
			if _, err := os.Stat(path); err != nil {
				t.Fatalf("cached path not on disk: %v", err)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("segment never rendered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	// Re-enqueueing a cached segment must not trigger another render.
	p.EnqueueUpcomingSegments(2*time.Second, overlapTimeline())
	time.Sleep(20 * time.Millisecond)
	if calls := renderer.callCount(); calls != 1 {
		t.Errorf("render calls = %d, want 1", calls)
	}
}

func TestStartClearsStaleFiles(t *testing.T) {
	p, _ := newTestPreloader(t)
	stale := filepath.Join(p.cfg.Paths.CacheDir, "stale.mp4")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Error("stale cache file should be removed at startup")
	}
}

func TestRestartResetsCacheIndex(t *testing.T) {
	p, _ := newTestPreloader(t)
	path := testsupport.WriteSegmentFile(t, p.cfg.Paths.CacheDir, "seg", 7)
	p.cacheMu.Lock()
	p.cache.put("seg", path, 7)
	p.cacheMu.Unlock()
	if _, ok := p.GetCachedSegment("seg"); !ok {
		t.Fatal("expected seeded entry before restart")
	}

	// Start sweeps the files, so the index must not keep pointing at them.
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("stale file should be swept at start")
	}
	if _, ok := p.GetCachedSegment("seg"); ok {
		t.Error("restart should not serve paths from the previous run")
	}
	status := p.Status()
	if status.CachedSegments != 0 || status.CacheBytes != 0 {
		t.Errorf("cache after restart: %+v", status)
	}
	if status.CacheHitRate != 0.0 {
		t.Errorf("hit rate after restart = %v, want counters reset", status.CacheHitRate)
	}
}

func TestStartTwiceFails(t *testing.T) {
	p, _ := newTestPreloader(t)
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()
	if err := p.Start(context.Background()); err == nil {
		t.Error("second start should fail")
	}
}

func TestRenderFailureIsRetryable(t *testing.T) {
	p, renderer := newTestPreloader(t)
	renderer.fail = errors.New("ffmpeg exploded")
	key := complexKey(t)

	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	p.EnqueueUpcomingSegments(2*time.Second, overlapTimeline())

	deadline := time.After(5 * time.Second)
	for renderer.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("render never attempted")
		case <-time.After(5 * time.Millisecond):
		}
	}
	time.Sleep(20 * time.Millisecond)

	if p.isInFlight(key) {
		t.Error("in-flight marker should clear after failure")
	}
	if _, ok := p.GetCachedSegment(key); ok {
		t.Error("failed render should leave segment un-cached")
	}

	// A later enqueue retries the same segment.
	renderer.mu.Lock()
	renderer.fail = nil
	renderer.mu.Unlock()
	p.EnqueueUpcomingSegments(2*time.Second, overlapTimeline())

	deadline = time.After(5 * time.Second)
	for {
		if _, ok := p.GetCachedSegment(key); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("retry never succeeded")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
