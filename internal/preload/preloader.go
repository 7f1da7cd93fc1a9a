package preload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"preroll/internal/analyzer"
	"preroll/internal/config"
	"preroll/internal/logging"
	"preroll/internal/render"
	"preroll/internal/services"
	"preroll/internal/timeline"
)

// SegmentRenderer produces a cached segment file and returns its path.
// *render.Renderer satisfies this; tests substitute stubs.
type SegmentRenderer interface {
	RenderSegment(ctx context.Context, segment analyzer.Segment) (string, error)
}

// BufferStatus is a read-only snapshot of preloader state for monitoring.
type BufferStatus struct {
	QueueDepth     int
	CachedSegments int
	CacheBytes     int64
	CacheHitRate   float64
	CurrentKey     string
	Rendering      bool
}

// Preloader keeps upcoming composited segments rendered ahead of playback.
// A single dispatch loop decides what to render next; the external process
// wait happens on a worker goroutine so the loop stays responsive to
// shutdown. Each shared structure has its own lock and no lock is held
// across a render.
type Preloader struct {
	cfg      *config.Config
	renderer SegmentRenderer
	logger   *slog.Logger

	queueMu sync.Mutex
	queue   segmentHeap
	queued  map[string]Priority

	cacheMu sync.Mutex
	cache   *lruCache

	inFlightMu sync.Mutex
	inFlight   map[string]struct{}

	statsMu sync.Mutex
	hits    uint64
	misses  uint64

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPreloader constructs a stopped preloader. Call Start to begin rendering.
func NewPreloader(cfg *config.Config, renderer SegmentRenderer, logger *slog.Logger) *Preloader {
	return &Preloader{
		cfg:      cfg,
		renderer: renderer,
		logger:   logging.NewComponentLogger(logger, "preload"),
		queued:   make(map[string]Priority),
		cache:    newLRUCache(cfg.MaxCacheBytes()),
		inFlight: make(map[string]struct{}),
	}
}

// Start clears stale cache files from previous runs and launches the dispatch
// loop. It returns an error if the preloader is already running.
func (p *Preloader) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return services.Wrap(services.ErrValidation, "preload", "start", "preloader already running", nil)
	}

	if err := p.removeCachedFiles(); err != nil {
		return err
	}

	// The file sweep above invalidated any paths left over from a previous
	// Start/Stop cycle, so the index and counters start from zero too.
	p.cacheMu.Lock()
	p.cache.reset()
	p.cacheMu.Unlock()
	p.statsMu.Lock()
	p.hits, p.misses = 0, 0
	p.statsMu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.started = true

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(runCtx)
	}()

	p.logger.InfoContext(ctx, "preloader started",
		logging.Duration("lookahead", p.cfg.Lookahead()),
		logging.Int64("max_cache_bytes", p.cfg.MaxCacheBytes()))
	return nil
}

// Stop cancels the dispatch loop and waits for any in-flight render to wind
// down. Safe to call more than once.
func (p *Preloader) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
	p.logger.Info("preloader stopped",
		logging.Float64("cache_hit_rate", p.Status().CacheHitRate))
}

// EnqueueUpcomingSegments re-analyzes the timeline and queues Complex segments
// the playhead will reach soon. Priority is assigned relative to currentTime:
// High covers the playhead, Medium starts within the lookahead window, Low is
// anything further out. Cached, in-flight, and stale segments are skipped. A
// segment already queued at a lower priority is re-pushed at the higher one;
// the superseded copy is discarded at dispatch by the cached/in-flight checks.
func (p *Preloader) EnqueueUpcomingSegments(currentTime time.Duration, tl timeline.Timeline) {
	segments := analyzer.AnalyzeTimeline(tl)
	lookaheadEnd := currentTime + p.cfg.Lookahead()

	for _, segment := range segments {
		if analyzer.ClassifySegment(segment) != analyzer.Complex {
			continue
		}
		if segment.End() <= currentTime {
			continue
		}

		key := render.CacheKey(segment)
		if p.isCached(key) || p.isInFlight(key) {
			continue
		}

		priority := PriorityLow
		switch {
		case segment.Start <= currentTime:
			priority = PriorityHigh
		case segment.Start <= lookaheadEnd:
			priority = PriorityMedium
		}

		p.queueMu.Lock()
		if existing, ok := p.queued[key]; ok && existing >= priority {
			p.queueMu.Unlock()
			continue
		}
		p.queued[key] = priority
		p.queue.push(PrioritizedSegment{Segment: segment, Key: key, Priority: priority})
		p.queueMu.Unlock()

		p.logger.Debug("queued segment",
			logging.String(logging.FieldCacheKey, key),
			logging.String("priority", priority.String()),
			logging.Duration("start", segment.Start))
	}
}

// GetCachedSegment returns the on-disk path for a rendered segment, updating
// recency and the hit/miss counters. It never blocks on a render.
func (p *Preloader) GetCachedSegment(key string) (string, bool) {
	p.cacheMu.Lock()
	entry, ok := p.cache.get(key)
	p.cacheMu.Unlock()

	p.statsMu.Lock()
	if ok {
		p.hits++
	} else {
		p.misses++
	}
	p.statsMu.Unlock()

	if !ok {
		return "", false
	}
	return entry.path, true
}

// Status reports a point-in-time snapshot; fields are sampled under their own
// locks and may be mutually inconsistent for an instant.
func (p *Preloader) Status() BufferStatus {
	var status BufferStatus

	p.queueMu.Lock()
	// Distinct pending keys; superseded lower-priority heap copies don't count.
	status.QueueDepth = len(p.queued)
	p.queueMu.Unlock()

	p.cacheMu.Lock()
	status.CachedSegments = p.cache.len()
	status.CacheBytes = p.cache.bytes()
	p.cacheMu.Unlock()

	p.inFlightMu.Lock()
	for key := range p.inFlight {
		status.CurrentKey = key
	}
	status.Rendering = len(p.inFlight) > 0
	p.inFlightMu.Unlock()

	p.statsMu.Lock()
	if total := p.hits + p.misses; total > 0 {
		status.CacheHitRate = float64(p.hits) / float64(total)
	}
	p.statsMu.Unlock()

	return status
}

// ClearCache drops pending queue entries, deletes every cached segment file,
// and resets the index, recency order, and size counter.
func (p *Preloader) ClearCache() error {
	p.queueMu.Lock()
	p.queue = p.queue[:0]
	p.queued = make(map[string]Priority)
	p.queueMu.Unlock()

	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()

	var firstErr error
	for element := p.cache.order.Front(); element != nil; element = element.Next() {
		entry := element.Value.(cacheEntry)
		if err := os.Remove(entry.path); err != nil && !errors.Is(err, fs.ErrNotExist) && firstErr == nil {
			firstErr = fmt.Errorf("remove %s: %w", entry.path, err)
		}
	}
	p.cache.reset()
	return firstErr
}

// EvictIfNeeded trims the cache from the least recently used end until the
// size total is back under the configured cap.
func (p *Preloader) EvictIfNeeded() {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	p.evictLocked()
}

func (p *Preloader) evictLocked() {
	for p.cache.overCap() {
		entry, ok := p.cache.oldest()
		if !ok {
			return
		}
		err := os.Remove(entry.path)
		confirmed := err == nil || errors.Is(err, fs.ErrNotExist)
		if !confirmed {
			// Keep the bytes in the total so the cap stays honest, but drop
			// the entry so eviction cannot spin on the same file.
			p.logger.Warn("failed to evict cache file",
				logging.String(logging.FieldCacheKey, entry.key),
				logging.Error(err))
		}
		p.cache.remove(entry.key, confirmed)
		if confirmed {
			p.logger.Debug("evicted segment",
				logging.String(logging.FieldCacheKey, entry.key),
				logging.Int64("size", entry.size))
		}
	}
}

// run is the dispatch loop. It owns the decision of what renders next and
// processes one entry at a time.
func (p *Preloader) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		entry, ok := p.popNext()
		if !ok {
			if !sleepCtx(ctx, p.cfg.PollInterval()) {
				return
			}
			continue
		}
		p.processEntry(ctx, entry)
	}
}

func (p *Preloader) popNext() (PrioritizedSegment, bool) {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	entry, ok := p.queue.pop()
	if ok {
		delete(p.queued, entry.Key)
	}
	return entry, ok
}

type renderResult struct {
	path string
	err  error
}

func (p *Preloader) processEntry(ctx context.Context, entry PrioritizedSegment) {
	if p.isCached(entry.Key) {
		return
	}
	if !p.markInFlight(entry.Key) {
		return
	}
	defer p.clearInFlight(entry.Key)

	jobID := uuid.NewString()
	p.logger.Info("render dispatched",
		logging.String(logging.FieldJobID, jobID),
		logging.String(logging.FieldCacheKey, entry.Key),
		logging.String("priority", entry.Priority.String()))

	// The external-process wait lives on its own goroutine; the dispatch loop
	// only waits on the completion message or shutdown.
	done := make(chan renderResult, 1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		path, err := p.renderer.RenderSegment(ctx, entry.Segment)
		done <- renderResult{path: path, err: err}
	}()

	var result renderResult
	select {
	case <-ctx.Done():
		return
	case result = <-done:
	}

	if result.err != nil {
		p.logger.Warn("render failed",
			logging.String(logging.FieldJobID, jobID),
			logging.String(logging.FieldCacheKey, entry.Key),
			logging.Bool("retryable", services.Retryable(result.err)),
			logging.Error(result.err))
		return
	}

	info, err := os.Stat(result.path)
	if err != nil {
		p.logger.Warn("rendered file missing",
			logging.String(logging.FieldJobID, jobID),
			logging.String(logging.FieldCacheKey, entry.Key),
			logging.Error(err))
		return
	}

	p.cacheMu.Lock()
	p.cache.put(entry.Key, result.path, info.Size())
	p.evictLocked()
	cached, bytes := p.cache.len(), p.cache.bytes()
	p.cacheMu.Unlock()

	p.logger.Info("render complete",
		logging.String(logging.FieldJobID, jobID),
		logging.String(logging.FieldCacheKey, entry.Key),
		logging.Int64("size", info.Size()),
		logging.Int("cached_segments", cached),
		logging.Int64("cache_bytes", bytes))

	// Fixed cooldown after each completed render bounds sustained CPU load.
	sleepCtx(ctx, p.cfg.RenderCooldown())
}

func (p *Preloader) isCached(key string) bool {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	return p.cache.contains(key)
}

func (p *Preloader) isInFlight(key string) bool {
	p.inFlightMu.Lock()
	defer p.inFlightMu.Unlock()
	_, ok := p.inFlight[key]
	return ok
}

func (p *Preloader) markInFlight(key string) bool {
	p.inFlightMu.Lock()
	defer p.inFlightMu.Unlock()
	if _, ok := p.inFlight[key]; ok {
		return false
	}
	p.inFlight[key] = struct{}{}
	return true
}

func (p *Preloader) clearInFlight(key string) {
	p.inFlightMu.Lock()
	defer p.inFlightMu.Unlock()
	delete(p.inFlight, key)
}

// removeCachedFiles deletes leftover segment files from a previous run. The
// cache index is in-memory only, so files on disk without an index entry are
// unreachable and just waste the cap.
func (p *Preloader) removeCachedFiles() error {
	pattern := filepath.Join(p.cfg.Paths.CacheDir, "*.mp4")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "preload", "start",
			fmt.Sprintf("scan cache directory %s", p.cfg.Paths.CacheDir), err)
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrConfiguration, "preload", "start",
				fmt.Sprintf("remove stale cache file %s", match), err)
		}
	}
	if len(matches) > 0 {
		p.logger.Info("cleared stale cache files", logging.Int("count", len(matches)))
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
