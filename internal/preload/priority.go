package preload

import (
	"container/heap"

	"preroll/internal/analyzer"
)

// Priority orders queued segments by urgency relative to the playhead.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// PrioritizedSegment is one queue entry: a segment, its cache key, and the
// urgency assigned at enqueue time.
type PrioritizedSegment struct {
	Segment  analyzer.Segment
	Key      string
	Priority Priority
}

// segmentHeap orders entries by descending priority, breaking ties with the
// earliest segment start time. It implements heap.Interface; callers use the
// push/pop wrappers below.
type segmentHeap []PrioritizedSegment

func (h segmentHeap) Len() int { return len(h) }

func (h segmentHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].Segment.Start < h[j].Segment.Start
}

func (h segmentHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *segmentHeap) Push(x any) { *h = append(*h, x.(PrioritizedSegment)) }

func (h *segmentHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

func (h *segmentHeap) push(entry PrioritizedSegment) {
	heap.Push(h, entry)
}

func (h *segmentHeap) pop() (PrioritizedSegment, bool) {
	if h.Len() == 0 {
		return PrioritizedSegment{}, false
	}
	return heap.Pop(h).(PrioritizedSegment), true
}
