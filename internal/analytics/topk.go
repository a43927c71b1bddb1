// Package analytics ranks files by a score that changes over time.
package analytics

import (
	"container/heap"
	"slices"
	"strings"
)

// Observation is one reported (key, score) pair.
type Observation struct {
	Key   string `json:"key"`
	Score int64  `json:"score"`
}

// Aggregator answers "highest scoring k distinct keys" over an append-only
// stream of observations. A key can be observed any number of times; only
// its highest score counts, so stale low observations never shadow a newer
// high one.
type Aggregator struct {
	name string
	log  []Observation
	best map[string]int64
}

func NewAggregator(name string) *Aggregator {
	return &Aggregator{
		name: name,
		best: make(map[string]int64),
	}
}

func (a *Aggregator) Name() string {
	return a.name
}

// Observe records an observation. It never fails.
func (a *Aggregator) Observe(key string, score int64) {
	a.log = append(a.log, Observation{Key: key, Score: score})
	if cur, ok := a.best[key]; !ok || score > cur {
		a.best[key] = score
	}
}

// Observations is the number of observations recorded so far.
func (a *Aggregator) Observations() int {
	return len(a.log)
}

// Keys is the number of distinct keys observed.
func (a *Aggregator) Keys() int {
	return len(a.best)
}

// TopK returns up to k distinct keys with their best score, highest first.
// Equal scores are ordered by key.
func (a *Aggregator) TopK(k int) []Observation {
	if k <= 0 {
		return nil
	}

	h := make(minHeap, 0, min(k, len(a.best))+1)
	for key, score := range a.best {
		o := Observation{Key: key, Score: score}
		if h.Len() < k {
			heap.Push(&h, o)
			continue
		}
		if ranksAbove(o, h[0]) {
			h[0] = o
			heap.Fix(&h, 0)
		}
	}

	out := []Observation(h)
	slices.SortFunc(out, func(x, y Observation) int {
		switch {
		case ranksAbove(x, y):
			return -1
		case ranksAbove(y, x):
			return 1
		default:
			return 0
		}
	})
	return out
}

func ranksAbove(x, y Observation) bool {
	if x.Score != y.Score {
		return x.Score > y.Score
	}
	return strings.Compare(x.Key, y.Key) < 0
}

// minHeap keeps the lowest ranked of the current top k at the root.
type minHeap []Observation

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return ranksAbove(h[j], h[i]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minHeap) Push(x any) { *h = append(*h, x.(Observation)) }

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
