package cli

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/matzehuels/boxaug/pkg/observability"
)

// runStats collects pipeline and cache events during one augment command.
type runStats struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks

	mu         sync.Mutex
	transforms map[string]int
	images     int
	failures   int
	total      time.Duration
	slowest    string
	slowestDur time.Duration
	hits       int
	misses     int
	written    int64
}

func newRunStats() *runStats {
	return &runStats{transforms: make(map[string]int)}
}

// install registers s as the global pipeline and cache hooks. The returned
// func restores the defaults.
func (s *runStats) install() func() {
	observability.SetPipelineHooks(s)
	observability.SetCacheHooks(s)
	return observability.Reset
}

func (s *runStats) OnImageComplete(_ context.Context, file string, _, _ int, d time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failures++
		return
	}
	s.images++
	s.total += d
	if d > s.slowestDur {
		s.slowest, s.slowestDur = file, d
	}
}

func (s *runStats) OnTransform(_ context.Context, _, name string) {
	s.mu.Lock()
	s.transforms[name]++
	s.mu.Unlock()
}

func (s *runStats) OnCacheHit(context.Context, string) {
	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
}

func (s *runStats) OnCacheMiss(context.Context, string) {
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
}

func (s *runStats) OnCacheSet(_ context.Context, _ string, size int) {
	s.mu.Lock()
	s.written += int64(size)
	s.mu.Unlock()
}

// average returns the mean time spent per successful image.
func (s *runStats) average() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.images == 0 {
		return 0
	}
	return s.total / time.Duration(s.images)
}

type opCount struct {
	name  string
	count int
}

// operators lists operator counts, most frequent first.
func (s *runStats) operators() []opCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]opCount, 0, len(s.transforms))
	for name, n := range s.transforms {
		out = append(out, opCount{name, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}
