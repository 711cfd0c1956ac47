package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matzehuels/boxaug/pkg/observability"
)

func TestRunStats(t *testing.T) {
	ctx := context.Background()
	s := newRunStats()

	s.OnTransform(ctx, "a.png", "rotation")
	s.OnTransform(ctx, "a.png", "h_flip")
	s.OnTransform(ctx, "b.png", "rotation")
	s.OnImageComplete(ctx, "a.png", 2, 0, 10*time.Millisecond, nil)
	s.OnImageComplete(ctx, "b.png", 1, 1, 30*time.Millisecond, nil)
	s.OnImageComplete(ctx, "c.png", 0, 0, time.Millisecond, errors.New("boom"))
	s.OnCacheHit(ctx, "result")
	s.OnCacheMiss(ctx, "result")
	s.OnCacheSet(ctx, "result", 128)

	if s.images != 2 || s.failures != 1 {
		t.Errorf("images, failures = %d, %d, want 2, 1", s.images, s.failures)
	}
	if got := s.average(); got != 20*time.Millisecond {
		t.Errorf("average() = %v, want 20ms", got)
	}
	if s.slowest != "b.png" {
		t.Errorf("slowest = %q, want b.png", s.slowest)
	}
	if s.hits != 1 || s.misses != 1 || s.written != 128 {
		t.Errorf("cache = %d hits, %d misses, %d bytes", s.hits, s.misses, s.written)
	}

	ops := s.operators()
	want := []opCount{{"rotation", 2}, {"h_flip", 1}}
	if len(ops) != len(want) {
		t.Fatalf("operators() = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("operators()[%d] = %v, want %v", i, ops[i], want[i])
		}
	}
}

func TestRunStatsEmpty(t *testing.T) {
	s := newRunStats()
	if got := s.average(); got != 0 {
		t.Errorf("average() = %v, want 0", got)
	}
	if got := s.operators(); len(got) != 0 {
		t.Errorf("operators() = %v, want none", got)
	}
}

func TestRunStatsInstall(t *testing.T) {
	s := newRunStats()
	restore := s.install()

	observability.Pipeline().OnTransform(context.Background(), "a.png", "noise")
	observability.Cache().OnCacheHit(context.Background(), "result")
	restore()
	observability.Pipeline().OnTransform(context.Background(), "a.png", "noise")

	if s.transforms["noise"] != 1 || s.hits != 1 {
		t.Errorf("transforms = %v, hits = %d, want noise:1 and 1 hit", s.transforms, s.hits)
	}
}
