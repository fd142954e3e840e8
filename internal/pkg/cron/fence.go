package cron

import (
	"log/slog"
	"sync"
	"time"
)

// Fence is the per-organization dedup guard for sweep runs. Two runs for
// the same (jobType, orgID, discriminator) key inside the window must not
// both execute; the second is dropped, not queued, since it would only
// recompute the same facts.
type Fence struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

const DefaultFenceWindow = 20 * time.Minute

func NewFence(window time.Duration) *Fence {
	if window <= 0 {
		window = DefaultFenceWindow
	}
	return &Fence{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// TryAcquire reports whether a run for the key may proceed, and records
// it when so.
func (f *Fence) TryAcquire(jobType, orgID, discriminator string) bool {
	key := jobType + "|" + orgID + "|" + discriminator

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if last, ok := f.last[key]; ok && now.Sub(last) < f.window {
		slog.Debug("Sweep run dropped by dedup fence",
			"job", jobType, "org_id", orgID, "discriminator", discriminator)
		return false
	}
	f.prune(now)
	f.last[key] = now
	return true
}

// prune drops expired keys so the map stays bounded. Caller holds the
// lock.
func (f *Fence) prune(now time.Time) {
	for key, t := range f.last {
		if now.Sub(t) >= f.window {
			delete(f.last, key)
		}
	}
}
