// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retry

import "sync"

// Health tracks throttle responses per adapter for the lifetime of the
// process. Concurrent requests share one registry, so access is
// mutex-guarded. Counters reset only via Reset.
type Health struct {
	mu        sync.Mutex
	throttles map[string]int
}

// NewHealth returns an empty registry.
func NewHealth() *Health {
	return &Health{throttles: make(map[string]int)}
}

// RecordThrottle notes one rate-limit response from the adapter.
func (h *Health) RecordThrottle(adapter string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.throttles[adapter]++
}

// Throttles returns the number of rate-limit responses seen from the adapter.
func (h *Health) Throttles(adapter string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.throttles[adapter]
}

// OverCeiling reports whether the adapter has met or exceeded its declared
// rate-limit ceiling. The strategy selector deprioritizes such adapters.
func (h *Health) OverCeiling(adapter string, ceiling int) bool {
	if ceiling <= 0 {
		return false
	}
	return h.Throttles(adapter) >= ceiling
}

// Reset clears all counters. Used by tests and process restarts.
func (h *Health) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.throttles = make(map[string]int)
}
