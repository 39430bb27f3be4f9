package telemetry

import (
	"sync"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/device"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/logger"
)

// FailureTracker counts consecutive report failures and escalates to a full
// device reset once the ceiling is reached. Escalation is terminal: the
// tracker never leaves the escalated state, recovery is only via restart.
// Transmission failures and connectivity-recovery failures share this one
// budget, one increment per failed cycle.
type FailureTracker struct {
	mu          sync.Mutex
	consecutive uint
	max         uint
	escalated   bool
	resetter    device.Resetter
}

func NewFailureTracker(maxFailures int, resetter device.Resetter) *FailureTracker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &FailureTracker{
		max:      uint(maxFailures),
		resetter: resetter,
	}
}

// RecordFailure notes one failed reporting cycle. Reaching the ceiling
// invokes the resetter exactly once.
func (t *FailureTracker) RecordFailure() {
	t.mu.Lock()
	t.consecutive++
	count := t.consecutive
	escalate := !t.escalated && t.consecutive >= t.max
	if escalate {
		t.escalated = true
	}
	t.mu.Unlock()

	logger.Warn().
		Uint("consecutive_failures", count).
		Uint("max_failures", t.max).
		Msg("Telemetry report failed")

	if escalate {
		t.resetter.Reset("telemetry failure limit reached")
	}
}

// RecordSuccess zeroes the consecutive failure count. Only a full success
// resets the budget; there is no partial-credit decay.
func (t *FailureTracker) RecordSuccess() {
	t.mu.Lock()
	t.consecutive = 0
	t.mu.Unlock()
}

// Count returns the current consecutive failure count.
func (t *FailureTracker) Count() uint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.consecutive
}
