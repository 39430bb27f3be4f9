package counter

import "sync"

// Accumulator owns the per-channel accumulated pulse counts. OnOverflow is
// called from the edge counters' event contexts; Drain and Restore only from
// the reporting task. All three share one mutex so a pulse landing between a
// read and a clear can never be lost. The critical sections hold the lock for
// a few instructions only and never across a network call.
//
// Invariant: accumulated plus whatever the reporter currently holds in flight
// always equals the exact number of pulses since the last successful report.
type Accumulator struct {
	mu          sync.Mutex
	accumulated [numChannels]uint64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// OnOverflow credits a batch of pulses to the channel. Safe to call from an
// asynchronous event context.
func (a *Accumulator) OnOverflow(ch Channel, pulses uint64) {
	a.mu.Lock()
	a.accumulated[ch] += pulses
	a.mu.Unlock()
}

// Overflow returns an OverflowFunc bound to the given channel, suitable for
// registration with an EdgeCounter.
func (a *Accumulator) Overflow(ch Channel) OverflowFunc {
	return func(pulses uint64) {
		a.OnOverflow(ch, pulses)
	}
}

// Drain atomically reads and zeroes the channel's accumulated count,
// returning the prior value.
func (a *Accumulator) Drain(ch Channel) uint64 {
	a.mu.Lock()
	count := a.accumulated[ch]
	a.accumulated[ch] = 0
	a.mu.Unlock()
	return count
}

// Restore adds a previously drained amount back after a failed report.
// Addition, never assignment: an overflow racing the restore keeps its
// pulses and they ride along in the next drain.
func (a *Accumulator) Restore(ch Channel, amount uint64) {
	if amount == 0 {
		return
	}
	a.mu.Lock()
	a.accumulated[ch] += amount
	a.mu.Unlock()
}

// Peek returns the channel's accumulated count without clearing it.
// Used by the supervisor for status logging only.
func (a *Accumulator) Peek(ch Channel) uint64 {
	a.mu.Lock()
	count := a.accumulated[ch]
	a.mu.Unlock()
	return count
}
