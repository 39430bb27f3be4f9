package counter

import "sync"

// FakeCounter is a test double that delivers edges programmatically with the
// same threshold batching as the real line counter.
type FakeCounter struct {
	Threshold uint64

	mu         sync.Mutex
	onOverflow OverflowFunc
	edges      uint64
	Started    bool
	Closed     bool
}

func NewFakeCounter(threshold int, fn OverflowFunc) *FakeCounter {
	if threshold < 1 {
		threshold = 1
	}
	return &FakeCounter{
		Threshold:  uint64(threshold),
		onOverflow: fn,
	}
}

func (f *FakeCounter) Start() error {
	f.mu.Lock()
	f.Started = true
	f.mu.Unlock()
	return nil
}

func (f *FakeCounter) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Pulse simulates n electrical edges arriving on the line.
func (f *FakeCounter) Pulse(n int) {
	for i := 0; i < n; i++ {
		f.mu.Lock()
		f.edges++
		fire := f.edges >= f.Threshold
		if fire {
			f.edges = 0
		}
		fn := f.onOverflow
		f.mu.Unlock()

		if fire && fn != nil {
			fn(f.Threshold)
		}
	}
}
