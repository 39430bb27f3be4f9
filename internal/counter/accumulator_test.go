package counter

import (
	"sync"
	"testing"
)

func TestDrainReturnsAndClears(t *testing.T) {
	acc := NewAccumulator()
	acc.OnOverflow(ChannelOutput, 12)

	if got := acc.Drain(ChannelOutput); got != 12 {
		t.Errorf("expected drain of 12, got %d", got)
	}
	if got := acc.Drain(ChannelOutput); got != 0 {
		t.Errorf("expected second drain of 0, got %d", got)
	}
}

func TestChannelsAreIndependent(t *testing.T) {
	acc := NewAccumulator()
	acc.OnOverflow(ChannelOutput, 3)
	acc.OnOverflow(ChannelRejection, 5)

	if got := acc.Drain(ChannelOutput); got != 3 {
		t.Errorf("expected output drain of 3, got %d", got)
	}
	if got := acc.Peek(ChannelRejection); got != 5 {
		t.Errorf("expected rejection to be untouched at 5, got %d", got)
	}
}

func TestRestoreIsAdditive(t *testing.T) {
	acc := NewAccumulator()
	acc.OnOverflow(ChannelOutput, 7)

	drained := acc.Drain(ChannelOutput)

	// A pulse batch lands between the drain and the restore.
	acc.OnOverflow(ChannelOutput, 5)

	acc.Restore(ChannelOutput, drained)

	if got := acc.Peek(ChannelOutput); got != 12 {
		t.Errorf("expected 7 restored + 5 concurrent = 12, got %d", got)
	}
}

func TestRepeatedDrainRestoreIsIdempotent(t *testing.T) {
	acc := NewAccumulator()
	acc.OnOverflow(ChannelOutput, 9)

	for i := 0; i < 10; i++ {
		drained := acc.Drain(ChannelOutput)
		acc.Restore(ChannelOutput, drained)
	}

	if got := acc.Peek(ChannelOutput); got != 9 {
		t.Errorf("expected 9 after 10 drain/restore cycles, got %d", got)
	}
}

func TestRestoreZeroIsNoop(t *testing.T) {
	acc := NewAccumulator()
	acc.Restore(ChannelRejection, 0)

	if got := acc.Peek(ChannelRejection); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestOverflowFuncBindsChannel(t *testing.T) {
	acc := NewAccumulator()
	fn := acc.Overflow(ChannelRejection)
	fn(4)
	fn(4)

	if got := acc.Peek(ChannelRejection); got != 8 {
		t.Errorf("expected rejection count 8, got %d", got)
	}
	if got := acc.Peek(ChannelOutput); got != 0 {
		t.Errorf("expected output count 0, got %d", got)
	}
}

// TestConservationUnderConcurrency hammers the accumulator from overflow
// goroutines while a drain/restore cycle runs concurrently. Every drained
// amount is restored, so the final count must equal the exact pulse total.
func TestConservationUnderConcurrency(t *testing.T) {
	const (
		producers         = 8
		pulsesPerProducer = 1000
		drainCycles       = 500
	)

	acc := NewAccumulator()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < pulsesPerProducer; i++ {
				acc.OnOverflow(ChannelOutput, 1)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < drainCycles; i++ {
			drained := acc.Drain(ChannelOutput)
			acc.Restore(ChannelOutput, drained)
		}
	}()

	wg.Wait()

	want := uint64(producers * pulsesPerProducer)
	if got := acc.Peek(ChannelOutput); got != want {
		t.Errorf("pulses lost or double-counted: expected %d, got %d", want, got)
	}
}
