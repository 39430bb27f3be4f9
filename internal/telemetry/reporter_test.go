package telemetry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/counter"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/device"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSendFailed = errors.New("send failed")

// fakeTransmitter records sent samples and fails the first failCount calls.
// The inFlight hook, if set, runs during the send, between the reporter's
// drain and any restore.
type fakeTransmitter struct {
	mu        sync.Mutex
	sent      []telemetry.Sample
	calls     int
	failCount int
	inFlight  func()
	release   chan struct{}
}

func (f *fakeTransmitter) CreateTelemetry(_ context.Context, currentAmps float64, outputCount, rejectionCount uint64) error {
	f.mu.Lock()
	f.calls++
	call := f.calls
	hook := f.inFlight
	release := f.release
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if release != nil {
		<-release
	}

	if call <= f.failCount {
		return errSendFailed
	}

	f.mu.Lock()
	f.sent = append(f.sent, telemetry.Sample{
		CurrentAmps:    currentAmps,
		OutputCount:    outputCount,
		RejectionCount: rejectionCount,
	})
	f.mu.Unlock()
	return nil
}

func (f *fakeTransmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRecoverer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRecoverer) Recover() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeRecoverer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type stubCurrent float64

func (s stubCurrent) Latest() float64 { return float64(s) }

func newReporter(
	acc *counter.Accumulator,
	current float64,
	tx *fakeTransmitter,
	rec *fakeRecoverer,
	resetter device.Resetter,
	maxFailures int,
) (*telemetry.Reporter, *telemetry.FailureTracker) {
	tracker := telemetry.NewFailureTracker(maxFailures, resetter)
	r := telemetry.NewReporter(acc, stubCurrent(current), tx, rec, tracker, true, true)
	return r, tracker
}

func TestCleanReport(t *testing.T) {
	acc := counter.NewAccumulator()
	acc.OnOverflow(counter.ChannelOutput, 12)

	tx := &fakeTransmitter{}
	rec := &fakeRecoverer{}
	resetter := &device.FakeResetter{}
	r, tracker := newReporter(acc, 2.35, tx, rec, resetter, 5)

	err := r.ReportOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, tx.sent, 1)
	assert.InDelta(t, 2.35, tx.sent[0].CurrentAmps, 1e-9)
	assert.Equal(t, uint64(12), tx.sent[0].OutputCount)
	assert.Equal(t, uint64(0), tx.sent[0].RejectionCount)

	assert.Equal(t, uint64(0), acc.Peek(counter.ChannelOutput), "channel should be drained")
	assert.Equal(t, uint(0), tracker.Count())
	assert.Equal(t, 0, resetter.Calls())
	assert.Equal(t, 0, rec.callCount(), "no recovery on success")
}

func TestFailureRestoresCounts(t *testing.T) {
	acc := counter.NewAccumulator()
	acc.OnOverflow(counter.ChannelOutput, 7)

	tx := &fakeTransmitter{failCount: 1}
	rec := &fakeRecoverer{}
	resetter := &device.FakeResetter{}
	r, tracker := newReporter(acc, 1.0, tx, rec, resetter, 5)

	err := r.ReportOnce(context.Background())
	require.Error(t, err)

	assert.Equal(t, uint64(7), acc.Peek(counter.ChannelOutput), "drained count must be restored")
	assert.Equal(t, uint(1), tracker.Count())
	assert.Equal(t, 1, rec.callCount(), "connectivity recovery attempted once")
	assert.Equal(t, 0, resetter.Calls())
}

func TestOverflowBetweenDrainAndRestore(t *testing.T) {
	acc := counter.NewAccumulator()
	acc.OnOverflow(counter.ChannelOutput, 7)

	tx := &fakeTransmitter{failCount: 1}
	tx.inFlight = func() {
		// Lands after the drain, before the restore.
		acc.OnOverflow(counter.ChannelOutput, 5)
	}
	rec := &fakeRecoverer{}
	resetter := &device.FakeResetter{}
	r, _ := newReporter(acc, 1.0, tx, rec, resetter, 5)

	require.Error(t, r.ReportOnce(context.Background()))
	assert.Equal(t, uint64(12), acc.Peek(counter.ChannelOutput))

	// The next successful report carries both the restored deficit and the
	// interleaved pulses, nothing dropped, nothing doubled.
	tx.inFlight = nil
	require.NoError(t, r.ReportOnce(context.Background()))
	require.Len(t, tx.sent, 1)
	assert.Equal(t, uint64(12), tx.sent[0].OutputCount)
	assert.Equal(t, uint64(0), acc.Peek(counter.ChannelOutput))
}

func TestEscalationAfterMaxFailures(t *testing.T) {
	acc := counter.NewAccumulator()
	tx := &fakeTransmitter{failCount: 100}
	rec := &fakeRecoverer{err: errors.New("still down")}
	resetter := &device.FakeResetter{}
	r, _ := newReporter(acc, 0.5, tx, rec, resetter, 5)

	for cycle := 1; cycle <= 4; cycle++ {
		require.Error(t, r.ReportOnce(context.Background()))
		assert.Equal(t, 0, resetter.Calls(), "no reset before the 5th failure (cycle %d)", cycle)
	}

	require.Error(t, r.ReportOnce(context.Background()))
	assert.Equal(t, 1, resetter.Calls(), "reset exactly once at the 5th failure")

	// Further failures must not trigger additional resets.
	require.Error(t, r.ReportOnce(context.Background()))
	assert.Equal(t, 1, resetter.Calls())
}

func TestSuccessResetsFailureCount(t *testing.T) {
	acc := counter.NewAccumulator()
	tx := &fakeTransmitter{failCount: 3}
	rec := &fakeRecoverer{}
	resetter := &device.FakeResetter{}
	r, tracker := newReporter(acc, 0.5, tx, rec, resetter, 5)

	for i := 0; i < 3; i++ {
		require.Error(t, r.ReportOnce(context.Background()))
	}
	assert.Equal(t, uint(3), tracker.Count())

	require.NoError(t, r.ReportOnce(context.Background()))
	assert.Equal(t, uint(0), tracker.Count())
	assert.Equal(t, 0, resetter.Calls())
}

func TestEscalationPreservesUnsentTotal(t *testing.T) {
	acc := counter.NewAccumulator()
	tx := &fakeTransmitter{failCount: 100}
	rec := &fakeRecoverer{}
	resetter := &device.FakeResetter{}
	r, _ := newReporter(acc, 0.5, tx, rec, resetter, 5)

	for cycle := 0; cycle < 5; cycle++ {
		acc.OnOverflow(counter.ChannelOutput, 3)
		require.Error(t, r.ReportOnce(context.Background()))
	}

	assert.Equal(t, 1, resetter.Calls())
	assert.Equal(t, uint64(15), acc.Peek(counter.ChannelOutput),
		"all unsent pulses must remain accumulated at reset time")
}

func TestDisabledChannelIsZeroAndUntouched(t *testing.T) {
	acc := counter.NewAccumulator()
	acc.OnOverflow(counter.ChannelRejection, 6)

	tx := &fakeTransmitter{}
	rec := &fakeRecoverer{}
	resetter := &device.FakeResetter{}
	tracker := telemetry.NewFailureTracker(5, resetter)
	r := telemetry.NewReporter(acc, stubCurrent(1.5), tx, rec, tracker, true, false)

	require.NoError(t, r.ReportOnce(context.Background()))
	require.Len(t, tx.sent, 1)
	assert.Equal(t, uint64(0), tx.sent[0].RejectionCount)
	assert.Equal(t, uint64(6), acc.Peek(counter.ChannelRejection),
		"disabled channel must not be drained")
}

func TestTickSkippedWhileInFlight(t *testing.T) {
	acc := counter.NewAccumulator()
	acc.OnOverflow(counter.ChannelOutput, 4)

	tx := &fakeTransmitter{release: make(chan struct{})}
	rec := &fakeRecoverer{}
	resetter := &device.FakeResetter{}
	r, _ := newReporter(acc, 1.0, tx, rec, resetter, 5)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		done <- r.ReportOnce(context.Background())
	}()

	<-started
	// Wait until the first cycle is inside the transmitter.
	for tx.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	// A tick arriving mid-cycle is skipped without a second send.
	require.NoError(t, r.ReportOnce(context.Background()))
	assert.Equal(t, 1, tx.callCount())

	close(tx.release)
	require.NoError(t, <-done)
	require.Len(t, tx.sent, 1)
	assert.Equal(t, uint64(4), tx.sent[0].OutputCount)
}

func TestShutdownCancellationIsNotAFailure(t *testing.T) {
	acc := counter.NewAccumulator()
	acc.OnOverflow(counter.ChannelOutput, 9)

	ctx, cancel := context.WithCancel(context.Background())
	tx := &fakeTransmitter{failCount: 1}
	tx.inFlight = func() { cancel() }
	rec := &fakeRecoverer{}
	resetter := &device.FakeResetter{}
	r, tracker := newReporter(acc, 1.0, tx, rec, resetter, 5)

	require.NoError(t, r.ReportOnce(ctx))

	assert.Equal(t, uint64(9), acc.Peek(counter.ChannelOutput),
		"drained count must be restored on cancellation")
	assert.Equal(t, uint(0), tracker.Count(), "cancellation must not spend the failure budget")
	assert.Equal(t, 0, rec.callCount(), "no reconnect attempt during shutdown")
	assert.Equal(t, 0, resetter.Calls())
}

func TestRunRejectsInvalidInterval(t *testing.T) {
	acc := counter.NewAccumulator()
	r, _ := newReporter(acc, 0, &fakeTransmitter{}, &fakeRecoverer{}, &device.FakeResetter{}, 5)

	err := r.Run(context.Background(), 0)
	require.Error(t, err)
}
