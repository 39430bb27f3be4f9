// Package telemetry implements the periodic reporting cycle: drain the pulse
// accumulator, transmit, and on failure restore the drained counts so no
// pulse is ever lost, while tracking consecutive failures for escalation.
package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/counter"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/errors"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/logger"
)

// Transmitter submits one telemetry report. Implemented by api.Client.
type Transmitter interface {
	CreateTelemetry(ctx context.Context, currentAmps float64, outputCount, rejectionCount uint64) error
}

// Recoverer reestablishes connectivity after a failed report.
type Recoverer interface {
	Recover() error
}

// CurrentSource provides the latest cached RMS current reading.
type CurrentSource interface {
	Latest() float64
}

// Sample is the snapshot taken for one report attempt. It is constructed
// immediately before transmission; on failure its counts are folded back
// into the accumulator.
type Sample struct {
	CurrentAmps    float64
	OutputCount    uint64
	RejectionCount uint64
}

type Reporter struct {
	acc         *counter.Accumulator
	current     CurrentSource
	transmitter Transmitter
	recovery    Recoverer
	tracker     *FailureTracker

	outputEnabled    bool
	rejectionEnabled bool

	inFlight atomic.Bool
}

func NewReporter(
	acc *counter.Accumulator,
	current CurrentSource,
	transmitter Transmitter,
	recovery Recoverer,
	tracker *FailureTracker,
	outputEnabled, rejectionEnabled bool,
) *Reporter {
	return &Reporter{
		acc:              acc,
		current:          current,
		transmitter:      transmitter,
		recovery:         recovery,
		tracker:          tracker,
		outputEnabled:    outputEnabled,
		rejectionEnabled: rejectionEnabled,
	}
}

// Run drives the reporting cycle on its own ticker. It runs off the
// supervisor's timing path so a slow send can never starve the watchdog feed.
func (r *Reporter) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.WithData(ErrInvalidInterval, interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.ReportOnce(ctx); err != nil {
				logger.Error().Err(err).Msg("Reporting cycle failed")
			}
		}
	}
}

// ReportOnce executes one reporting cycle. Overlapping cycles are prevented
// by construction: a tick arriving while the previous cycle is still in
// flight is skipped, the pulses simply ride along in the next drain.
func (r *Reporter) ReportOnce(ctx context.Context) error {
	if !r.inFlight.CompareAndSwap(false, true) {
		logger.Warn().Msg("Previous report still in flight, skipping tick")
		return nil
	}
	defer r.inFlight.Store(false)

	sample := r.snapshot()

	err := r.transmitter.CreateTelemetry(ctx, sample.CurrentAmps, sample.OutputCount, sample.RejectionCount)
	if err == nil {
		r.tracker.RecordSuccess()
		logger.Info().
			Float64("current", sample.CurrentAmps).
			Uint64("output_count", sample.OutputCount).
			Uint64("rejection_count", sample.RejectionCount).
			Msg("Telemetry sent")
		return nil
	}

	// There is no partial send: the full snapshot goes back. Restore adds,
	// so pulses that arrived since the drain are untouched.
	r.acc.Restore(counter.ChannelOutput, sample.OutputCount)
	r.acc.Restore(counter.ChannelRejection, sample.RejectionCount)

	// A send cut short by shutdown is not a server failure: the counts are
	// back, but it must not spend the failure budget or trigger a reconnect.
	if ctx.Err() != nil {
		logger.Debug().Msg("Report cancelled, counts restored")
		return nil
	}

	if recoverErr := r.recovery.Recover(); recoverErr != nil {
		logger.Warn().Err(recoverErr).Msg("Connectivity recovery failed")
	}

	r.tracker.RecordFailure()

	return errors.Wrap(ErrReportFailed, err)
}

// snapshot drains the enabled channels and reads the cached current. A
// disabled channel contributes a constant zero; the report is still sent,
// the current reading alone is meaningful.
func (r *Reporter) snapshot() Sample {
	sample := Sample{CurrentAmps: r.current.Latest()}
	if r.outputEnabled {
		sample.OutputCount = r.acc.Drain(counter.ChannelOutput)
	}
	if r.rejectionEnabled {
		sample.RejectionCount = r.acc.Drain(counter.ChannelRejection)
	}
	return sample
}
