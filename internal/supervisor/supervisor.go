// Package supervisor runs the always-on liveness loop. Each tick feeds the
// watchdog, refreshes the cached current reading and records a state
// snapshot. The loop never touches the network: report transmission runs on
// the reporter's own ticker goroutine, so a slow send cannot starve the
// watchdog feed.
package supervisor

import (
	"context"
	"time"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/counter"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/logger"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/sensor"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/statelog"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/telemetry"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/watchdog"
)

// Supervisor owns the shared agent state: the pulse accumulator, the cached
// sensor reading, the failure tracker and the recorders. Everything is an
// explicit field, nothing ambient.
type Supervisor struct {
	Accumulator *counter.Accumulator
	Current     *sensor.Cache
	Watchdog    *watchdog.Watchdog
	Tracker     *telemetry.FailureTracker
	Recorder    statelog.Recorder
	Interval    time.Duration

	// SensorEnabled mirrors the remote enable_state_logging flag, which
	// gates current monitoring. When false the cached reading stays zero.
	SensorEnabled bool
}

// Run drives the loop until the context is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Watchdog.Feed()

			if s.SensorEnabled {
				if err := s.Current.Refresh(); err != nil {
					logger.Warn().Err(err).Msg("Sensor refresh failed")
				}
			}

			snapshot := s.snapshot()
			logger.Debug().
				Float64("current", snapshot.CurrentAmps).
				Uint64("output_pulses", snapshot.OutputAccumulated).
				Uint64("rejection_pulses", snapshot.RejectionAccumulated).
				Uint("consecutive_failures", snapshot.ConsecutiveFailures).
				Msg("Device state")

			if err := s.Recorder.Record(ctx, snapshot); err != nil {
				logger.Warn().Err(err).Msg("State snapshot record failed")
			}
		}
	}
}

func (s *Supervisor) snapshot() *statelog.Snapshot {
	return &statelog.Snapshot{
		Timestamp:            time.Now(),
		CurrentAmps:          s.Current.Latest(),
		OutputAccumulated:    s.Accumulator.Peek(counter.ChannelOutput),
		RejectionAccumulated: s.Accumulator.Peek(counter.ChannelRejection),
		ConsecutiveFailures:  s.Tracker.Count(),
	}
}
