package network

import (
	"github.com/navneet-indusworks/indus-daq-firmware/internal/errors"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/logger"
)

// Recovery reestablishes connectivity after a failed report. A successful
// reconnect runs the restore hook so the HTTPS transport is reconstructed:
// a session poisoned by a broken TLS handshake must not be reused.
type Recovery struct {
	monitor   Monitor
	onRestore func()
}

func NewRecovery(monitor Monitor, onRestore func()) *Recovery {
	return &Recovery{
		monitor:   monitor,
		onRestore: onRestore,
	}
}

// Recover checks the association and reattempts it if lost. Its own failure
// is non-fatal; the caller folds it into the report failure budget.
func (r *Recovery) Recover() error {
	if r.monitor.IsConnected() {
		return nil
	}

	logger.Warn().Msg("Connection lost, attempting to reconnect")

	if err := r.monitor.Reconnect(); err != nil {
		return errors.Wrap(errors.ErrReconnectFailed, err)
	}
	if !r.monitor.IsConnected() {
		return errors.New(errors.ErrReconnectFailed)
	}

	if r.onRestore != nil {
		r.onRestore()
	}
	logger.Info().Msg("Successfully reconnected")

	return nil
}
