// Package watchdog provides the feed-or-die liveness timer. It is a safety
// net orthogonal to application-level error handling: if the supervisor loop
// stops feeding it for the configured timeout, the device resets regardless
// of what the rest of the system believes its state to be.
package watchdog

import (
	"context"
	"time"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/device"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/logger"
)

const DefaultTimeout = 30 * time.Second

type Watchdog struct {
	timeout  time.Duration
	resetter device.Resetter
	kick     chan struct{}
}

func New(timeout time.Duration, resetter device.Resetter) *Watchdog {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Watchdog{
		timeout:  timeout,
		resetter: resetter,
		kick:     make(chan struct{}, 1),
	}
}

// Feed acknowledges liveness. Never blocks; a feed arriving while another is
// pending collapses into it.
func (w *Watchdog) Feed() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Run arms the timer and blocks until the context is cancelled or the timer
// expires. Expiry resets the device unconditionally.
func (w *Watchdog) Run(ctx context.Context) {
	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	logger.Debug().Dur("timeout", w.timeout).Msg("Watchdog armed")

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.kick:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.timeout)
		case <-timer.C:
			w.resetter.Reset("watchdog starved")
			return
		}
	}
}
