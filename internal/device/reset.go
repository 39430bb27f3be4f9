// Package device holds the reset contract shared by the watchdog and the
// failure escalation path. On this platform a "device reset" is a process
// exit with a dedicated code; the service manager performs the restart.
package device

import (
	"os"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/logger"
)

// ResetExitCode is the exit status used for escalation-triggered restarts,
// distinct from ordinary failures so the service manager can tell them apart.
const ResetExitCode = 86

// Resetter performs an unconditional, non-returning device reset.
type Resetter interface {
	Reset(reason string)
}

// ExitResetter resets by terminating the process.
type ExitResetter struct{}

func (ExitResetter) Reset(reason string) {
	logger.Error().Str("reason", reason).Msg("Resetting device")
	os.Exit(ResetExitCode)
}
