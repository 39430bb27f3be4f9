// Package counter provides pulse accumulation for the monitored digital
// signals. Hardware edge counting is abstracted behind EdgeCounter: the real
// implementation uses the Linux GPIO character device, the fake allows
// testing without hardware. Counts flow from the edge counter's overflow
// callback into an Accumulator, which the reporting task drains.
package counter

import "github.com/navneet-indusworks/indus-daq-firmware/internal/errors"

// Channel identifies one monitored pulse signal.
type Channel int

const (
	ChannelOutput Channel = iota
	ChannelRejection

	numChannels
)

func (c Channel) String() string {
	switch c {
	case ChannelOutput:
		return "output"
	case ChannelRejection:
		return "rejection"
	default:
		return "unknown"
	}
}

// EdgePolarity selects which electrical edge increments the counter.
type EdgePolarity int

const (
	FallingCounts EdgePolarity = iota
	RisingCounts
)

// ParseSignalType maps a sensor wiring type from the device configuration to
// an edge polarity. NPN sensors pull the line low on detection, so the
// falling edge counts; PNP sensors drive it high, so the rising edge counts.
func ParseSignalType(signalType string) (EdgePolarity, error) {
	switch signalType {
	case "NPN":
		return FallingCounts, nil
	case "PNP":
		return RisingCounts, nil
	default:
		return 0, errors.WithData(errors.ErrInvalidConfig, "signal_type: "+signalType)
	}
}

// OverflowFunc is invoked from the edge counter's event context every time a
// threshold-worth of edges has been counted. It must not block.
type OverflowFunc func(pulses uint64)

// EdgeCounter counts electrical edges on one input line.
type EdgeCounter interface {
	// Start begins counting. The overflow callback fires from an
	// asynchronous context once per configured threshold of edges.
	Start() error

	// Close releases the underlying line.
	Close() error
}
