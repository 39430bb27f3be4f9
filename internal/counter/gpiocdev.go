//go:build linux

package counter

import (
	"sync"
	"time"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/errors"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/logger"
	"github.com/warthog618/go-gpiocdev"
)

// debouncePeriod filters contact noise on the signal lines. The sensors are
// open-collector proximity switches; genuine pulses are far slower than 1ms.
const debouncePeriod = time.Millisecond

// LineCounter counts edges on a GPIO line using the Linux GPIO character
// device. The kernel delivers one event per configured edge; every
// `threshold` events the overflow callback is credited with one
// threshold-worth of pulses, mirroring a hardware counter's overflow
// interrupt.
type LineCounter struct {
	chipName   string
	offset     int
	polarity   EdgePolarity
	threshold  uint64
	onOverflow OverflowFunc

	chip *gpiocdev.Chip
	line *gpiocdev.Line

	mu    sync.Mutex
	edges uint64
}

func NewLineCounter(chipName string, offset int, polarity EdgePolarity, threshold int, fn OverflowFunc) *LineCounter {
	if threshold < 1 {
		threshold = 1
	}
	return &LineCounter{
		chipName:   chipName,
		offset:     offset,
		polarity:   polarity,
		threshold:  uint64(threshold),
		onOverflow: fn,
	}
}

// Start requests the line and begins receiving edge events.
// Lines are requested with pull-up bias to match the open-collector sensor
// wiring the device ships with.
func (c *LineCounter) Start() error {
	chip, err := gpiocdev.NewChip(c.chipName)
	if err != nil {
		return errors.Wrap(errors.ErrCounterInit, err)
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithDebounce(debouncePeriod),
		gpiocdev.WithEventHandler(c.handleEvent),
	}
	if c.polarity == RisingCounts {
		opts = append(opts, gpiocdev.WithRisingEdge)
	} else {
		opts = append(opts, gpiocdev.WithFallingEdge)
	}

	line, err := chip.RequestLine(c.offset, opts...)
	if err != nil {
		chip.Close()
		return errors.Wrap(errors.ErrCounterInit, err)
	}

	c.chip = chip
	c.line = line

	logger.Debug().
		Str("chip", c.chipName).
		Int("offset", c.offset).
		Uint64("threshold", c.threshold).
		Msg("Edge counter started")

	return nil
}

// handleEvent runs on the gpiocdev event goroutine. It must stay short: count
// the edge, fire the overflow batch when due, return.
func (c *LineCounter) handleEvent(_ gpiocdev.LineEvent) {
	c.mu.Lock()
	c.edges++
	fire := c.edges >= c.threshold
	if fire {
		c.edges = 0
	}
	c.mu.Unlock()

	if fire && c.onOverflow != nil {
		c.onOverflow(c.threshold)
	}
}

// Close releases the line and chip.
func (c *LineCounter) Close() error {
	var errs []error
	if c.line != nil {
		if err := c.line.Close(); err != nil {
			errs = append(errs, err)
		}
		c.line = nil
	}
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, err)
		}
		c.chip = nil
	}
	if len(errs) > 0 {
		return errors.WithData(errors.ErrShutdownFailed, errs)
	}
	return nil
}
