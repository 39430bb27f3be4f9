// Package sensor abstracts the CT current-sensing front end. The RMS
// computation itself happens in the external measurement collaborator; this
// package only defines the read contract and caches the latest value so the
// reporting path never blocks on an ADC conversion.
package sensor

import (
	"sync"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/errors"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/logger"
)

// Sensor reads the RMS current in amps.
type Sensor interface {
	ReadRMS() (float64, error)
}

// Cache holds the most recent RMS reading. The supervisor refreshes it on its
// own cadence; the reporter only ever reads the cached value.
type Cache struct {
	sensor Sensor

	mu     sync.RWMutex
	latest float64
}

func NewCache(s Sensor) *Cache {
	return &Cache{sensor: s}
}

// Warmup discards n readings. The front end needs a handful of conversions
// after power-on before its values settle.
func (c *Cache) Warmup(n int) error {
	for i := 0; i < n; i++ {
		value, err := c.sensor.ReadRMS()
		if err != nil {
			return errors.Wrap(errors.ErrSensorRead, err)
		}
		logger.Debug().Float64("current", value).Msg("Warmup reading discarded")
	}
	return nil
}

// Refresh reads the sensor and updates the cached value. A failed read keeps
// the previous value and is reported to the caller for logging.
func (c *Cache) Refresh() error {
	value, err := c.sensor.ReadRMS()
	if err != nil {
		return errors.Wrap(errors.ErrSensorRead, err)
	}

	c.mu.Lock()
	c.latest = value
	c.mu.Unlock()
	return nil
}

// Latest returns the most recent successfully read RMS current.
func (c *Cache) Latest() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}
