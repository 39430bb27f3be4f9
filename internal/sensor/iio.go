package sensor

import (
	"os"
	"strconv"
	"strings"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/errors"
)

// IIOSensor reads the RMS current computed by the CT measurement front end
// from its Linux IIO sysfs attribute. The front end publishes raw values in
// milliamps; Scale converts to amps.
type IIOSensor struct {
	Path  string
	Scale float64
}

func NewIIOSensor(path string, scale float64) *IIOSensor {
	if scale == 0 {
		scale = 1
	}
	return &IIOSensor{
		Path:  path,
		Scale: scale,
	}
}

func (s *IIOSensor) ReadRMS() (float64, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, errors.Wrap(errors.ErrSensorRead, err)
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrSensorRead, err)
	}

	return value * s.Scale, nil
}
