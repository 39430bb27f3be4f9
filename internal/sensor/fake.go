package sensor

import "errors"

// FakeSensor is a test double that returns scripted RMS readings.
// If readings are exhausted, the last one repeats.
type FakeSensor struct {
	Readings []float64

	// ReadError, if set, is returned by every ReadRMS call.
	ReadError error

	index int
	Reads int
}

func NewFakeSensor(readings ...float64) *FakeSensor {
	return &FakeSensor{Readings: readings}
}

func (f *FakeSensor) ReadRMS() (float64, error) {
	f.Reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Readings) == 0 {
		return 0, errors.New("no readings configured")
	}

	value := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return value, nil
}
