package api

import (
	"encoding/json"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/errors"
)

// Flag is a boolean that also accepts the numeric 0/1 encoding the MES
// backend uses for checkbox fields.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = n != 0
		return nil
	}

	return errors.WithData(errors.ErrInvalidArgument, string(data))
}

func (f Flag) Bool() bool {
	return bool(f)
}

// DeviceConfiguration is the remote configuration fetched from the server at
// startup. Signal types are "NPN" or "PNP"; thresholds are the number of
// hardware edges per accumulator increment; the logging frequency is the
// reporting period in seconds.
type DeviceConfiguration struct {
	EnableStateLogging        Flag   `json:"enable_state_logging"`
	EnableOutputSignal        Flag   `json:"enable_output_signal"`
	OutputSignalType          string `json:"output_signal_type"`
	OutputSignalThreshold     int    `json:"output_signal_threshold"`
	EnableRejectionSignal     Flag   `json:"enable_rejection_signal"`
	RejectionSignalType       string `json:"rejection_signal_type"`
	RejectionSignalThreshold  int    `json:"rejection_signal_threshold"`
	TelemetryLoggingFrequency int    `json:"telemetry_logging_frequency"`
}

type configurationEnvelope struct {
	Data *DeviceConfiguration `json:"data"`
}
