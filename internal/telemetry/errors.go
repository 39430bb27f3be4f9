package telemetry

import "github.com/navneet-indusworks/indus-daq-firmware/internal/errors"

const (
	// Reporting Errors
	ErrReportFailed = errors.ErrorCode("telemetry_report_failed")

	// Configuration Errors
	ErrInvalidInterval = errors.ErrorCode("telemetry_invalid_interval")
)
