package api

import "github.com/navneet-indusworks/indus-daq-firmware/internal/errors"

const (
	// Client Errors
	ErrInvalidClientConfig = errors.ErrorCode("api_invalid_client_config")

	// Configuration Errors
	ErrConfigurationFetch = errors.ErrorCode("api_configuration_fetch_failed")
	ErrConfigurationEmpty = errors.ErrorCode("api_configuration_empty")

	// Telemetry Errors
	ErrTelemetrySend    = errors.ErrorCode("api_telemetry_send_failed")
	ErrUnexpectedStatus = errors.ErrorCode("api_unexpected_status")
)
