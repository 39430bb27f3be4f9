package statelog

import "github.com/navneet-indusworks/indus-daq-firmware/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("statelog_invalid_config")
	ErrInvalidDBPath = errors.ErrorCode("statelog_invalid_db_path")

	// Recording Errors
	ErrInvalidSnapshot = errors.ErrorCode("statelog_invalid_snapshot")
	ErrRecordFailed    = errors.ErrorCode("statelog_record_failed")

	// Storage Errors
	ErrStorageAccess = errors.ErrorCode("statelog_storage_access_failed")
	ErrStorageInit   = errors.ErrorCode("statelog_storage_init_failed")
	ErrStorageClose  = errors.ErrorCode("statelog_storage_close_failed")

	// Operation Errors
	ErrOperationTimeout = errors.ErrorCode("statelog_operation_timeout")
	ErrServiceShutdown  = errors.ErrorCode("statelog_service_shutdown_failed")
)
