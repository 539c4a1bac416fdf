package platform

import "codeberg.org/mutker/powerctl/internal/errors"

const (
	// Connection Errors
	ErrConnectFailed    = errors.ErrorCode("platform_connect_failed")
	ErrNotConnected     = errors.ErrorCode("platform_not_connected")
	ErrSubscribeSignals = errors.ErrorCode("platform_subscribe_signals_failed")
	ErrCloseFailed      = errors.ErrorCode("platform_close_failed")

	// Property Errors
	ErrReadProfile      = errors.ErrorCode("platform_read_profile_failed")
	ErrWriteProfile     = errors.ErrorCode("platform_write_profile_failed")
	ErrReadChargeLimit  = errors.ErrorCode("platform_read_charge_limit_failed")
	ErrWriteChargeLimit = errors.ErrorCode("platform_write_charge_limit_failed")

	// Method Errors
	ErrNextProfile = errors.ErrorCode("platform_next_profile_failed")

	// Decode Errors
	ErrUnexpectedType = errors.ErrorCode("platform_unexpected_property_type")
)
