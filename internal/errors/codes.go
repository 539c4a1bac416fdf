package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrNotImplemented  ErrorCode = "not_implemented"
	ErrUnavailable     ErrorCode = "service_unavailable"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrMissingConfig   ErrorCode = "missing_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Bus errors
	ErrBusConnection ErrorCode = "bus_connection_failed"
	ErrBusCall       ErrorCode = "bus_call_failed"
	ErrNotConnected  ErrorCode = "not_connected"

	// Operation errors
	ErrOperationFailed      ErrorCode = "operation_failed"
	ErrTimeout              ErrorCode = "operation_timeout"
	ErrUnsupportedOperation ErrorCode = "unsupported_operation"
	ErrChannelClosed        ErrorCode = "channel_closed"

	// Application errors
	ErrInitApp  ErrorCode = "init_app_failed"
	ErrMainLoop ErrorCode = "main_loop_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:             "Internal error occurred",
	ErrInvalidArgument:      "Invalid argument provided",
	ErrNotImplemented:       "Operation not implemented",
	ErrUnavailable:          "Service unavailable",
	ErrInvalidConfig:        "Invalid configuration",
	ErrMissingConfig:        "Missing configuration",
	ErrBindFlags:            "Failed to bind flags",
	ErrReadConfig:           "Failed to read configuration",
	ErrInvalidLogLevel:      "Invalid log level",
	ErrInitFailed:           "Initialization failed",
	ErrShutdownFailed:       "Shutdown failed",
	ErrBusConnection:        "D-Bus connection failed",
	ErrBusCall:              "D-Bus method call failed",
	ErrNotConnected:         "Not connected",
	ErrOperationFailed:      "Operation failed",
	ErrTimeout:              "Operation timed out",
	ErrUnsupportedOperation: "Operation not supported",
	ErrChannelClosed:        "Channel closed",
	ErrInitApp:              "Failed to initialize application",
	ErrMainLoop:             "Error in main loop",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
