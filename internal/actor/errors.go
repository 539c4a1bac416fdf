package actor

import "codeberg.org/mutker/powerctl/internal/errors"

const (
	// Connection Errors
	ErrNotConnected = errors.ErrorCode("actor_not_connected")

	// Operation Errors
	ErrFanCurveUnsupported = errors.ErrorCode("actor_fan_curve_unsupported")
	ErrCycleProfile        = errors.ErrorCode("actor_cycle_profile_failed")

	// Plumbing Errors
	ErrIntentDropped = errors.ErrorCode("actor_intent_dropped")
	ErrIntentClosed  = errors.ErrorCode("actor_intent_channel_closed")
)
