package platform

import "context"

// Gateway gives serialized access to the platform daemon on the system bus.
// The actor owns the only live Gateway; every call is a discrete fallible
// operation with no implicit retry and no gateway-imposed deadline.
type Gateway interface {
	// Connect establishes the bus connection and the profile-change
	// subscription. A failed Connect leaves the gateway disconnected.
	Connect(ctx context.Context) error

	// Connected reports whether a live bus connection is held.
	Connected() bool

	// ReadProfile returns the current platform profile wire code.
	ReadProfile(ctx context.Context) (uint32, error)

	// WriteProfile sets the platform profile from a wire code.
	WriteProfile(ctx context.Context, code uint32) error

	// ReadChargeLimit returns the battery charge control end threshold.
	ReadChargeLimit(ctx context.Context) (uint8, error)

	// WriteChargeLimit sets the battery charge control end threshold.
	WriteChargeLimit(ctx context.Context, limit uint8) error

	// NextProfile asks the daemon to rotate to its next platform profile.
	// The resulting change arrives through ProfileChanges.
	NextProfile(ctx context.Context) error

	// ProfileChanges streams profile wire codes for externally triggered
	// changes (hardware hotkey, another client). The channel is closed
	// when the gateway closes.
	ProfileChanges() <-chan uint32

	// Close tears down the subscription and the bus connection.
	Close() error
}
