package actor

import (
	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/hardware"
)

// IntentKind identifies a caller request consumed by the actor exactly once.
type IntentKind int

const (
	// IntentRefreshState requests a full state fetch, connecting first if needed
	IntentRefreshState IntentKind = iota
	// IntentSetProfile sets the platform power profile
	IntentSetProfile
	// IntentSetChargeLimit sets the battery charge limit (clamped to 20-100 on write)
	IntentSetChargeLimit
	// IntentSetFanCurve sets a custom fan curve
	IntentSetFanCurve
	// IntentSetFanCurveEnabled toggles custom fan curve control
	IntentSetFanCurveEnabled
	// IntentCycleProfile rotates to the daemon's next platform profile
	IntentCycleProfile
	// IntentShutdown terminates the actor loop
	IntentShutdown
)

func (k IntentKind) String() string {
	return [...]string{
		"RefreshState",
		"SetProfile",
		"SetChargeLimit",
		"SetFanCurve",
		"SetFanCurveEnabled",
		"CycleProfile",
		"Shutdown",
	}[k]
}

// Intent is a command, not a query: outcomes are observed through the
// update stream, never through a response channel.
type Intent struct {
	Kind        IntentKind
	Profile     hardware.Profile
	ChargeLimit int
	FanCurve    hardware.FanCurve
	Enabled     bool
}

// UpdateKind identifies a fact broadcast by the actor to its observers.
type UpdateKind int

const (
	// UpdateStateRefresh carries a full hardware snapshot
	UpdateStateRefresh UpdateKind = iota
	// UpdateProfileChanged confirms a profile transition, local or external
	UpdateProfileChanged
	// UpdateChargeLimitChanged confirms a charge limit write
	UpdateChargeLimitChanged
	// UpdateFanCurveChanged echoes a requested fan curve for editing continuity
	UpdateFanCurveChanged
	// UpdateConnectionStatus reports a bus connection transition
	UpdateConnectionStatus
	// UpdateError reports a failed or unsupported operation
	UpdateError
)

func (k UpdateKind) String() string {
	return [...]string{
		"StateRefresh",
		"ProfileChanged",
		"ChargeLimitChanged",
		"FanCurveChanged",
		"ConnectionStatus",
		"Error",
	}[k]
}

// Update is immutable once constructed; payload fields beyond the one
// selected by Kind hold zero values.
type Update struct {
	Kind        UpdateKind
	State       hardware.State
	Profile     hardware.Profile
	ChargeLimit uint8
	FanCurve    hardware.FanCurve
	Connected   bool
	Code        errors.ErrorCode
	Message     string
}
