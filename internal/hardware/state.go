package hardware

const (
	// Charge limits below this risk battery health; writes are clamped to it.
	MinChargeLimit = 20
	MaxChargeLimit = 100
)

// State is the aggregate hardware snapshot held by the actor. Consumers
// only ever see copies of it.
type State struct {
	Profile     Profile
	ChargeLimit uint8
	FanCurve    FanCurve
	Connected   bool
}

// Clone returns a snapshot copy safe to hand to another goroutine.
func (s State) Clone() State {
	s.FanCurve = s.FanCurve.Clone()
	return s
}

// ClampChargeLimit bounds a charge limit for the write path. Values held
// locally for editing are never clamped.
func ClampChargeLimit(limit int) uint8 {
	if limit < MinChargeLimit {
		return MinChargeLimit
	}
	if limit > MaxChargeLimit {
		return MaxChargeLimit
	}

	return uint8(limit)
}
