package actor

import (
	"codeberg.org/mutker/powerctl/internal/hardware"
	"codeberg.org/mutker/powerctl/internal/logger"
	"codeberg.org/mutker/powerctl/internal/platform"
)

const (
	defaultIntentBuffer = 32
	defaultUpdateBuffer = 64
)

// Config sizes the actor's channels.
type Config struct {
	IntentBuffer int
	UpdateBuffer int
}

func DefaultConfig() Config {
	return Config{
		IntentBuffer: defaultIntentBuffer,
		UpdateBuffer: defaultUpdateBuffer,
	}
}

func (c Config) withDefaults() Config {
	if c.IntentBuffer <= 0 {
		c.IntentBuffer = defaultIntentBuffer
	}
	if c.UpdateBuffer <= 0 {
		c.UpdateBuffer = defaultUpdateBuffer
	}

	return c
}

// Handle is the only reference other components hold to the actor. It
// bridges caller goroutines to the actor without ever blocking the caller:
// sends drop when the intent channel is full, receives are polls.
type Handle struct {
	intents chan<- Intent
	sub     *subscription
	bcast   *broadcaster
}

// Spawn starts exactly one actor goroutine owning the given gateway and
// returns the first handle to it.
func Spawn(cfg Config, gateway platform.Gateway) *Handle {
	cfg = cfg.withDefaults()
	a := newActor(cfg, gateway)

	// Subscribe before the loop starts so startup updates are not missed.
	h := &Handle{
		intents: a.intents,
		sub:     a.bcast.subscribe(),
		bcast:   a.bcast,
	}

	go a.run()

	return h
}

// Subscribe returns an independent handle sharing the intent channel, with
// its own update cursor starting at the current position.
func (h *Handle) Subscribe() *Handle {
	return &Handle{
		intents: h.intents,
		sub:     h.bcast.subscribe(),
		bcast:   h.bcast,
	}
}

// Send enqueues an intent without blocking. A full channel drops the
// intent: every command is re-issuable by the user, and caller liveness
// outranks delivery here.
func (h *Handle) Send(intent Intent) {
	select {
	case h.intents <- intent:
	default:
		logger.Debug().
			Str("intent", intent.Kind.String()).
			Str("error_code", string(ErrIntentDropped)).
			Msg("Intent channel full, dropping intent")
	}
}

// TryRecv polls for the next update without blocking.
func (h *Handle) TryRecv() (Update, bool) {
	return h.sub.tryRecv()
}

// Missed reports how many updates this handle has lost to ring overruns.
func (h *Handle) Missed() uint64 {
	return h.sub.Missed()
}

// Refresh requests a full state fetch.
func (h *Handle) Refresh() {
	h.Send(Intent{Kind: IntentRefreshState})
}

// SetProfile sets the platform power profile.
func (h *Handle) SetProfile(profile hardware.Profile) {
	h.Send(Intent{Kind: IntentSetProfile, Profile: profile})
}

// SetChargeLimit sets the battery charge limit.
func (h *Handle) SetChargeLimit(limit int) {
	h.Send(Intent{Kind: IntentSetChargeLimit, ChargeLimit: limit})
}

// SetFanCurve sets a custom fan curve.
func (h *Handle) SetFanCurve(curve hardware.FanCurve) {
	h.Send(Intent{Kind: IntentSetFanCurve, FanCurve: curve})
}

// SetFanCurveEnabled toggles custom fan curve control.
func (h *Handle) SetFanCurveEnabled(enabled bool) {
	h.Send(Intent{Kind: IntentSetFanCurveEnabled, Enabled: enabled})
}

// CycleProfile rotates to the daemon's next platform profile.
func (h *Handle) CycleProfile() {
	h.Send(Intent{Kind: IntentCycleProfile})
}

// Shutdown terminates the actor loop.
func (h *Handle) Shutdown() {
	h.Send(Intent{Kind: IntentShutdown})
}
