package actor

import (
	"context"

	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/hardware"
	"codeberg.org/mutker/powerctl/internal/logger"
	"codeberg.org/mutker/powerctl/internal/platform"
)

// Actor owns the only live Gateway and the authoritative hardware
// snapshot. All bus access is serialized through its event loop; observers
// only ever see snapshot copies delivered as updates.
type Actor struct {
	gateway platform.Gateway
	intents chan Intent
	bcast   *broadcaster
	state   hardware.State
}

func newActor(cfg Config, gateway platform.Gateway) *Actor {
	return &Actor{
		gateway: gateway,
		intents: make(chan Intent, cfg.IntentBuffer),
		bcast:   newBroadcaster(cfg.UpdateBuffer),
		state: hardware.State{
			FanCurve: hardware.DefaultFanCurve(),
		},
	}
}

// run is the event loop: one goroutine, two sources, processed in arrival
// order with neither source starved. It ends on Shutdown or when the
// intent channel is closed, and closes the gateway on the way out.
func (a *Actor) run() {
	ctx := context.Background()

	a.connect(ctx)
	if a.state.Connected {
		a.refreshState(ctx)
	}

	changes := a.gateway.ProfileChanges()

	for {
		select {
		case intent, ok := <-a.intents:
			if !ok {
				logger.Debug().
					Str("error_code", string(ErrIntentClosed)).
					Msg("Intent channel closed, stopping actor")
				a.shutdown()
				return
			}
			if intent.Kind == IntentShutdown {
				a.shutdown()
				return
			}
			a.handleIntent(ctx, intent)

		case code, ok := <-changes:
			if !ok {
				// Subscription gone with the connection. Not a reconnect
				// trigger: only an explicit RefreshState re-attempts connect.
				changes = nil
				continue
			}
			a.handleProfileChange(code)
		}
	}
}

func (a *Actor) handleIntent(ctx context.Context, intent Intent) {
	logger.Debug().Str("intent", intent.Kind.String()).Msg("Processing intent")

	switch intent.Kind {
	case IntentRefreshState:
		if !a.state.Connected {
			a.connect(ctx)
			if !a.state.Connected {
				return
			}
		}
		a.refreshState(ctx)

	case IntentSetProfile:
		a.setProfile(ctx, intent.Profile)

	case IntentSetChargeLimit:
		a.setChargeLimit(ctx, intent.ChargeLimit)

	case IntentSetFanCurve:
		a.setFanCurve(intent.FanCurve)

	case IntentSetFanCurveEnabled:
		a.setFanCurveEnabled()

	case IntentCycleProfile:
		a.cycleProfile(ctx)

	case IntentShutdown:
		// handled by the loop
	}
}

// handleProfileChange reacts to an externally triggered profile change
// (hardware hotkey, another client). Decoding is total, so there is no
// failure path.
func (a *Actor) handleProfileChange(code uint32) {
	profile := hardware.ProfileFromWire(code)
	a.state.Profile = profile
	a.publish(Update{Kind: UpdateProfileChanged, Profile: profile})
}

func (a *Actor) connect(ctx context.Context) {
	if err := a.gateway.Connect(ctx); err != nil {
		a.publishError(err)
		a.publish(Update{Kind: UpdateConnectionStatus, Connected: false})
		return
	}

	a.state.Connected = true
	a.publish(Update{Kind: UpdateConnectionStatus, Connected: true})
}

// refreshState reassembles the full snapshot. Aggregation is best-effort:
// a failed read is reported but does not abort the remaining fields, and
// exactly one StateRefresh is emitted.
func (a *Actor) refreshState(ctx context.Context) {
	if code, err := a.gateway.ReadProfile(ctx); err != nil {
		a.publishError(err)
	} else {
		a.state.Profile = hardware.ProfileFromWire(code)
	}

	if limit, err := a.gateway.ReadChargeLimit(ctx); err != nil {
		a.publishError(err)
	} else {
		a.state.ChargeLimit = limit
	}

	// The daemon offers no fan curve interface; fall back to the default.
	a.state.FanCurve = hardware.DefaultFanCurve()

	a.publish(Update{Kind: UpdateStateRefresh, State: a.state.Clone()})
}

func (a *Actor) setProfile(ctx context.Context, profile hardware.Profile) {
	if !a.requireConnected() {
		return
	}

	if err := a.gateway.WriteProfile(ctx, profile.Wire()); err != nil {
		a.publishError(err)
		return
	}

	a.state.Profile = profile
	a.publish(Update{Kind: UpdateProfileChanged, Profile: profile})
}

func (a *Actor) setChargeLimit(ctx context.Context, limit int) {
	if !a.requireConnected() {
		return
	}

	clamped := hardware.ClampChargeLimit(limit)
	if err := a.gateway.WriteChargeLimit(ctx, clamped); err != nil {
		a.publishError(err)
		return
	}

	a.state.ChargeLimit = clamped
	a.publish(Update{Kind: UpdateChargeLimitChanged, ChargeLimit: clamped})
}

// setFanCurve reports the missing daemon interface but still echoes the
// requested curve so observers can keep editing it locally. The echo is
// deliberate and must not be unified with the strict reject-on-failure
// policy of the other setters.
func (a *Actor) setFanCurve(curve hardware.FanCurve) {
	errFactory := errors.New()
	a.publishError(errFactory.WithMessage(ErrFanCurveUnsupported, "Fan curve control not available"))
	a.publish(Update{Kind: UpdateFanCurveChanged, FanCurve: curve.Clone()})
}

func (a *Actor) setFanCurveEnabled() {
	errFactory := errors.New()
	a.publishError(errFactory.WithMessage(ErrFanCurveUnsupported, "Fan curve control not available"))
}

// cycleProfile delegates the rotation to the daemon. The confirming
// ProfileChanged arrives through the notification stream.
func (a *Actor) cycleProfile(ctx context.Context) {
	if !a.requireConnected() {
		return
	}

	if err := a.gateway.NextProfile(ctx); err != nil {
		errFactory := errors.New()
		a.publishError(errFactory.Wrap(ErrCycleProfile, err))
	}
}

// requireConnected publishes the rejection for Set* intents in Disconnected
// state and reports whether the operation may proceed.
func (a *Actor) requireConnected() bool {
	if a.state.Connected {
		return true
	}

	errFactory := errors.New()
	a.publishError(errFactory.WithMessage(ErrNotConnected, "Not connected"))

	return false
}

func (a *Actor) publish(update Update) {
	logger.Debug().Str("update", update.Kind.String()).Msg("Broadcasting update")
	a.bcast.publish(update)
}

func (a *Actor) publishError(err error) {
	logger.Debug().Err(err).Msg("Broadcasting error update")
	a.bcast.publish(Update{
		Kind:    UpdateError,
		Code:    errors.CodeOf(err),
		Message: err.Error(),
	})
}

func (a *Actor) shutdown() {
	if err := a.gateway.Close(); err != nil {
		logger.Debug().Err(err).Msg("Gateway close failed")
	}
}
