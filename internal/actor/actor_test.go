package actor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/powerctl/internal/actor"
	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/hardware"
	"codeberg.org/mutker/powerctl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(false, false, true)
	m.Run()
}

// fakeGateway implements platform.Gateway against scripted results.
type fakeGateway struct {
	mu sync.Mutex

	connectErr      error
	profile         uint32
	chargeLimit     uint8
	readProfileErr  error
	readChargeErr   error
	writeProfileErr error
	writeChargeErr  error
	nextErr         error

	connected     bool
	closed        bool
	profileWrites []uint32
	chargeWrites  []uint8
	nextCalls     int
	changes       chan uint32
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		changes: make(chan uint32, 16),
	}
}

func (g *fakeGateway) Connect(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.connectErr != nil {
		return g.connectErr
	}
	g.connected = true

	return nil
}

func (g *fakeGateway) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

func (g *fakeGateway) ReadProfile(_ context.Context) (uint32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.readProfileErr != nil {
		return 0, g.readProfileErr
	}

	return g.profile, nil
}

func (g *fakeGateway) WriteProfile(_ context.Context, code uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.writeProfileErr != nil {
		return g.writeProfileErr
	}
	g.profile = code
	g.profileWrites = append(g.profileWrites, code)

	return nil
}

func (g *fakeGateway) ReadChargeLimit(_ context.Context) (uint8, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.readChargeErr != nil {
		return 0, g.readChargeErr
	}

	return g.chargeLimit, nil
}

func (g *fakeGateway) WriteChargeLimit(_ context.Context, limit uint8) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.writeChargeErr != nil {
		return g.writeChargeErr
	}
	g.chargeLimit = limit
	g.chargeWrites = append(g.chargeWrites, limit)

	return nil
}

func (g *fakeGateway) NextProfile(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.nextErr != nil {
		return g.nextErr
	}
	g.nextCalls++

	return nil
}

func (g *fakeGateway) ProfileChanges() <-chan uint32 {
	return g.changes
}

func (g *fakeGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.connected = false
	g.closed = true

	return nil
}

func (g *fakeGateway) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// nextUpdate polls until an update arrives or the test deadline passes.
func nextUpdate(t *testing.T, h *actor.Handle) actor.Update {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if update, ok := h.TryRecv(); ok {
			return update
		}
		time.Sleep(time.Millisecond)
	}

	t.Fatal("timed out waiting for update")
	return actor.Update{}
}

// settleUpdates drains everything published within a settling window.
func settleUpdates(h *actor.Handle) []actor.Update {
	deadline := time.Now().Add(150 * time.Millisecond)
	var updates []actor.Update
	for time.Now().Before(deadline) {
		if update, ok := h.TryRecv(); ok {
			updates = append(updates, update)
			continue
		}
		time.Sleep(time.Millisecond)
	}

	return updates
}

func kinds(updates []actor.Update) []actor.UpdateKind {
	ks := make([]actor.UpdateKind, len(updates))
	for i, u := range updates {
		ks[i] = u.Kind
	}
	return ks
}

func spawnConnected(t *testing.T, gw *fakeGateway) *actor.Handle {
	t.Helper()

	h := actor.Spawn(actor.DefaultConfig(), gw)

	update := nextUpdate(t, h)
	require.Equal(t, actor.UpdateConnectionStatus, update.Kind)
	require.True(t, update.Connected)

	update = nextUpdate(t, h)
	require.Equal(t, actor.UpdateStateRefresh, update.Kind)

	return h
}

func TestRefreshWhileUnreachable(t *testing.T) {
	errFactory := errors.New()
	gw := newFakeGateway()
	gw.connectErr = errFactory.New(errors.ErrBusConnection)

	h := actor.Spawn(actor.DefaultConfig(), gw)
	defer h.Shutdown()

	// Startup connect attempt fails
	startup := settleUpdates(h)
	require.Contains(t, kinds(startup), actor.UpdateError)
	require.Contains(t, kinds(startup), actor.UpdateConnectionStatus)

	// Explicit refresh fails the same way and leaves state untouched
	h.Refresh()
	updates := settleUpdates(h)
	ks := kinds(updates)
	assert.Contains(t, ks, actor.UpdateError)
	assert.Contains(t, ks, actor.UpdateConnectionStatus)
	assert.NotContains(t, ks, actor.UpdateStateRefresh)
	for _, u := range updates {
		if u.Kind == actor.UpdateConnectionStatus {
			assert.False(t, u.Connected)
		}
	}

	// Set intents are rejected while disconnected, with no Changed event
	h.SetProfile(hardware.Quiet)
	updates = settleUpdates(h)
	require.Len(t, updates, 1)
	assert.Equal(t, actor.UpdateError, updates[0].Kind)
	assert.Equal(t, actor.ErrNotConnected, updates[0].Code)
	assert.Contains(t, updates[0].Message, "Not connected")
	assert.Empty(t, gw.profileWrites)
}

func TestRefreshAssemblesSnapshot(t *testing.T) {
	gw := newFakeGateway()
	gw.profile = 1
	gw.chargeLimit = 80

	h := spawnConnected(t, gw)
	defer h.Shutdown()

	h.Refresh()
	update := nextUpdate(t, h)

	require.Equal(t, actor.UpdateStateRefresh, update.Kind)
	assert.Equal(t, hardware.Performance, update.State.Profile)
	assert.Equal(t, uint8(80), update.State.ChargeLimit)
	assert.Equal(t, hardware.DefaultFanCurve(), update.State.FanCurve)
	assert.True(t, update.State.Connected)

	// No further events for a single refresh
	assert.Empty(t, settleUpdates(h))
}

func TestRefreshIdempotent(t *testing.T) {
	gw := newFakeGateway()
	gw.profile = 3
	gw.chargeLimit = 60

	h := spawnConnected(t, gw)
	defer h.Shutdown()

	h.Refresh()
	h.Refresh()

	first := nextUpdate(t, h)
	second := nextUpdate(t, h)

	require.Equal(t, actor.UpdateStateRefresh, first.Kind)
	require.Equal(t, actor.UpdateStateRefresh, second.Kind)
	assert.Equal(t, first.State, second.State)
}

func TestRefreshBestEffort(t *testing.T) {
	errFactory := errors.New()
	gw := newFakeGateway()
	gw.chargeLimit = 75
	gw.readProfileErr = errFactory.New(errors.ErrBusCall)

	h := actor.Spawn(actor.DefaultConfig(), gw)
	defer h.Shutdown()

	updates := settleUpdates(h)
	ks := kinds(updates)

	// A failed profile read is reported but does not abort the refresh
	require.Contains(t, ks, actor.UpdateError)
	require.Contains(t, ks, actor.UpdateStateRefresh)
	for _, u := range updates {
		if u.Kind == actor.UpdateStateRefresh {
			assert.Equal(t, uint8(75), u.State.ChargeLimit)
			assert.Equal(t, hardware.Balanced, u.State.Profile)
		}
	}
}

func TestSetProfileConfirmed(t *testing.T) {
	gw := newFakeGateway()

	h := spawnConnected(t, gw)
	defer h.Shutdown()

	h.SetProfile(hardware.Quiet)

	updates := settleUpdates(h)
	require.Len(t, updates, 1, "Expected exactly one update, got %v", kinds(updates))
	assert.Equal(t, actor.UpdateProfileChanged, updates[0].Kind)
	assert.Equal(t, hardware.Quiet, updates[0].Profile)
	assert.Equal(t, []uint32{3}, gw.profileWrites)
}

func TestSetProfileWriteFails(t *testing.T) {
	errFactory := errors.New()
	gw := newFakeGateway()
	gw.writeProfileErr = errFactory.New(errors.ErrBusCall)

	h := spawnConnected(t, gw)
	defer h.Shutdown()

	h.SetProfile(hardware.Performance)

	updates := settleUpdates(h)
	require.Len(t, updates, 1)
	assert.Equal(t, actor.UpdateError, updates[0].Kind)
	assert.Empty(t, gw.profileWrites)
}

func TestSetChargeLimitClamped(t *testing.T) {
	gw := newFakeGateway()

	h := spawnConnected(t, gw)
	defer h.Shutdown()

	h.SetChargeLimit(10)

	update := nextUpdate(t, h)
	require.Equal(t, actor.UpdateChargeLimitChanged, update.Kind)
	assert.Equal(t, uint8(20), update.ChargeLimit)
	assert.Equal(t, []uint8{20}, gw.chargeWrites)
}

func TestSetFanCurveEchoesAndReportsUnsupported(t *testing.T) {
	gw := newFakeGateway()

	h := spawnConnected(t, gw)
	defer h.Shutdown()

	curve := hardware.DefaultFanCurve()
	curve.Enabled = true
	curve.CPU[0].Speed = 25

	h.SetFanCurve(curve)

	updates := settleUpdates(h)
	require.Len(t, updates, 2, "Expected both the error and the local echo")

	ks := kinds(updates)
	assert.Contains(t, ks, actor.UpdateError)
	assert.Contains(t, ks, actor.UpdateFanCurveChanged)
	for _, u := range updates {
		if u.Kind == actor.UpdateFanCurveChanged {
			assert.Equal(t, curve, u.FanCurve)
		}
		if u.Kind == actor.UpdateError {
			assert.Equal(t, actor.ErrFanCurveUnsupported, u.Code)
		}
	}
}

func TestSetFanCurveEchoWhileDisconnected(t *testing.T) {
	errFactory := errors.New()
	gw := newFakeGateway()
	gw.connectErr = errFactory.New(errors.ErrBusConnection)

	h := actor.Spawn(actor.DefaultConfig(), gw)
	defer h.Shutdown()

	// Drain the failed startup connect attempt
	settleUpdates(h)

	curve := hardware.DefaultFanCurve()
	curve.Enabled = true

	// The echo contract holds in any connection state: no "Not connected"
	// rejection, just the unsupported error plus the local echo
	h.SetFanCurve(curve)

	updates := settleUpdates(h)
	require.Len(t, updates, 2, "Expected both the error and the local echo, got %v", kinds(updates))

	ks := kinds(updates)
	assert.Contains(t, ks, actor.UpdateError)
	assert.Contains(t, ks, actor.UpdateFanCurveChanged)
	for _, u := range updates {
		if u.Kind == actor.UpdateFanCurveChanged {
			assert.Equal(t, curve, u.FanCurve)
		}
		if u.Kind == actor.UpdateError {
			assert.Equal(t, actor.ErrFanCurveUnsupported, u.Code)
		}
	}
}

func TestReceivedUpdatesAreIndependentCopies(t *testing.T) {
	gw := newFakeGateway()

	h := spawnConnected(t, gw)
	defer h.Shutdown()

	sub := h.Subscribe()

	curve := hardware.DefaultFanCurve()
	curve.CPU[0].Speed = 25
	h.SetFanCurve(curve)

	var first, second actor.Update
	for first = nextUpdate(t, h); first.Kind != actor.UpdateFanCurveChanged; first = nextUpdate(t, h) {
	}
	for second = nextUpdate(t, sub); second.Kind != actor.UpdateFanCurveChanged; second = nextUpdate(t, sub) {
	}

	// One consumer editing its received curve must not leak into another's
	first.FanCurve.CPU[0].Speed = 77

	assert.Equal(t, uint8(25), second.FanCurve.CPU[0].Speed)
	assert.Equal(t, uint8(25), curve.CPU[0].Speed)
}

func TestStateRefreshPayloadsAreIndependentCopies(t *testing.T) {
	gw := newFakeGateway()

	h := spawnConnected(t, gw)
	defer h.Shutdown()

	sub := h.Subscribe()
	h.Refresh()

	first := nextUpdate(t, h)
	second := nextUpdate(t, sub)
	require.Equal(t, actor.UpdateStateRefresh, first.Kind)
	require.Equal(t, actor.UpdateStateRefresh, second.Kind)

	first.State.FanCurve.CPU[0].Speed = 99

	assert.Equal(t, uint8(0), second.State.FanCurve.CPU[0].Speed)
}

func TestSetFanCurveEnabledUnsupported(t *testing.T) {
	gw := newFakeGateway()

	h := spawnConnected(t, gw)
	defer h.Shutdown()

	h.SetFanCurveEnabled(true)

	updates := settleUpdates(h)
	require.Len(t, updates, 1)
	assert.Equal(t, actor.UpdateError, updates[0].Kind)
	assert.Equal(t, actor.ErrFanCurveUnsupported, updates[0].Code)
}

func TestExternalProfileChange(t *testing.T) {
	gw := newFakeGateway()

	h := spawnConnected(t, gw)
	defer h.Shutdown()

	// Hardware hotkey: a change arrives on the notification stream
	gw.changes <- 3

	update := nextUpdate(t, h)
	require.Equal(t, actor.UpdateProfileChanged, update.Kind)
	assert.Equal(t, hardware.Quiet, update.Profile)
}

func TestCycleProfileDelegatesToDaemon(t *testing.T) {
	gw := newFakeGateway()

	h := spawnConnected(t, gw)
	defer h.Shutdown()

	h.CycleProfile()

	// No direct confirmation; the daemon notifies through the stream
	assert.Empty(t, settleUpdates(h))
	assert.Equal(t, 1, gw.nextCalls)

	gw.changes <- 1
	update := nextUpdate(t, h)
	assert.Equal(t, actor.UpdateProfileChanged, update.Kind)
	assert.Equal(t, hardware.Performance, update.Profile)
}

func TestCycleProfileFails(t *testing.T) {
	errFactory := errors.New()
	gw := newFakeGateway()
	gw.nextErr = errFactory.New(errors.ErrBusCall)

	h := spawnConnected(t, gw)
	defer h.Shutdown()

	h.CycleProfile()

	updates := settleUpdates(h)
	require.Len(t, updates, 1)
	assert.Equal(t, actor.UpdateError, updates[0].Kind)
	assert.Equal(t, actor.ErrCycleProfile, updates[0].Code)
}

func TestIntentOrderPreserved(t *testing.T) {
	gw := newFakeGateway()

	h := spawnConnected(t, gw)
	defer h.Shutdown()

	h.SetChargeLimit(40)
	h.SetChargeLimit(60)
	h.SetChargeLimit(80)

	first := nextUpdate(t, h)
	second := nextUpdate(t, h)
	third := nextUpdate(t, h)

	assert.Equal(t, uint8(40), first.ChargeLimit)
	assert.Equal(t, uint8(60), second.ChargeLimit)
	assert.Equal(t, uint8(80), third.ChargeLimit)
	assert.Equal(t, []uint8{40, 60, 80}, gw.chargeWrites)
}

func TestShutdownClosesGateway(t *testing.T) {
	gw := newFakeGateway()

	h := spawnConnected(t, gw)
	h.Shutdown()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if gw.isClosed() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("gateway was not closed on shutdown")
}

func TestSubscribeReceivesFromSubscriptionPoint(t *testing.T) {
	gw := newFakeGateway()

	h := spawnConnected(t, gw)
	defer h.Shutdown()

	// A late subscriber misses startup traffic but sees new updates
	sub := h.Subscribe()
	_, ok := sub.TryRecv()
	require.False(t, ok)

	h.SetChargeLimit(50)

	update := nextUpdate(t, sub)
	assert.Equal(t, actor.UpdateChargeLimitChanged, update.Kind)

	update = nextUpdate(t, h)
	assert.Equal(t, actor.UpdateChargeLimitChanged, update.Kind)
}
