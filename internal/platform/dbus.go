package platform

import (
	"context"

	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/logger"
	"github.com/godbus/dbus/v5"
)

// asusd 6.x platform object on the system bus
const (
	busName       = "xyz.ljones.Asusd"
	objectPath    = dbus.ObjectPath("/xyz/ljones")
	platformIface = "xyz.ljones.Platform"

	propProfile     = "PlatformProfile"
	propChargeLimit = "ChargeControlEndThreshold"

	propertiesIface = "org.freedesktop.DBus.Properties"
	getMethod       = propertiesIface + ".Get"
	setMethod       = propertiesIface + ".Set"
	nextMethod      = platformIface + ".NextPlatformProfile"

	signalBufferSize = 16
)

type dbusGateway struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	signals chan *dbus.Signal
	changes chan uint32
}

// NewGateway creates a disconnected gateway for the platform daemon.
// Connect must succeed before any other operation.
func NewGateway() Gateway {
	return &dbusGateway{
		changes: make(chan uint32, signalBufferSize),
	}
}

func (g *dbusGateway) Connect(ctx context.Context) error {
	errFactory := errors.New()

	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return errFactory.Wrap(ErrConnectFailed, err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(propertiesIface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(objectPath),
	); err != nil {
		conn.Close()
		return errFactory.Wrap(ErrSubscribeSignals, err)
	}

	g.conn = conn
	g.obj = conn.Object(busName, objectPath)
	g.signals = make(chan *dbus.Signal, signalBufferSize)
	conn.Signal(g.signals)

	go g.pumpSignals()

	logger.Debug().Str("bus_name", busName).Msg("Connected to system bus")

	return nil
}

func (g *dbusGateway) Connected() bool {
	return g.conn != nil && g.conn.Connected()
}

// pumpSignals decodes PropertiesChanged signals into profile wire codes.
// Runs until the bus connection closes the signal channel.
func (g *dbusGateway) pumpSignals() {
	for sig := range g.signals {
		if len(sig.Body) < 2 {
			continue
		}

		iface, ok := sig.Body[0].(string)
		if !ok || iface != platformIface {
			continue
		}

		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			continue
		}

		variant, ok := changed[propProfile]
		if !ok {
			continue
		}

		code, err := toUint32(variant.Value())
		if err != nil {
			logger.Debug().Err(err).Msg("Ignoring malformed profile change signal")
			continue
		}

		select {
		case g.changes <- code:
		default:
			// A stalled consumer drops the oldest notification behavior;
			// the next RefreshState reconverges.
			logger.Debug().Uint32("code", code).Msg("Dropped profile change notification")
		}
	}

	close(g.changes)
}

func (g *dbusGateway) ReadProfile(ctx context.Context) (uint32, error) {
	errFactory := errors.New()

	if !g.Connected() {
		return 0, errFactory.New(ErrNotConnected)
	}

	var variant dbus.Variant
	call := g.obj.CallWithContext(ctx, getMethod, 0, platformIface, propProfile)
	if call.Err != nil {
		return 0, errFactory.Wrap(ErrReadProfile, call.Err)
	}
	if err := call.Store(&variant); err != nil {
		return 0, errFactory.Wrap(ErrReadProfile, err)
	}

	code, err := toUint32(variant.Value())
	if err != nil {
		return 0, errFactory.Wrap(ErrReadProfile, err)
	}

	return code, nil
}

func (g *dbusGateway) WriteProfile(ctx context.Context, code uint32) error {
	errFactory := errors.New()

	if !g.Connected() {
		return errFactory.New(ErrNotConnected)
	}

	call := g.obj.CallWithContext(ctx, setMethod, 0, platformIface, propProfile, dbus.MakeVariant(code))
	if call.Err != nil {
		return errFactory.Wrap(ErrWriteProfile, call.Err)
	}

	return nil
}

func (g *dbusGateway) ReadChargeLimit(ctx context.Context) (uint8, error) {
	errFactory := errors.New()

	if !g.Connected() {
		return 0, errFactory.New(ErrNotConnected)
	}

	var variant dbus.Variant
	call := g.obj.CallWithContext(ctx, getMethod, 0, platformIface, propChargeLimit)
	if call.Err != nil {
		return 0, errFactory.Wrap(ErrReadChargeLimit, call.Err)
	}
	if err := call.Store(&variant); err != nil {
		return 0, errFactory.Wrap(ErrReadChargeLimit, err)
	}

	limit, err := toUint8(variant.Value())
	if err != nil {
		return 0, errFactory.Wrap(ErrReadChargeLimit, err)
	}

	return limit, nil
}

func (g *dbusGateway) WriteChargeLimit(ctx context.Context, limit uint8) error {
	errFactory := errors.New()

	if !g.Connected() {
		return errFactory.New(ErrNotConnected)
	}

	call := g.obj.CallWithContext(ctx, setMethod, 0, platformIface, propChargeLimit, dbus.MakeVariant(limit))
	if call.Err != nil {
		return errFactory.Wrap(ErrWriteChargeLimit, call.Err)
	}

	return nil
}

func (g *dbusGateway) NextProfile(ctx context.Context) error {
	errFactory := errors.New()

	if !g.Connected() {
		return errFactory.New(ErrNotConnected)
	}

	call := g.obj.CallWithContext(ctx, nextMethod, 0)
	if call.Err != nil {
		return errFactory.Wrap(ErrNextProfile, call.Err)
	}

	return nil
}

func (g *dbusGateway) ProfileChanges() <-chan uint32 {
	return g.changes
}

func (g *dbusGateway) Close() error {
	errFactory := errors.New()

	if g.conn == nil {
		return nil
	}

	// Closing the connection closes the signal channel, which in turn lets
	// pumpSignals close the changes stream.
	if err := g.conn.Close(); err != nil {
		return errFactory.Wrap(ErrCloseFailed, err)
	}

	return nil
}

// toUint32 normalizes the numeric types a property variant may carry
func toUint32(value any) (uint32, error) {
	errFactory := errors.New()

	switch v := value.(type) {
	case uint32:
		return v, nil
	case int32:
		return uint32(v), nil
	case uint8:
		return uint32(v), nil
	default:
		return 0, errFactory.WithData(ErrUnexpectedType, value)
	}
}

func toUint8(value any) (uint8, error) {
	errFactory := errors.New()

	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint32:
		return uint8(v), nil
	case int32:
		return uint8(v), nil
	default:
		return 0, errFactory.WithData(ErrUnexpectedType, value)
	}
}
