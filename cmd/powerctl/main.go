package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/powerctl/internal/actor"
	"codeberg.org/mutker/powerctl/internal/config"
	"codeberg.org/mutker/powerctl/internal/hardware"
	"codeberg.org/mutker/powerctl/internal/history"
	"codeberg.org/mutker/powerctl/internal/logger"
	"codeberg.org/mutker/powerctl/internal/platform"
)

const confirmTimeout = 5 * time.Second

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	applyLogLevel(cfg.LogLevel)
	logger.Debug().Msg("Config loaded")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	handle := actor.Spawn(actor.Config{
		IntentBuffer: cfg.IntentBuffer,
		UpdateBuffer: cfg.UpdateBuffer,
	}, platform.NewGateway())
	defer handle.Shutdown()

	if cfg.History {
		recorder, err := history.NewService(history.Config{DBPath: cfg.HistoryDB})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize history")
		}
		defer recorder.Close()

		interval := time.Duration(cfg.Interval) * time.Second
		go history.Observe(ctx, handle.Subscribe(), recorder, interval)
	}

	if err := run(ctx, handle); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
		os.Exit(1)
	}
}

func run(ctx context.Context, handle *actor.Handle) error {
	switch {
	case cfg.Profile != "":
		profile, ok := hardware.ParseProfile(cfg.Profile)
		if !ok {
			return fmt.Errorf("invalid profile: %q", cfg.Profile)
		}
		handle.SetProfile(profile)

		return awaitConfirmation(ctx, handle, actor.UpdateProfileChanged)

	case cfg.ChargeLimit >= 0:
		handle.SetChargeLimit(cfg.ChargeLimit)

		return awaitConfirmation(ctx, handle, actor.UpdateChargeLimitChanged)

	case cfg.Cycle:
		handle.CycleProfile()

		// Confirmation arrives through the daemon's own change notification.
		return awaitConfirmation(ctx, handle, actor.UpdateProfileChanged)

	case cfg.Monitor:
		return monitor(ctx, handle)

	default:
		// Status: the actor refreshes on spawn; report the snapshot.
		return awaitConfirmation(ctx, handle, actor.UpdateStateRefresh)
	}
}

func monitor(ctx context.Context, handle *actor.Handle) error {
	interval := time.Duration(cfg.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Msg("Monitor mode activated. Logging state transitions...")

	var lastMissed uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			drainUpdates(handle)
			if missed := handle.Missed(); missed > lastMissed {
				logger.Warn().Uint64("missed", missed).Msg("Update stream gap detected")
				lastMissed = missed
			}
		}
	}
}

func drainUpdates(handle *actor.Handle) {
	for {
		update, ok := handle.TryRecv()
		if !ok {
			return
		}
		logUpdate(update)
	}
}

// awaitConfirmation polls the update stream until the wanted update or an
// error update arrives, or the confirmation window elapses.
func awaitConfirmation(ctx context.Context, handle *actor.Handle, want actor.UpdateKind) error {
	deadline := time.Now().Add(confirmTimeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for {
				update, ok := handle.TryRecv()
				if !ok {
					break
				}
				logUpdate(update)
				if update.Kind == want {
					return nil
				}
				if update.Kind == actor.UpdateError {
					return fmt.Errorf("%s", update.Message)
				}
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("timed out waiting for %s", want)
			}
		}
	}
}

func logUpdate(update actor.Update) {
	switch update.Kind {
	case actor.UpdateStateRefresh:
		logger.Info().
			Str("profile", update.State.Profile.String()).
			Uint8("charge_limit", update.State.ChargeLimit).
			Bool("fan_curve_enabled", update.State.FanCurve.Enabled).
			Bool("connected", update.State.Connected).
			Msg("State")
	case actor.UpdateProfileChanged:
		logger.Info().Str("profile", update.Profile.String()).Msg("Profile changed")
	case actor.UpdateChargeLimitChanged:
		logger.Info().Uint8("charge_limit", update.ChargeLimit).Msg("Charge limit changed")
	case actor.UpdateFanCurveChanged:
		logger.Info().Bool("enabled", update.FanCurve.Enabled).Msg("Fan curve updated")
	case actor.UpdateConnectionStatus:
		logger.Info().Bool("connected", update.Connected).Msg("Connection status")
	case actor.UpdateError:
		logger.Error().Str("error_code", string(update.Code)).Msg(update.Message)
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func applyLogLevel(level string) {
	if cfg.Debug || cfg.Verbose {
		return
	}

	switch config.LogLevel(level) {
	case config.LogLevelDebug:
		logger.SetLogLevel(logger.DebugLevel)
	case config.LogLevelInfo:
		logger.SetLogLevel(logger.InfoLevel)
	case config.LogLevelWarning:
		logger.SetLogLevel(logger.WarnLevel)
	case config.LogLevelError:
		logger.SetLogLevel(logger.ErrorLevel)
	}
}
