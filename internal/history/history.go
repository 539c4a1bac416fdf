package history

import (
	"context"
	"time"

	"codeberg.org/mutker/powerctl/internal/actor"
	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/logger"
)

type service struct {
	repo Repository
	cfg  Config
}

func NewService(cfg Config) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	repo, err := NewRepository(cfg)
	if err != nil {
		return nil, err // Already wrapped with appropriate error
	}

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, entry *Entry) error {
	errFactory := errors.New()

	if entry == nil {
		return errFactory.New(ErrInvalidEntry)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Store(ctx, entry); err != nil {
			return errFactory.Wrap(ErrRecordingFailed, err)
		}
	}

	return nil
}

func (s *service) Close() error {
	errFactory := errors.New()

	if err := s.repo.Close(); err != nil {
		return errFactory.Wrap(ErrServiceShutdown, err)
	}
	return nil
}

// Observe polls the handle at the given cadence and journals every state
// transition it sees. It is purely an observer of the broadcast stream and
// never feeds anything back into the actor. Runs until ctx is done.
func Observe(ctx context.Context, h *actor.Handle, rec Recorder, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				update, ok := h.TryRecv()
				if !ok {
					break
				}
				if entry := entryFor(update); entry != nil {
					if err := rec.Record(ctx, entry); err != nil {
						logger.Debug().Err(err).Msg("Failed to record transition")
					}
				}
			}
		}
	}
}

// entryFor maps an update to a journal entry, or nil for updates that are
// not transitions worth journaling.
func entryFor(update actor.Update) *Entry {
	entry := &Entry{
		Timestamp: time.Now(),
		Event:     update.Kind.String(),
	}

	switch update.Kind {
	case actor.UpdateStateRefresh:
		entry.Profile = update.State.Profile.String()
		entry.ChargeLimit = int(update.State.ChargeLimit)
		entry.Connected = update.State.Connected
	case actor.UpdateProfileChanged:
		entry.Profile = update.Profile.String()
	case actor.UpdateChargeLimitChanged:
		entry.ChargeLimit = int(update.ChargeLimit)
	case actor.UpdateConnectionStatus:
		entry.Connected = update.Connected
	case actor.UpdateError:
		entry.Detail = update.Message
	case actor.UpdateFanCurveChanged:
		// Local-echo only, nothing durable happened on the hardware.
		return nil
	}

	return entry
}
