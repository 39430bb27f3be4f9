// Package statelog records periodic device state snapshots to a local SQLite
// database for field diagnosis. Rows are never replayed to the server; this
// is a diagnostic trail, not a telemetry buffer, and a device reset may
// discard the file without data-integrity consequences.
package statelog

import (
	"context"
	"time"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/errors"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/logger"
)

// Recorder defines the core domain interface
type Recorder interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

// Snapshot is one periodic observation of the device state.
type Snapshot struct {
	Timestamp            time.Time
	CurrentAmps          float64
	OutputAccumulated    uint64
	RejectionAccumulated uint64
	ConsecutiveFailures  uint
}

type service struct {
	repo Repository
	cfg  Config
}

// No-op implementation
type noopRecorder struct{}

func NewService(cfg Config) (Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err)
	}

	// If state logging is disabled, return a no-op recorder
	if !cfg.Enabled {
		logger.Debug().Msg("State logging disabled, using no-op recorder")
		return &noopRecorder{}, nil
	}

	repo, err := NewRepository(cfg)
	if err != nil {
		return nil, err // Already wrapped with appropriate error
	}

	logger.Debug().
		Str("db_path", cfg.DBPath).
		Msg("State log service initialized")

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return errors.New(ErrInvalidSnapshot)
	}

	select {
	case <-ctx.Done():
		return errors.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Store(ctx, snapshot); err != nil {
			return errors.Wrap(ErrRecordFailed, err)
		}
	}

	return nil
}

func (s *service) Close() error {
	if err := s.repo.Close(); err != nil {
		return errors.Wrap(ErrServiceShutdown, err)
	}
	return nil
}

func (*noopRecorder) Record(_ context.Context, _ *Snapshot) error {
	return nil
}

func (*noopRecorder) Close() error {
	return nil
}
