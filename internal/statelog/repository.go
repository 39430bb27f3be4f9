package statelog

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/errors"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

type Repository interface {
	Store(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(cfg Config) (Repository, error) {
	if cfg.DBPath == "" {
		return nil, errors.New(ErrInvalidDBPath)
	}

	logger.Debug().Msgf("Initializing state log repository at: %s", cfg.DBPath)

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errors.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, errors.Wrap(ErrStorageInit, err)
	}

	// Initialize schema
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errors.Wrap(ErrStorageInit, err)
	}

	return &sqliteRepository{
		db: db,
	}, nil
}

func (r *sqliteRepository) Store(ctx context.Context, snapshot *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO state_snapshots (
            timestamp, current_amps,
            output_accumulated, rejection_accumulated,
            consecutive_failures
        ) VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(timestamp) DO UPDATE SET
            current_amps = excluded.current_amps,
            output_accumulated = excluded.output_accumulated,
            rejection_accumulated = excluded.rejection_accumulated,
            consecutive_failures = excluded.consecutive_failures
    `,
		snapshot.Timestamp.Unix(),
		snapshot.CurrentAmps,
		snapshot.OutputAccumulated,
		snapshot.RejectionAccumulated,
		snapshot.ConsecutiveFailures,
	)
	if err != nil {
		return errors.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.Wrap(ErrStorageClose, err)
	}
	return nil
}
