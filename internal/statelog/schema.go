package statelog

import (
	"database/sql"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/errors"
)

// initSchema initializes the database schema for state snapshots
func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS state_snapshots (
            timestamp INTEGER PRIMARY KEY,
            current_amps REAL,
            output_accumulated INTEGER,
            rejection_accumulated INTEGER,
            consecutive_failures INTEGER
        )
    `)
	if err != nil {
		return errors.Wrap(ErrStorageInit, err)
	}

	return nil
}
