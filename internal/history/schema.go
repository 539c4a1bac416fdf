package history

import (
	"database/sql"

	"codeberg.org/mutker/powerctl/internal/errors"
)

// initSchema initializes the database schema for the transition journal
func initSchema(db *sql.DB) error {
	errFactory := errors.New()

	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS transitions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            timestamp INTEGER NOT NULL,
            event TEXT NOT NULL,
            profile TEXT,
            charge_limit INTEGER,
            connected INTEGER,
            detail TEXT
        )
    `)
	if err != nil {
		return errFactory.Wrap(ErrStorageInit, err)
	}

	return nil
}
