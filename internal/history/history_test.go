package history_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/powerctl/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func TestRecordTransition(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	recorder, err := history.NewService(history.Config{DBPath: dbPath})
	require.NoError(t, err)
	defer recorder.Close()

	entry := &history.Entry{
		Timestamp:   time.Now(),
		Event:       "ProfileChanged",
		Profile:     "Quiet",
		ChargeLimit: 0,
		Connected:   true,
	}
	require.NoError(t, recorder.Record(context.Background(), entry))

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var event, profile string
	row := db.QueryRow("SELECT event, profile FROM transitions")
	require.NoError(t, row.Scan(&event, &profile))
	assert.Equal(t, "ProfileChanged", event)
	assert.Equal(t, "Quiet", profile)
}

func TestRecordNilEntry(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	recorder, err := history.NewService(history.Config{DBPath: dbPath})
	require.NoError(t, err)
	defer recorder.Close()

	err = recorder.Record(context.Background(), nil)
	require.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	_, err := history.NewService(history.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history_invalid")
}

func TestRecordCancelledContext(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	recorder, err := history.NewService(history.Config{DBPath: dbPath})
	require.NoError(t, err)
	defer recorder.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = recorder.Record(ctx, &history.Entry{Timestamp: time.Now(), Event: "StateRefresh"})
	require.Error(t, err)
}
