package history

import (
	"context"
	"time"
)

// Recorder defines the core domain interface
type Recorder interface {
	Record(ctx context.Context, entry *Entry) error
	Close() error
}

// Entry is one journaled state transition. The journal is write-only from
// the actor's perspective: it is never read back into hardware state.
type Entry struct {
	Timestamp   time.Time
	Event       string
	Profile     string
	ChargeLimit int
	Connected   bool
	Detail      string
}
