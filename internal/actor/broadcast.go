package actor

import "sync"

// broadcaster is a publisher-priority fan-out: a bounded ring of recent
// updates with per-subscriber read cursors. Publishing never blocks; a
// subscriber that falls behind the ring skips forward and its missed
// counter advances, so a gap is detectable but never stalls the actor.
type broadcaster struct {
	mu   sync.Mutex
	ring []Update
	seq  uint64
}

func newBroadcaster(capacity int) *broadcaster {
	return &broadcaster{
		ring: make([]Update, capacity),
	}
}

func (b *broadcaster) publish(update Update) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ring[b.seq%uint64(len(b.ring))] = update
	b.seq++
}

func (b *broadcaster) subscribe() *subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	return &subscription{
		b:      b,
		cursor: b.seq,
	}
}

// subscription tracks one observer's position in the ring. Each observer
// receives every update from its subscription point onward, up to ring
// capacity.
type subscription struct {
	b      *broadcaster
	cursor uint64
	missed uint64
}

// tryRecv returns the next pending update without blocking.
func (s *subscription) tryRecv() (Update, bool) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if s.cursor == s.b.seq {
		return Update{}, false
	}

	capacity := uint64(len(s.b.ring))
	if oldest := s.b.seq - min(s.b.seq, capacity); s.cursor < oldest {
		s.missed += oldest - s.cursor
		s.cursor = oldest
	}

	update := s.b.ring[s.cursor%capacity]
	s.cursor++

	// Each subscriber gets its own copy of slice-bearing payloads: a
	// consumer editing a received curve must never alter what another
	// subscriber reads.
	update.State = update.State.Clone()
	update.FanCurve = update.FanCurve.Clone()

	return update, true
}

// Missed reports how many updates this subscription has skipped because
// the ring wrapped past its cursor.
func (s *subscription) Missed() uint64 {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	return s.missed
}
