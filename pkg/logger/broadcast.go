package logger

import (
	"container/ring"
	"sync"
)

// Broadcaster is an io.Writer that fans log lines out to subscribers and keeps
// a bounded backlog so a client connecting mid-run still sees recent history.
type Broadcaster struct {
	mu      sync.Mutex
	backlog *ring.Ring
	subs    map[chan []byte]struct{}
}

// NewBroadcaster creates a broadcaster retaining the last backlogSize lines.
func NewBroadcaster(backlogSize int) *Broadcaster {
	if backlogSize <= 0 {
		backlogSize = 200
	}
	return &Broadcaster{
		backlog: ring.New(backlogSize),
		subs:    make(map[chan []byte]struct{}),
	}
}

// Write implements io.Writer for zerolog's MultiLevelWriter.
func (b *Broadcaster) Write(p []byte) (int, error) {
	line := make([]byte, len(p))
	copy(line, p)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.backlog.Value = line
	b.backlog = b.backlog.Next()

	for ch := range b.subs {
		select {
		case ch <- line:
		default:
			// Slow subscriber, drop the line rather than block logging.
		}
	}

	return len(p), nil
}

// Subscribe registers a new subscriber and returns the backlog snapshot.
// The caller must call the returned cancel func when done.
func (b *Broadcaster) Subscribe() ([][]byte, <-chan []byte, func()) {
	ch := make(chan []byte, 64)

	b.mu.Lock()
	defer b.mu.Unlock()

	var history [][]byte
	b.backlog.Do(func(v interface{}) {
		if v != nil {
			history = append(history, v.([]byte))
		}
	})

	b.subs[ch] = struct{}{}

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, ch)
	}

	return history, ch, cancel
}
