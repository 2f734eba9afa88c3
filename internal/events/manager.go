package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	RunStarted            EventType = "RUN_STARTED"
	RunCompleted          EventType = "RUN_COMPLETED"
	RunFailed             EventType = "RUN_FAILED"
	RunResumed            EventType = "RUN_RESUMED"
	RecommendationCreated EventType = "RECOMMENDATION_CREATED"
	StatusChanged         EventType = "STATUS_CHANGED"
	OutlookGenerated      EventType = "OUTLOOK_GENERATED"
	BackupCompleted       EventType = "BACKUP_COMPLETED"
	ErrorOccurred         EventType = "ERROR_OCCURRED"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// Manager handles event emission. Events are logged and retained in a bounded
// in-memory list for the dashboard's recent-activity endpoint.
type Manager struct {
	log    zerolog.Logger
	mu     sync.Mutex
	recent []Event
	limit  int
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log:   log.With().Str("service", "events").Logger(),
		limit: 100,
	}
}

// Emit records an event
func (m *Manager) Emit(module string, typ EventType, data map[string]interface{}) {
	event := Event{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	m.log.Info().
		Str("event", string(typ)).
		Str("module", module).
		Interface("data", data).
		Msg("Event emitted")

	m.mu.Lock()
	defer m.mu.Unlock()

	m.recent = append(m.recent, event)
	if len(m.recent) > m.limit {
		m.recent = m.recent[len(m.recent)-m.limit:]
	}
}

// Recent returns the retained events, newest last
func (m *Manager) Recent() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Event, len(m.recent))
	copy(out, m.recent)
	return out
}
