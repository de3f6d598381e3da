package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"backend-videosync/internal/generate"
	"backend-videosync/internal/i18n"
	"backend-videosync/internal/notify"
	"backend-videosync/internal/overlay"
	"backend-videosync/internal/storage"
)

var ErrNotFound = errors.New("session not found")

const DefaultTTL = 2 * time.Hour

type Deps struct {
	Processor     Processor
	Jobs          generate.JobRecorder
	Publisher     notify.Publisher
	Prefs         *overlay.PrefStore
	Storage       *storage.Service
	DefaultLang   string
	Interpolation int
	TTL           time.Duration
	// Steps overrides the advisory progress simulation; nil keeps the default.
	Steps []generate.Step
}

// Manager owns every live session and expires idle ones.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     Deps
	now      func() time.Time
}

func NewManager(d Deps) *Manager {
	if d.TTL <= 0 {
		d.TTL = DefaultTTL
	}
	if d.DefaultLang == "" {
		d.DefaultLang = i18n.DefaultLang
	}
	return &Manager{sessions: map[string]*Session{}, deps: d, now: time.Now}
}

// Create starts a session. lang falls back to the configured default; a known
// clientID restores that browser's last overlay layout.
func (m *Manager) Create(ctx context.Context, clientID, lang string) *Session {
	if lang == "" {
		lang = m.deps.DefaultLang
	}
	s := newSession(uuid.NewString(), clientID, lang, m.deps, m.now())

	if cfg, ok, err := m.deps.Prefs.Load(ctx, clientID); err != nil {
		log.Printf("session: load overlay prefs for %s: %v", clientID, err)
	} else if ok {
		s.Overlays.Apply(cfg)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns a live session and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(m.now())
	return s, nil
}

func (m *Manager) Alive(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[id]
	return ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Delete closes the session and removes its files.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	m.close(s)
	return nil
}

// SavePrefs remembers the session's overlay layout for its browser.
func (m *Manager) SavePrefs(ctx context.Context, s *Session) {
	if err := m.deps.Prefs.Save(ctx, s.ClientID, s.Overlays.Configuration()); err != nil {
		log.Printf("session: save overlay prefs for %s: %v", s.ClientID, err)
	}
}

// Sweep closes sessions idle for longer than the TTL. Sessions with a
// submission in flight are kept.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.deps.TTL)
	var expired []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) && !s.Generator.Submitting() {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.close(s)
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Printf("session: expired %d idle sessions", n)
			}
		}
	}
}

// Close shuts every session down.
func (m *Manager) Close() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	for _, s := range all {
		m.close(s)
	}
}

func (m *Manager) close(s *Session) {
	s.Close()
	if m.deps.Storage == nil {
		return
	}
	if err := m.deps.Storage.Purge(s.ID); err != nil {
		log.Printf("session: purge uploads of %s: %v", s.ID, err)
	}
}
