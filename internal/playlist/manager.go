package playlist

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ytget/yt-playlist-loader/internal/model"
)

// Manager keeps the open playlist sessions of the application.
type Manager struct {
	resolver Resolver
	policy   PolicySource

	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
}

// NewManager creates a manager whose sessions share resolver and policy
func NewManager(resolver Resolver, policy PolicySource) *Manager {
	return &Manager{
		resolver: resolver,
		policy:   policy,
		sessions: make(map[string]*Session),
	}
}

// Open registers a new session for playlistURL. The caller starts it with
// Session.Load. Terminated sessions are forgotten automatically.
func (m *Manager) Open(playlistURL string, listener Listener) (*Session, error) {
	playlistURL = strings.TrimSpace(playlistURL)
	if playlistURL == "" {
		return nil, fmt.Errorf("playlist url is empty")
	}
	if listener == nil {
		listener = NopListener
	}

	ml := &managedListener{Listener: listener, manager: m}
	s := NewSession(playlistURL, m.resolver, WithListener(ml), WithPolicy(m.policy))
	ml.id = s.ID()

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.order = append(m.order, s.ID())
	m.mu.Unlock()

	return s, nil
}

// Session looks up an open session
func (m *Manager) Session(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, model.ErrUnknownSession)
	}
	return s, nil
}

// Close terminates and forgets a session
func (m *Manager) Close(id string) error {
	s, err := m.Session(id)
	if err != nil {
		return err
	}
	s.Close()
	return nil
}

// CloseAll terminates every open session
func (m *Manager) CloseAll() {
	for _, s := range m.List() {
		s.Close()
	}
}

// List returns open sessions in the order they were opened
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.sessions[id])
	}
	return out
}

// Len returns the number of open sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return
	}
	delete(m.sessions, id)
	for i, sid := range m.order {
		if sid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// managedListener removes its session from the manager on termination
type managedListener struct {
	Listener
	manager *Manager
	id      string
}

func (l *managedListener) OnSessionTerminated() {
	l.manager.forget(l.id)
	l.Listener.OnSessionTerminated()
}
