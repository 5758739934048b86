package backend

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/hazoom/assistant-memory/internal/store"
)

// Registry default key parts for callers that pass empty identifiers.
const (
	DefaultUser    = "anonymous"
	DefaultSession = "default_session"
)

type registryKey struct {
	user    string
	session string
}

// SessionInfo describes one registered backend.
type SessionInfo struct {
	UserIdentifier string `json:"user_identifier"`
	SessionID      string `json:"session_id"`
}

// Registry maps (user, session) pairs to live backends, guaranteeing at
// most one per pair. Backends are created lazily under a coarse lock and
// memoized for the process lifetime.
type Registry struct {
	mu       sync.Mutex
	backends map[registryKey]*Backend
	store    *store.SQLiteStore
	gen      Generator
}

// NewRegistry creates an empty registry. Construction never fails.
func NewRegistry(st *store.SQLiteStore, gen Generator) *Registry {
	return &Registry{
		backends: map[registryKey]*Backend{},
		store:    st,
		gen:      gen,
	}
}

// GetBackend returns the backend for (user, session), creating it on
// first reference. If memory initialization fails, the backend is still
// registered in a degraded, memory-less state.
func (r *Registry) GetBackend(ctx context.Context, userIdentifier, sessionID string) *Backend {
	if userIdentifier == "" {
		userIdentifier = DefaultUser
	}
	if sessionID == "" {
		sessionID = DefaultSession
	}
	key := registryKey{user: userIdentifier, session: sessionID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.backends[key]; ok {
		return b
	}

	st := r.store
	if st != nil {
		if _, err := st.GetOrCreateSession(ctx, sessionID, userIdentifier); err != nil {
			log.Warn("could not initialize memory, backend degraded",
				"user", userIdentifier, "session", sessionID, "err", err)
			st = nil
		}
	}

	b := New(ctx, userIdentifier, sessionID, st, r.gen)
	r.backends[key] = b
	return b
}

// ClearBackend removes a backend from the registry and clears its
// in-memory conversation history.
func (r *Registry) ClearBackend(userIdentifier, sessionID string) {
	if userIdentifier == "" {
		userIdentifier = DefaultUser
	}
	if sessionID == "" {
		sessionID = DefaultSession
	}
	key := registryKey{user: userIdentifier, session: sessionID}

	r.mu.Lock()
	b := r.backends[key]
	delete(r.backends, key)
	r.mu.Unlock()

	if b != nil {
		b.ClearHistory()
	}
}

// ListBackends returns a snapshot of registered sessions.
func (r *Registry) ListBackends() []SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]SessionInfo, 0, len(r.backends))
	for key := range r.backends {
		infos = append(infos, SessionInfo{UserIdentifier: key.user, SessionID: key.session})
	}
	return infos
}
