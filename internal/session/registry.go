package session

import (
	"expvar"
	"sync"
	"time"

	"github.com/oksasatya/go-appointment-auth/internal/application/authstate"
	"github.com/oksasatya/go-appointment-auth/internal/infrastructure/identity"
)

var openSessions = expvar.NewInt("auth_sessions_open")

// Session pairs a browser session's identity feed with its auth state publisher.
type Session struct {
	ID        string
	Feed      *identity.Feed
	Publisher *authstate.Publisher
	OpenedAt  time.Time
}

// Registry owns the live sessions of this process, keyed by session id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    authstate.ProfileStore
	opts     []authstate.Option
}

func NewRegistry(store authstate.ProfileStore, opts ...authstate.Option) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		store:    store,
		opts:     opts,
	}
}

// Open returns the session for sid, creating a signed-out one if needed.
func (r *Registry) Open(sid string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sid]; ok {
		return s
	}
	feed := identity.NewFeed()
	s := &Session{
		ID:        sid,
		Feed:      feed,
		Publisher: authstate.New(feed, r.store, r.opts...),
		OpenedAt:  time.Now().UTC(),
	}
	r.sessions[sid] = s
	openSessions.Add(1)
	return s
}

func (r *Registry) Get(sid string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sid]
	return s, ok
}

// Close stops the session's publisher, signs its feed out and forgets it.
// The publisher closes first so an in-flight profile load is cancelled
// instead of holding up the sign-out. It reports whether sid was open.
func (r *Registry) Close(sid string) bool {
	r.mu.Lock()
	s, ok := r.sessions[sid]
	if ok {
		delete(r.sessions, sid)
		openSessions.Add(-1)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.Publisher.Close()
	s.Feed.SignOut()
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll closes every session; used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Close(id)
	}
}
