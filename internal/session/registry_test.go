package session

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-appointment-auth/internal/application/authstate"
	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	"github.com/oksasatya/go-appointment-auth/internal/domain/repository"
)

type memStore struct {
	mu       sync.Mutex
	profiles map[string]*entity.Profile
}

func (m *memStore) Read(_ context.Context, uid string) (*entity.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[uid]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	c := *p
	return &c, nil
}

func (m *memStore) Provision(_ context.Context, id entity.Identity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[id.UID]; ok {
		return false, nil
	}
	m.profiles[id.UID] = entity.NewProfileFromIdentity(id)
	return true, nil
}

func newTestRegistry() *Registry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewRegistry(&memStore{profiles: map[string]*entity.Profile{}}, authstate.WithLogger(l))
}

func TestRegistry_OpenIsIdempotent(t *testing.T) {
	r := newTestRegistry()
	before := openSessions.Value()

	a := r.Open("s1")
	b := r.Open("s1")
	assert.Same(t, a, b)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, before+1, openSessions.Value())

	st := a.Publisher.Snapshot()
	assert.Equal(t, authstate.PhaseUnauthenticated, st.Phase)
	assert.False(t, st.Loading)

	r.Close("s1")
	assert.Equal(t, before, openSessions.Value())
}

func TestRegistry_SessionsAreIndependent(t *testing.T) {
	r := newTestRegistry()
	defer r.CloseAll()

	s1 := r.Open("s1")
	s2 := r.Open("s2")

	s1.Feed.SignIn(entity.Identity{UID: "u1", Email: "a@example.com"})

	st1 := s1.Publisher.Snapshot()
	require.NotNil(t, st1.Profile)
	assert.Equal(t, "u1", st1.Profile.UID)
	assert.Nil(t, s2.Publisher.Snapshot().Identity)
}

func TestRegistry_CloseStopsPublisher(t *testing.T) {
	r := newTestRegistry()
	s := r.Open("s1")
	s.Feed.SignIn(entity.Identity{UID: "u1"})

	var (
		mu    sync.Mutex
		count int
	)
	s.Publisher.Listen(func(authstate.State) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	assert.True(t, r.Close("s1"))
	assert.False(t, r.Close("s1"))
	_, ok := r.Get("s1")
	assert.False(t, ok)

	s.Feed.SignIn(entity.Identity{UID: "u2"})
	mu.Lock()
	defer mu.Unlock()
	// only the snapshot delivered by Listen; nothing is published after Close
	assert.Equal(t, 1, count)
	assert.Equal(t, 0, s.Feed.Subscribers())
}

func TestRegistry_CloseAll(t *testing.T) {
	r := newTestRegistry()
	r.Open("a")
	r.Open("b")
	r.CloseAll()
	assert.Zero(t, r.Len())
}

// blockingStore parks every call until its context ends.
type blockingStore struct {
	started chan struct{}
	once    sync.Once
}

func (b *blockingStore) Read(ctx context.Context, _ string) (*entity.Profile, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingStore) Provision(ctx context.Context, _ entity.Identity) (bool, error) {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return false, ctx.Err()
}

func TestRegistry_CloseCancelsInFlightLoad(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	store := &blockingStore{started: make(chan struct{})}
	r := NewRegistry(store, authstate.WithLogger(l), authstate.WithLoadTimeout(5*time.Second))

	s := r.Open("s1")
	signedIn := make(chan struct{})
	go func() {
		s.Feed.SignIn(entity.Identity{UID: "u1"})
		close(signedIn)
	}()

	select {
	case <-store.started:
	case <-time.After(time.Second):
		t.Fatal("load never started")
	}

	start := time.Now()
	assert.True(t, r.Close("s1"))
	assert.Less(t, time.Since(start), time.Second)

	select {
	case <-signedIn:
	case <-time.After(time.Second):
		t.Fatal("sign-in still blocked after Close")
	}
	select {
	case <-s.Publisher.Done():
	default:
		t.Fatal("publisher not done after Close")
	}
	assert.Nil(t, s.Feed.Current())
}
