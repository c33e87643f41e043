package authstate

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	"github.com/oksasatya/go-appointment-auth/internal/domain/repository"
	"github.com/oksasatya/go-appointment-auth/internal/infrastructure/identity"
)

type fakeStore struct {
	mu           sync.Mutex
	profiles     map[string]*entity.Profile
	calls        []string
	readErr      error
	provisionErr error
	// readHook runs before Read answers; used to block a load.
	readHook func(ctx context.Context, uid string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: map[string]*entity.Profile{}}
}

func (f *fakeStore) Provision(_ context.Context, id entity.Identity) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "provision:"+id.UID)
	if f.provisionErr != nil {
		return false, f.provisionErr
	}
	if _, ok := f.profiles[id.UID]; ok {
		return false, nil
	}
	f.profiles[id.UID] = entity.NewProfileFromIdentity(id)
	return true, nil
}

func (f *fakeStore) Read(ctx context.Context, uid string) (*entity.Profile, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "read:"+uid)
	hook := f.readHook
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, uid)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	p, ok := f.profiles[uid]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakeStore) put(p entity.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.UID] = &p
}

func (f *fakeStore) setReadErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr = err
}

func (f *fakeStore) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeStore) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

// manualSource hands the callback to the test instead of firing it itself.
type manualSource struct {
	mu           sync.Mutex
	fn           func(*entity.Identity)
	unsubscribed bool
}

func (m *manualSource) Subscribe(fn func(*entity.Identity)) func() {
	m.mu.Lock()
	m.fn = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.unsubscribed = true
		m.mu.Unlock()
	}
}

func (m *manualSource) fire(id *entity.Identity) {
	m.mu.Lock()
	fn := m.fn
	m.mu.Unlock()
	fn(id)
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) listen(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) all() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.states))
	copy(out, r.states)
	return out
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func alice() entity.Identity {
	return entity.Identity{UID: "u1", Email: "alice@example.com", DisplayName: "Alice"}
}

func TestNew_SignedOutSourceResolvesImmediately(t *testing.T) {
	feed := identity.NewFeed()
	p := New(feed, newFakeStore(), WithLogger(quietLogger()))
	defer p.Close()

	s := p.Snapshot()
	assert.False(t, s.Loading)
	assert.Equal(t, PhaseUnauthenticated, s.Phase)
	assert.Nil(t, s.Identity)
	assert.Nil(t, s.Profile)
	assert.Equal(t, ProfileNone, s.ProfileStatus)
	assert.Equal(t, uint64(1), s.Generation)
	assert.Equal(t, 1, feed.Subscribers())
}

func TestLoading_TrueOnlyUntilFirstCallbackResolves(t *testing.T) {
	src := &manualSource{}
	store := newFakeStore()
	p := New(src, store, WithLogger(quietLogger()))
	defer p.Close()

	rec := &recorder{}
	p.Listen(rec.listen)

	id := alice()
	src.fire(&id)
	src.fire(nil)
	src.fire(&id)

	states := rec.all()
	require.Len(t, states, 6)

	assert.True(t, states[0].Loading)
	assert.Equal(t, PhaseInitializing, states[0].Phase)
	assert.True(t, states[1].Loading)
	assert.Equal(t, PhaseLoadingProfile, states[1].Phase)
	for _, s := range states[2:] {
		assert.False(t, s.Loading)
	}
}

func TestFirstSignIn_ProvisionsOnceThenFetches(t *testing.T) {
	feed := identity.NewFeed()
	store := newFakeStore()
	p := New(feed, store, WithLogger(quietLogger()))
	defer p.Close()

	feed.SignIn(alice())

	assert.Equal(t, []string{"provision:u1", "read:u1"}, store.Calls())

	s := p.Snapshot()
	require.NotNil(t, s.Profile)
	assert.Equal(t, "u1", s.Profile.UID)
	assert.Equal(t, "alice@example.com", s.Profile.Email)
	assert.Equal(t, entity.DefaultProfileRole, s.Profile.Role)
	assert.Equal(t, ProfileLoaded, s.ProfileStatus)
	assert.Equal(t, PhaseAuthenticated, s.Phase)
	assert.NoError(t, s.ProfileErr)

	// a second sign-in does not create another document
	feed.SignOut()
	feed.SignIn(alice())
	assert.Equal(t, 2, store.count("provision:u1"))
	assert.Len(t, store.profiles, 1)
}

func TestPublishSequence_AbsentSignInSignOut(t *testing.T) {
	feed := identity.NewFeed()
	store := newFakeStore()
	store.put(entity.Profile{UID: "u1", Email: "alice@example.com", Role: "patient"})

	p := New(feed, store, WithLogger(quietLogger()))
	defer p.Close()

	rec := &recorder{}
	p.Listen(rec.listen)

	feed.SignIn(alice())
	feed.SignOut()

	states := rec.all()
	require.Len(t, states, 4)

	// initial snapshot
	assert.Nil(t, states[0].Identity)
	assert.Nil(t, states[0].Profile)
	assert.False(t, states[0].Loading)

	// identity known, profile pending
	require.NotNil(t, states[1].Identity)
	assert.Equal(t, "u1", states[1].Identity.UID)
	assert.Nil(t, states[1].Profile)
	assert.False(t, states[1].Loading)
	assert.Equal(t, PhaseLoadingProfile, states[1].Phase)

	// profile loaded
	require.NotNil(t, states[2].Profile)
	assert.Equal(t, "u1", states[2].Profile.UID)
	assert.Equal(t, PhaseAuthenticated, states[2].Phase)

	// signed out, profile cleared in the same publish
	assert.Nil(t, states[3].Identity)
	assert.Nil(t, states[3].Profile)
	assert.Equal(t, PhaseUnauthenticated, states[3].Phase)
	assert.Equal(t, ProfileNone, states[3].ProfileStatus)
}

func TestProfileNeverSetWithoutIdentity(t *testing.T) {
	feed := identity.NewFeed()
	p := New(feed, newFakeStore(), WithLogger(quietLogger()))
	defer p.Close()

	rec := &recorder{}
	p.Listen(rec.listen)

	for i := 0; i < 3; i++ {
		feed.SignIn(alice())
		feed.SignOut()
	}

	for _, s := range rec.all() {
		if s.Identity == nil {
			assert.Nil(t, s.Profile)
		}
	}
}

func TestFetchFailure_DowngradesToFailedStatus(t *testing.T) {
	feed := identity.NewFeed()
	store := newFakeStore()
	boom := errors.New("unavailable")
	store.setReadErr(boom)

	p := New(feed, store, WithLogger(quietLogger()))
	defer p.Close()

	feed.SignIn(alice())

	s := p.Snapshot()
	assert.Equal(t, PhaseAuthenticated, s.Phase)
	assert.NotNil(t, s.Identity)
	assert.Nil(t, s.Profile)
	assert.Equal(t, ProfileFailed, s.ProfileStatus)
	assert.ErrorIs(t, s.ProfileErr, boom)
}

func TestProvisionFailure_StillFetches(t *testing.T) {
	feed := identity.NewFeed()
	store := newFakeStore()
	store.provisionErr = errors.New("permission denied")

	p := New(feed, store, WithLogger(quietLogger()))
	defer p.Close()

	feed.SignIn(alice())

	assert.Equal(t, []string{"provision:u1", "read:u1"}, store.Calls())
	s := p.Snapshot()
	assert.Nil(t, s.Profile)
	assert.Equal(t, ProfileMissing, s.ProfileStatus)
	assert.NoError(t, s.ProfileErr)
}

func TestRefresh_NoIdentityIsNoop(t *testing.T) {
	feed := identity.NewFeed()
	store := newFakeStore()
	p := New(feed, store, WithLogger(quietLogger()))
	defer p.Close()

	rec := &recorder{}
	p.Listen(rec.listen)
	before := p.Snapshot()

	got := p.Refresh(context.Background())

	assert.Equal(t, before, got)
	assert.Empty(t, store.Calls())
	assert.Len(t, rec.all(), 1)
}

func TestRefresh_FetchesExactlyOnce(t *testing.T) {
	feed := identity.NewFeed()
	store := newFakeStore()
	p := New(feed, store, WithLogger(quietLogger()))
	defer p.Close()

	feed.SignIn(alice())
	require.Equal(t, 1, store.count("read:u1"))

	store.put(entity.Profile{UID: "u1", Email: "alice@example.com", DisplayName: "Alice B.", Role: "patient"})
	got := p.Refresh(context.Background())

	assert.Equal(t, 2, store.count("read:u1"))
	assert.Equal(t, 1, store.count("provision:u1"))
	require.NotNil(t, got.Profile)
	assert.Equal(t, "Alice B.", got.Profile.DisplayName)
	assert.Equal(t, ProfileLoaded, got.ProfileStatus)
}

// cachingStore answers Read from a stale copy and Refetch from the store.
type cachingStore struct {
	*fakeStore
	stale     map[string]entity.Profile
	refetches int
}

func (c *cachingStore) Read(ctx context.Context, uid string) (*entity.Profile, error) {
	if p, ok := c.stale[uid]; ok {
		return &p, nil
	}
	return c.fakeStore.Read(ctx, uid)
}

func (c *cachingStore) Refetch(ctx context.Context, uid string) (*entity.Profile, error) {
	c.refetches++
	return c.fakeStore.Read(ctx, uid)
}

func TestRefresh_BypassesCachedReads(t *testing.T) {
	feed := identity.NewFeed()
	store := &cachingStore{fakeStore: newFakeStore(), stale: map[string]entity.Profile{}}
	p := New(feed, store, WithLogger(quietLogger()))
	defer p.Close()

	feed.SignIn(alice())
	assert.Zero(t, store.refetches)

	store.stale["u1"] = entity.Profile{UID: "u1", DisplayName: "Stale"}
	store.put(entity.Profile{UID: "u1", DisplayName: "Fresh", Role: "patient"})

	got := p.Refresh(context.Background())
	assert.Equal(t, 1, store.refetches)
	require.NotNil(t, got.Profile)
	assert.Equal(t, "Fresh", got.Profile.DisplayName)
}

func TestRefresh_FailureClearsProfile(t *testing.T) {
	feed := identity.NewFeed()
	store := newFakeStore()
	p := New(feed, store, WithLogger(quietLogger()))
	defer p.Close()

	feed.SignIn(alice())
	require.NotNil(t, p.Snapshot().Profile)

	store.setReadErr(errors.New("deadline exceeded"))
	got := p.Refresh(context.Background())

	assert.Nil(t, got.Profile)
	assert.Equal(t, ProfileFailed, got.ProfileStatus)
	assert.NotNil(t, got.Identity)
}

func TestStaleLoadIsNeverPublished(t *testing.T) {
	src := &manualSource{}
	store := newFakeStore()
	store.put(entity.Profile{UID: "u1", DisplayName: "stale"})
	store.put(entity.Profile{UID: "u2", DisplayName: "fresh"})

	started := make(chan struct{})
	release := make(chan struct{})
	store.readHook = func(_ context.Context, uid string) {
		if uid == "u1" {
			close(started)
			<-release
		}
	}

	p := New(src, store, WithLogger(quietLogger()))
	defer p.Close()
	rec := &recorder{}
	p.Listen(rec.listen)

	u1 := entity.Identity{UID: "u1"}
	u2 := entity.Identity{UID: "u2"}

	done := make(chan struct{})
	go func() {
		defer close(done)
		src.fire(&u1)
	}()
	<-started

	src.fire(&u2)
	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stale load did not return")
	}

	s := p.Snapshot()
	require.NotNil(t, s.Profile)
	assert.Equal(t, "fresh", s.Profile.DisplayName)
	assert.Equal(t, "u2", s.Identity.UID)

	for _, st := range rec.all() {
		if st.Profile != nil {
			assert.NotEqual(t, "stale", st.Profile.DisplayName)
		}
	}
}

func TestClose_IdempotentAndStopsPublication(t *testing.T) {
	feed := identity.NewFeed()
	p := New(feed, newFakeStore(), WithLogger(quietLogger()))

	rec := &recorder{}
	p.Listen(rec.listen)

	select {
	case <-p.Done():
		t.Fatal("done before Close")
	default:
	}

	p.Close()
	p.Close()
	<-p.Done()

	feed.SignIn(alice())

	assert.Len(t, rec.all(), 1)
	assert.Equal(t, 0, feed.Subscribers())
	assert.Nil(t, p.Snapshot().Identity)
}

func TestClose_CancelsInFlightLoad(t *testing.T) {
	src := &manualSource{}
	store := newFakeStore()
	started := make(chan struct{})
	store.readHook = func(ctx context.Context, _ string) {
		close(started)
		<-ctx.Done()
	}

	p := New(src, store, WithLogger(quietLogger()))
	rec := &recorder{}
	p.Listen(rec.listen)

	id := alice()
	done := make(chan struct{})
	go func() {
		defer close(done)
		src.fire(&id)
	}()
	<-started

	p.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("load was not cancelled by Close")
	}

	for _, s := range rec.all() {
		assert.NotEqual(t, PhaseAuthenticated, s.Phase)
	}
	src.mu.Lock()
	assert.True(t, src.unsubscribed)
	src.mu.Unlock()
}

func TestLoadTimeout_BoundsSlowStore(t *testing.T) {
	src := &manualSource{}
	store := newFakeStore()
	store.readHook = func(ctx context.Context, _ string) { <-ctx.Done() }
	store.readErr = context.DeadlineExceeded

	p := New(src, store, WithLogger(quietLogger()), WithLoadTimeout(20*time.Millisecond))
	defer p.Close()

	id := alice()
	src.fire(&id)

	s := p.Snapshot()
	assert.Equal(t, PhaseAuthenticated, s.Phase)
	assert.Equal(t, ProfileFailed, s.ProfileStatus)
	assert.ErrorIs(t, s.ProfileErr, context.DeadlineExceeded)
}

func TestListen_CancelStopsDelivery(t *testing.T) {
	feed := identity.NewFeed()
	p := New(feed, newFakeStore(), WithLogger(quietLogger()))
	defer p.Close()

	rec := &recorder{}
	cancel := p.Listen(rec.listen)
	cancel()
	cancel()

	feed.SignIn(alice())
	assert.Len(t, rec.all(), 1)
}

func TestSnapshot_IsACopy(t *testing.T) {
	feed := identity.NewFeed()
	p := New(feed, newFakeStore(), WithLogger(quietLogger()))
	defer p.Close()

	feed.SignIn(alice())
	s := p.Snapshot()
	require.NotNil(t, s.Profile)
	s.Profile.DisplayName = "mutated"
	s.Identity.UID = "other"

	again := p.Snapshot()
	assert.Equal(t, "Alice", again.Profile.DisplayName)
	assert.Equal(t, "u1", again.Identity.UID)
}
