package authstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	"github.com/oksasatya/go-appointment-auth/internal/domain/repository"
)

// IdentitySource fires fn once right away with the current identity (nil when
// signed out) and again on every sign-in/sign-out.
type IdentitySource interface {
	Subscribe(fn func(*entity.Identity)) (unsubscribe func())
}

// ProfileStore is the subset of the profile repository the publisher needs.
// Read returns repository.ErrProfileNotFound when the document does not exist.
type ProfileStore interface {
	Read(ctx context.Context, uid string) (*entity.Profile, error)
	Provision(ctx context.Context, id entity.Identity) (created bool, err error)
}

// Refetcher is implemented by stores that cache reads. Refresh calls Refetch
// so a manual refresh always reaches the backing store.
type Refetcher interface {
	Refetch(ctx context.Context, uid string) (*entity.Profile, error)
}

type Listener func(State)

type listenerEntry struct {
	id uint64
	fn Listener
}

// Publisher tracks the signed-in identity and its profile and republishes the
// pair to every listener.
//
// Each identity transition bumps the generation and cancels the previous
// transition's load, so only the latest transition's result is ever published.
type Publisher struct {
	store       ProfileStore
	logger      *logrus.Logger
	loadTimeout time.Duration

	// notifyMu orders commit+delivery so listeners see states in commit order.
	notifyMu sync.Mutex

	mu         sync.Mutex
	state      State
	resolved   bool
	cancelLoad context.CancelFunc
	listeners  []listenerEntry
	nextID     uint64
	closed     bool

	baseCtx     context.Context
	baseCancel  context.CancelFunc
	unsubscribe func()
	closeOnce   sync.Once
	done        chan struct{}
}

// New subscribes to source. The source delivers the current identity during
// Subscribe, so New returns only after that first transition is resolved when
// the source calls back synchronously.
func New(source IdentitySource, store ProfileStore, opts ...Option) *Publisher {
	p := &Publisher{
		store:       store,
		logger:      logrus.StandardLogger(),
		loadTimeout: DefaultLoadTimeout,
		done:        make(chan struct{}),
		state: State{
			Loading:       true,
			Phase:         PhaseInitializing,
			ProfileStatus: ProfileNone,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.baseCtx, p.baseCancel = context.WithCancel(context.Background())

	unsub := source.Subscribe(p.onIdentity)

	p.mu.Lock()
	closed := p.closed
	if !closed {
		p.unsubscribe = unsub
	}
	p.mu.Unlock()
	if closed && unsub != nil {
		unsub()
	}
	return p
}

// Snapshot returns a copy of the current state.
func (p *Publisher) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.clone()
}

// Listen registers fn and delivers the current snapshot to it before
// returning. The returned func unregisters fn.
func (p *Publisher) Listen(fn Listener) (cancel func()) {
	if fn == nil {
		return func() {}
	}

	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return func() {}
	}
	p.nextID++
	id := p.nextID
	p.listeners = append(p.listeners, listenerEntry{id: id, fn: fn})
	snap := p.state.clone()
	p.mu.Unlock()

	fn(snap)

	var once sync.Once
	return func() {
		once.Do(func() { p.removeListener(id) })
	}
}

// Refresh fetches the profile of the current identity again and publishes the
// result. It does nothing when nobody is signed in. A result that arrives after
// another identity transition is dropped.
func (p *Publisher) Refresh(ctx context.Context) State {
	p.mu.Lock()
	if p.closed || p.state.Identity == nil {
		snap := p.state.clone()
		p.mu.Unlock()
		return snap
	}
	gen := p.state.Generation
	uid := p.state.Identity.UID
	p.mu.Unlock()

	lctx, cancel := context.WithTimeout(ctx, p.loadTimeout)
	defer cancel()

	profile, status, err := p.fetch(lctx, uid, true)
	p.commit(gen, func(s *State) {
		s.Profile = profile
		s.ProfileStatus = status
		s.ProfileErr = err
	})
	return p.Snapshot()
}

// Done is closed once Close has run.
func (p *Publisher) Done() <-chan struct{} {
	return p.done
}

// Close unregisters from the identity source and cancels any in-flight load.
// No state is published after Close returns. Listeners must not call Close.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		p.notifyMu.Lock()
		p.mu.Lock()
		p.closed = true
		unsub := p.unsubscribe
		p.unsubscribe = nil
		if p.cancelLoad != nil {
			p.cancelLoad()
			p.cancelLoad = nil
		}
		p.listeners = nil
		p.mu.Unlock()
		p.notifyMu.Unlock()

		if p.baseCancel != nil {
			p.baseCancel()
		}
		if unsub != nil {
			unsub()
		}
		close(p.done)
	})
}

func (p *Publisher) onIdentity(id *entity.Identity) {
	gen, ctx, ok := p.begin(id)
	if !ok || id == nil {
		return
	}
	ident := *id

	lctx, cancel := context.WithTimeout(ctx, p.loadTimeout)
	defer cancel()

	if created, err := p.store.Provision(lctx, ident); err != nil {
		p.logFailure(lctx, err, ident.UID, "auth state: provision profile failed")
	} else if created && p.logger != nil {
		p.logger.WithField("uid", ident.UID).Info("auth state: profile provisioned")
	}

	profile, status, err := p.fetch(lctx, ident.UID, false)
	p.commit(gen, func(s *State) {
		s.Profile = profile
		s.ProfileStatus = status
		s.ProfileErr = err
		s.Phase = PhaseAuthenticated
		s.Loading = false
		p.resolved = true
		if p.cancelLoad != nil {
			p.cancelLoad()
			p.cancelLoad = nil
		}
	})
}

// begin starts a transition and publishes its intermediate state. For a
// present identity it returns the context the load must run under.
func (p *Publisher) begin(id *entity.Identity) (uint64, context.Context, bool) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, nil, false
	}
	if p.cancelLoad != nil {
		p.cancelLoad()
		p.cancelLoad = nil
	}

	p.state.Generation++
	p.state.Profile = nil
	p.state.ProfileErr = nil
	p.state.ProfileStatus = ProfileNone

	var ctx context.Context
	if id == nil || id.UID == "" {
		p.state.Identity = nil
		p.state.Phase = PhaseUnauthenticated
		p.state.Loading = false
		p.resolved = true
	} else {
		c := *id
		p.state.Identity = &c
		p.state.Phase = PhaseLoadingProfile
		p.state.Loading = !p.resolved
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(p.baseCtx)
		p.cancelLoad = cancel
	}
	gen := p.state.Generation
	snap, ls := p.state.clone(), p.listenersLocked()
	p.mu.Unlock()

	deliver(ls, snap)
	return gen, ctx, true
}

// commit applies fn and publishes, unless the publisher closed or another
// transition started after gen.
func (p *Publisher) commit(gen uint64, fn func(*State)) bool {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if p.closed || p.state.Generation != gen {
		p.mu.Unlock()
		return false
	}
	fn(&p.state)
	snap, ls := p.state.clone(), p.listenersLocked()
	p.mu.Unlock()

	deliver(ls, snap)
	return true
}

func (p *Publisher) fetch(ctx context.Context, uid string, fresh bool) (*entity.Profile, ProfileStatus, error) {
	read := p.store.Read
	if rf, ok := p.store.(Refetcher); ok && fresh {
		read = rf.Refetch
	}
	profile, err := read(ctx, uid)
	switch {
	case err == nil && profile != nil:
		return profile, ProfileLoaded, nil
	case err == nil, errors.Is(err, repository.ErrProfileNotFound):
		return nil, ProfileMissing, nil
	default:
		p.logFailure(ctx, err, uid, "auth state: fetch profile failed")
		return nil, ProfileFailed, err
	}
}

func (p *Publisher) logFailure(ctx context.Context, err error, uid, msg string) {
	if p.logger == nil {
		return
	}
	entry := p.logger.WithError(err).WithField("uid", uid)
	if ctx.Err() != nil {
		// superseded or closed; the result will not be published
		entry.Debug(msg)
		return
	}
	entry.Warn(msg)
}

func (p *Publisher) listenersLocked() []Listener {
	out := make([]Listener, 0, len(p.listeners))
	for _, l := range p.listeners {
		out = append(out, l.fn)
	}
	return out
}

func (p *Publisher) removeListener(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, l := range p.listeners {
		if l.id == id {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			return
		}
	}
}

func deliver(ls []Listener, s State) {
	for i, fn := range ls {
		if i == 0 {
			fn(s)
			continue
		}
		fn(s.clone())
	}
}
