package identity

import (
	"sync"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
)

// Feed is an in-process identity source. It remembers the current identity and
// pushes every sign-in/sign-out to its subscribers.
//
// Deliveries are serialized: a subscriber never sees two callbacks at once and
// observes transitions in the order SignIn/SignOut were called. Callbacks run on
// the caller's goroutine, so SignIn returns only after every subscriber is done.
type Feed struct {
	deliverMu sync.Mutex

	mu      sync.Mutex
	current *entity.Identity
	subs    []subscriber
	nextID  uint64
}

type subscriber struct {
	id uint64
	fn func(*entity.Identity)
}

func NewFeed() *Feed {
	return &Feed{}
}

// Subscribe registers fn and calls it once right away with the current identity
// (nil when signed out). The returned func removes the subscription; it is safe
// to call more than once.
func (f *Feed) Subscribe(fn func(*entity.Identity)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()

	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.subs = append(f.subs, subscriber{id: id, fn: fn})
	cur := clone(f.current)
	f.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() { f.remove(id) })
	}
}

// SignIn replaces the current identity and notifies subscribers.
// Signing in with the same uid twice still produces a delivery.
func (f *Feed) SignIn(id entity.Identity) {
	f.deliver(&id)
}

// SignOut clears the current identity and notifies subscribers.
func (f *Feed) SignOut() {
	f.deliver(nil)
}

// Current returns a copy of the signed-in identity, or nil.
func (f *Feed) Current() *entity.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clone(f.current)
}

// Subscribers reports how many callbacks are registered.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Feed) deliver(id *entity.Identity) {
	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()

	f.mu.Lock()
	f.current = clone(id)
	subs := make([]subscriber, len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()

	for _, s := range subs {
		if !f.subscribed(s.id) {
			continue
		}
		s.fn(clone(id))
	}
}

func (f *Feed) subscribed(id uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.id == id {
			return true
		}
	}
	return false
}

func (f *Feed) remove(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.subs {
		if s.id == id {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}

func clone(id *entity.Identity) *entity.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
