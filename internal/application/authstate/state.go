package authstate

import "github.com/oksasatya/go-appointment-auth/internal/domain/entity"

type Phase string

const (
	PhaseInitializing    Phase = "initializing"
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseLoadingProfile  Phase = "loading_profile"
	PhaseAuthenticated   Phase = "authenticated"
)

// ProfileStatus tells a nil Profile apart: nobody signed in, no document, or a
// store error.
type ProfileStatus string

const (
	ProfileNone    ProfileStatus = "none"
	ProfileLoaded  ProfileStatus = "loaded"
	ProfileMissing ProfileStatus = "missing"
	ProfileFailed  ProfileStatus = "failed"
)

// State is the composite value published to listeners. Listeners receive
// copies; mutating them has no effect on the publisher.
type State struct {
	Identity      *entity.Identity
	Profile       *entity.Profile
	Loading       bool
	Phase         Phase
	ProfileStatus ProfileStatus
	ProfileErr    error
	Generation    uint64
}

func (s State) SignedIn() bool { return s.Identity != nil }

func (s State) clone() State {
	c := s
	if s.Identity != nil {
		id := *s.Identity
		c.Identity = &id
	}
	if s.Profile != nil {
		p := *s.Profile
		c.Profile = &p
	}
	return c
}
