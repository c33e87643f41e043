package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
)

// ErrProfileNotFound is returned by Read when no document exists for the uid.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository defines the document-store operations for user profiles.
type ProfileRepository interface {
	Read(ctx context.Context, uid string) (*entity.Profile, error)
	// Provision creates the default profile for id only if none exists yet.
	// created reports whether this call wrote the document.
	Provision(ctx context.Context, id entity.Identity) (created bool, err error)
	Update(ctx context.Context, p *entity.Profile) error
}
