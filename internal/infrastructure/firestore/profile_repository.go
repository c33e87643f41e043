package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	"github.com/oksasatya/go-appointment-auth/internal/domain/repository"
)

// ProfileRepository stores one document per user in the "users" collection,
// with the document ID equal to the uid.
type ProfileRepository struct {
	client     *firestore.Client
	collection string
}

func NewProfileRepository(client *firestore.Client) *ProfileRepository {
	return &ProfileRepository{client: client, collection: UsersCollection}
}

func (r *ProfileRepository) doc(uid string) *firestore.DocumentRef {
	return r.client.Collection(r.collection).Doc(uid)
}

func (r *ProfileRepository) Read(ctx context.Context, uid string) (*entity.Profile, error) {
	snap, err := r.doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrProfileNotFound
		}
		return nil, err
	}

	var p entity.Profile
	if err := snap.DataTo(&p); err != nil {
		return nil, err
	}
	if p.UID == "" {
		p.UID = snap.Ref.ID
	}
	return &p, nil
}

// Provision uses Create, which fails with AlreadyExists instead of overwriting.
func (r *ProfileRepository) Provision(ctx context.Context, id entity.Identity) (bool, error) {
	p := entity.NewProfileFromIdentity(id)

	_, err := r.doc(id.UID).Create(ctx, map[string]interface{}{
		"uid":         p.UID,
		"email":       p.Email,
		"displayName": p.DisplayName,
		"photoURL":    p.PhotoURL,
		"phone":       p.Phone,
		"dateOfBirth": p.DateOfBirth,
		"address":     p.Address,
		"role":        p.Role,
		"createdAt":   firestore.ServerTimestamp,
		"updatedAt":   firestore.ServerTimestamp,
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *entity.Profile) error {
	_, err := r.doc(p.UID).Update(ctx, []firestore.Update{
		{Path: "email", Value: p.Email},
		{Path: "displayName", Value: p.DisplayName},
		{Path: "photoURL", Value: p.PhotoURL},
		{Path: "phone", Value: p.Phone},
		{Path: "dateOfBirth", Value: p.DateOfBirth},
		{Path: "address", Value: p.Address},
		{Path: "role", Value: p.Role},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if status.Code(err) == codes.NotFound {
		return repository.ErrProfileNotFound
	}
	return err
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)
