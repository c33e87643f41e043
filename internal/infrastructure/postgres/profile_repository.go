package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	"github.com/oksasatya/go-appointment-auth/internal/domain/repository"
)

// ProfileRepository keeps profiles in the "profiles" table, keyed by uid.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

const profileColumns = `uid, email, display_name, photo_url, phone, date_of_birth, address, role, created_at, updated_at`

func (r *ProfileRepository) Read(ctx context.Context, uid string) (*entity.Profile, error) {
	p := &entity.Profile{}

	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE uid = $1`, uid)
	if err := row.Scan(&p.UID, &p.Email, &p.DisplayName, &p.PhotoURL, &p.Phone,
		&p.DateOfBirth, &p.Address, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrProfileNotFound
		}
		return nil, err
	}

	return p, nil
}

// Provision inserts the default profile; an existing row is left untouched.
func (r *ProfileRepository) Provision(ctx context.Context, id entity.Identity) (bool, error) {
	p := entity.NewProfileFromIdentity(id)

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (uid, email, display_name, photo_url, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (uid) DO NOTHING
	`, p.UID, p.Email, p.DisplayName, p.PhotoURL, p.Phone, p.Role)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *entity.Profile) error {
	p.UpdatedAt = time.Now().UTC()

	res, err := r.pool.Exec(ctx, `
		UPDATE profiles
		SET email = $1, display_name = $2, photo_url = $3, phone = $4,
		    date_of_birth = $5, address = $6, role = $7, updated_at = $8
		WHERE uid = $9
	`, p.Email, p.DisplayName, p.PhotoURL, p.Phone, p.DateOfBirth, p.Address, p.Role, p.UpdatedAt, p.UID)
	if err != nil {
		return err
	}

	if res.RowsAffected() == 0 {
		return repository.ErrProfileNotFound
	}

	return nil
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)
