package firestore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	"github.com/oksasatya/go-appointment-auth/internal/domain/repository"
)

func emulatorClient(t *testing.T) (*ProfileRepository, *AppointmentRepository) {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	c, err := NewClient(context.Background(), "demo-appointments", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return NewProfileRepository(c), NewAppointmentRepository(c)
}

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func TestProfileRepository_Lifecycle(t *testing.T) {
	profiles, _ := emulatorClient(t)
	ctx := context.Background()
	uid := uniqueID("user")

	_, err := profiles.Read(ctx, uid)
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)

	err = profiles.Update(ctx, &entity.Profile{UID: uid})
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)

	created, err := profiles.Provision(ctx, entity.Identity{UID: uid, Email: "a@example.com", DisplayName: "A"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = profiles.Provision(ctx, entity.Identity{UID: uid, Email: "b@example.com"})
	require.NoError(t, err)
	assert.False(t, created)

	p, err := profiles.Read(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", p.Email)
	assert.Equal(t, entity.DefaultProfileRole, p.Role)
	assert.False(t, p.CreatedAt.IsZero())

	p.Phone = "+1234567890"
	require.NoError(t, profiles.Update(ctx, p))
	p, err = profiles.Read(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "+1234567890", p.Phone)
}

func TestAppointmentRepository_CreateAndList(t *testing.T) {
	_, appts := emulatorClient(t)
	ctx := context.Background()
	uid := uniqueID("patient")

	later := entity.Appointment{UserID: uid, Doctor: "Dr. B", Date: "2024-01-20", Time: "02:30 PM", Status: entity.AppointmentConfirmed}
	earlier := entity.Appointment{UserID: uid, Doctor: "Dr. A", Date: "2024-01-15", Time: "10:00 AM", Status: entity.AppointmentPending}

	id1, err := appts.Create(ctx, later)
	require.NoError(t, err)
	id2, err := appts.Create(ctx, earlier)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	list, err := appts.ListByUser(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Dr. A", list[0].Doctor)
	assert.Equal(t, id2, list[0].ID)
	assert.False(t, list[0].CreatedAt.IsZero())

	empty, err := appts.ListByUser(ctx, uniqueID("nobody"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
