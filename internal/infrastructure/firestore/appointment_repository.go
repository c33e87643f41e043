package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	"github.com/oksasatya/go-appointment-auth/internal/domain/repository"
)

type AppointmentRepository struct {
	client     *firestore.Client
	collection string
}

func NewAppointmentRepository(client *firestore.Client) *AppointmentRepository {
	return &AppointmentRepository{client: client, collection: AppointmentsCollection}
}

// Create adds a with an auto-generated id. createdAt/updatedAt are assigned by
// the server; whatever a carries in those fields is ignored.
func (r *AppointmentRepository) Create(ctx context.Context, a entity.Appointment) (string, error) {
	ref, _, err := r.client.Collection(r.collection).Add(ctx, map[string]interface{}{
		"userId":    a.UserID,
		"doctor":    a.Doctor,
		"specialty": a.Specialty,
		"date":      a.Date,
		"time":      a.Time,
		"type":      a.Type,
		"reason":    a.Reason,
		"phone":     a.Phone,
		"status":    a.Status,
		"notes":     a.Notes,
		"createdAt": firestore.ServerTimestamp,
		"updatedAt": firestore.ServerTimestamp,
	})
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

// ListByUser returns the user's appointments ordered by date then time.
// Sorting happens here so no composite index is required.
func (r *AppointmentRepository) ListByUser(ctx context.Context, userID string) ([]entity.Appointment, error) {
	it := r.client.Collection(r.collection).Where("userId", "==", userID).Documents(ctx)
	defer it.Stop()

	out := []entity.Appointment{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var a entity.Appointment
		if err := snap.DataTo(&a); err != nil {
			return nil, err
		}
		a.ID = snap.Ref.ID
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return clockMinutes(out[i].Time) < clockMinutes(out[j].Time)
	})
	return out, nil
}

// clockMinutes parses "02:30 PM" style times into minutes after midnight.
// Unparseable values sort last.
func clockMinutes(s string) int {
	for _, layout := range []string{"03:04 PM", "3:04 PM", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute()
		}
	}
	return 24 * 60
}

var _ repository.AppointmentRepository = (*AppointmentRepository)(nil)
