package repository

import (
	"context"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
)

// AppointmentRepository inserts and lists appointment documents.
type AppointmentRepository interface {
	// Create stores a with server-assigned createdAt/updatedAt and returns the new document id.
	Create(ctx context.Context, a entity.Appointment) (string, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Appointment, error)
}
