package application

import (
	"context"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	repo "github.com/oksasatya/go-appointment-auth/internal/domain/repository"
)

type AppointmentService struct {
	Repo repo.AppointmentRepository
}

func NewAppointmentService(r repo.AppointmentRepository) *AppointmentService {
	return &AppointmentService{Repo: r}
}

func (s *AppointmentService) ListForUser(ctx context.Context, uid string) ([]entity.Appointment, error) {
	return s.Repo.ListByUser(ctx, uid)
}
