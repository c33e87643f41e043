package application

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	repo "github.com/oksasatya/go-appointment-auth/internal/domain/repository"
)

// SampleAppointments returns the fixed demo records. Their user ids are
// placeholders; see WithUserID.
func SampleAppointments() []entity.Appointment {
	return []entity.Appointment{
		{
			UserID:    "user123456789",
			Doctor:    "Dr. Sarah Johnson",
			Specialty: "Cardiology",
			Date:      "2024-01-15",
			Time:      "10:00 AM",
			Type:      "Consultation",
			Reason:    "Annual heart checkup",
			Phone:     "+1234567890",
			Status:    entity.AppointmentPending,
			Notes:     "Patient requested morning appointment",
		},
		{
			UserID:    "user123456789",
			Doctor:    "Dr. Michael Chen",
			Specialty: "Dermatology",
			Date:      "2024-01-20",
			Time:      "02:30 PM",
			Type:      "Follow-up",
			Reason:    "Skin condition follow-up",
			Phone:     "+1234567890",
			Status:    entity.AppointmentConfirmed,
			Notes:     "Follow-up for previous treatment",
		},
		{
			UserID:    "user987654321",
			Doctor:    "Dr. Emily Rodriguez",
			Specialty: "Pediatrics",
			Date:      "2024-01-18",
			Time:      "09:00 AM",
			Type:      "Routine Check-up",
			Reason:    "Child wellness visit",
			Phone:     "+1987654321",
			Status:    entity.AppointmentConfirmed,
			Notes:     "Annual pediatric checkup",
		},
	}
}

// WithUserID returns a copy of records with every UserID replaced by uid.
// An empty uid leaves the records unchanged.
func WithUserID(records []entity.Appointment, uid string) []entity.Appointment {
	out := make([]entity.Appointment, len(records))
	copy(out, records)
	if uid == "" {
		return out
	}
	for i := range out {
		out[i].UserID = uid
	}
	return out
}

type SeedFailure struct {
	Index  int
	Doctor string
	Err    error
}

type SeedReport struct {
	Created  []string
	Failures []SeedFailure
}

func (r SeedReport) Total() int { return len(r.Created) + len(r.Failures) }

// AppointmentSeeder inserts appointment records one by one.
type AppointmentSeeder struct {
	Repo   repo.AppointmentRepository
	Logger *logrus.Logger
}

func NewAppointmentSeeder(r repo.AppointmentRepository, logger *logrus.Logger) *AppointmentSeeder {
	return &AppointmentSeeder{Repo: r, Logger: logger}
}

// Seed inserts every record. A failing record is logged and recorded in the
// report; the remaining records are still attempted. There is no retry and no
// transaction across records.
func (s *AppointmentSeeder) Seed(ctx context.Context, records []entity.Appointment) SeedReport {
	var report SeedReport
	for i, a := range records {
		id, err := s.Repo.Create(ctx, a)
		if err != nil {
			report.Failures = append(report.Failures, SeedFailure{Index: i, Doctor: a.Doctor, Err: err})
			if s.Logger != nil {
				s.Logger.WithError(err).WithFields(logrus.Fields{
					"index":  i,
					"doctor": a.Doctor,
				}).Error("create appointment failed")
			}
			continue
		}
		report.Created = append(report.Created, id)
		s.logCreated(id, a)
	}
	return report
}

// Create inserts a single appointment and returns its id.
func (s *AppointmentSeeder) Create(ctx context.Context, a entity.Appointment) (string, error) {
	id, err := s.Repo.Create(ctx, a)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("doctor", a.Doctor).Error("create appointment failed")
		}
		return "", fmt.Errorf("create appointment: %w", err)
	}
	s.logCreated(id, a)
	return id, nil
}

func (s *AppointmentSeeder) logCreated(id string, a entity.Appointment) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithFields(logrus.Fields{
		"id":     id,
		"doctor": a.Doctor,
		"date":   a.Date,
		"time":   a.Time,
		"status": a.Status,
	}).Info("appointment created")
}
