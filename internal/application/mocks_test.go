package application

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	"github.com/oksasatya/go-appointment-auth/pkg/mailer"
)

type mockProfileRepo struct {
	mock.Mock
}

func (m *mockProfileRepo) Read(ctx context.Context, uid string) (*entity.Profile, error) {
	args := m.Called(ctx, uid)
	p, _ := args.Get(0).(*entity.Profile)
	return p, args.Error(1)
}

func (m *mockProfileRepo) Provision(ctx context.Context, id entity.Identity) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockProfileRepo) Update(ctx context.Context, p *entity.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type mockAppointmentRepo struct {
	mock.Mock
}

func (m *mockAppointmentRepo) Create(ctx context.Context, a entity.Appointment) (string, error) {
	args := m.Called(ctx, a)
	return args.String(0), args.Error(1)
}

func (m *mockAppointmentRepo) ListByUser(ctx context.Context, userID string) ([]entity.Appointment, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]entity.Appointment)
	return list, args.Error(1)
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	err  error
}

func (f *fakeJobs) PublishJSON(_ context.Context, body any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if job, ok := body.(mailer.EmailJob); ok {
		f.jobs = append(f.jobs, job)
	}
	return nil
}

func (f *fakeJobs) sent() []mailer.EmailJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.EmailJob(nil), f.jobs...)
}
