package router

import (
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-appointment-auth/internal/application"
	"github.com/oksasatya/go-appointment-auth/internal/application/authstate"
	"github.com/oksasatya/go-appointment-auth/internal/container"
	repo "github.com/oksasatya/go-appointment-auth/internal/domain/repository"
	fbinfra "github.com/oksasatya/go-appointment-auth/internal/infrastructure/firebase"
	fsinfra "github.com/oksasatya/go-appointment-auth/internal/infrastructure/firestore"
	pginfra "github.com/oksasatya/go-appointment-auth/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/go-appointment-auth/internal/interface/http"
	"github.com/oksasatya/go-appointment-auth/internal/router/modules"
	"github.com/oksasatya/go-appointment-auth/internal/session"
)

type ProfileModuleDeps struct {
	Repo    repo.ProfileRepository
	Service *application.ProfileService
	Handler *handlers.ProfileHandler
}

type SessionModuleDeps struct {
	Registry *session.Registry
	Service  *application.SessionService
	Handler  *handlers.SessionHandler
}

// profileRepository picks the profile store: Postgres when PROFILE_STORE=postgres
// and a pool is available, Firestore otherwise.
func profileRepository() repo.ProfileRepository {
	cfg := container.GetConfig()
	if cfg.UsePostgresProfiles() && container.GetPGPool() != nil {
		return pginfra.NewProfileRepository(container.GetPGPool())
	}
	return fsinfra.NewProfileRepository(container.GetFirestore())
}

func jobPublisher() application.JobPublisher {
	// a nil *RabbitPublisher must not become a non-nil interface
	if p := container.GetRabbitPub(); p != nil {
		return p
	}
	return nil
}

func buildProfileDeps() ProfileModuleDeps {
	r := profileRepository()
	service := application.NewProfileService(
		r,
		container.GetConfig(),
		container.GetGCS(),
		container.GetRedis(),
		container.GetLogger(),
		container.GetES(),
		jobPublisher(),
	)
	return ProfileModuleDeps{Repo: r, Service: service}
}

func buildSessionDeps(store authstate.ProfileStore) SessionModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	registry := session.NewRegistry(store,
		authstate.WithLogger(logger),
		authstate.WithLoadTimeout(cfg.AuthStateLoadTimeout),
	)
	container.SetSessionRegistry(registry)

	service := application.NewSessionService(container.GetJWT(), container.GetRedis(), logger)
	handler := handlers.NewSessionHandler(
		fbinfra.NewTokenVerifier(container.GetFirebaseAuth()),
		registry,
		service,
		logger,
		cfg.CookieDomain,
		cfg.CookieSecure,
	)
	return SessionModuleDeps{Registry: registry, Service: service, Handler: handler}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	jwt := container.GetJWT()

	profileDeps := buildProfileDeps()
	sessionDeps := buildSessionDeps(profileDeps.Service)
	profileDeps.Handler = handlers.NewProfileHandler(profileDeps.Service, sessionDeps.Registry, logger)

	r.Add(modules.NewSessionModule(sessionDeps.Handler, jwt))
	r.Add(modules.NewProfileModule(profileDeps.Handler, jwt))

	if fs := container.GetFirestore(); fs != nil {
		appointments := application.NewAppointmentService(fsinfra.NewAppointmentRepository(fs))
		r.Add(modules.NewAppointmentModule(handlers.NewAppointmentHandler(appointments, logger), jwt))
	} else if logger != nil {
		logger.Warn("firestore unavailable; /api/appointments not registered")
	}

	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"profile_store":   profileStoreName(profileDeps.Repo),
			"modules":         len(r.modules),
			"load_timeout":    cfg.AuthStateLoadTimeout.String(),
			"email_jobs":      jobPublisher() != nil,
			"search_indexing": container.GetES() != nil,
		}).Info("router modules initialized")
	}
}

func profileStoreName(r repo.ProfileRepository) string {
	switch r.(type) {
	case *pginfra.ProfileRepository:
		return "postgres"
	case *fsinfra.ProfileRepository:
		return "firestore"
	default:
		return "unknown"
	}
}
