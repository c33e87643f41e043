package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-appointment-auth/internal/container"
	handlers "github.com/oksasatya/go-appointment-auth/internal/interface/http"
	"github.com/oksasatya/go-appointment-auth/internal/interface/middleware"
	"github.com/oksasatya/go-appointment-auth/pkg/helpers"
)

// SessionModule wires the auth state endpoints.
// Public: POST /api/session, POST /api/refresh
// Protected: DELETE /api/session, GET /api/session/state, POST /api/session/refresh,
// GET /api/session/events
type SessionModule struct {
	Handler *handlers.SessionHandler
	JWT     *helpers.JWTManager
}

func NewSessionModule(h *handlers.SessionHandler, jwt *helpers.JWTManager) *SessionModule {
	return &SessionModule{Handler: h, JWT: jwt}
}

func (m *SessionModule) Register(rg *gin.RouterGroup) {
	signInLimiter := middleware.RateLimit(container.GetRedis(), middleware.PerIP(10, time.Minute))
	refreshLimiter := middleware.RateLimit(container.GetRedis(), middleware.PerIP(60, time.Minute))

	rg.POST("/session", signInLimiter, m.Handler.SignIn)
	rg.POST("/refresh", refreshLimiter, m.Handler.RotateTokens)

	auth := rg.Group("/session")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), middleware.PerSession(120, time.Minute)))
	{
		auth.DELETE("", m.Handler.SignOut)
		auth.GET("/state", m.Handler.State)
		auth.POST("/refresh", m.Handler.RefreshProfile)
		auth.GET("/events", m.Handler.Events)
	}
}
