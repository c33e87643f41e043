package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-appointment-auth/internal/container"
	handlers "github.com/oksasatya/go-appointment-auth/internal/interface/http"
	"github.com/oksasatya/go-appointment-auth/internal/interface/middleware"
	"github.com/oksasatya/go-appointment-auth/pkg/helpers"
)

type AppointmentModule struct {
	Handler *handlers.AppointmentHandler
	JWT     *helpers.JWTManager
}

func NewAppointmentModule(h *handlers.AppointmentHandler, jwt *helpers.JWTManager) *AppointmentModule {
	return &AppointmentModule{Handler: h, JWT: jwt}
}

func (m *AppointmentModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/appointments")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), middleware.PerUser(120, time.Minute)))
	auth.GET("", m.Handler.List)
}
