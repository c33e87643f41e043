package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-appointment-auth/internal/container"
	handlers "github.com/oksasatya/go-appointment-auth/internal/interface/http"
	"github.com/oksasatya/go-appointment-auth/internal/interface/middleware"
	"github.com/oksasatya/go-appointment-auth/pkg/helpers"
)

// ProfileModule: GET/PUT /api/profile, POST /api/profile/avatar, GET /api/users/search.
// All routes require a session.
type ProfileModule struct {
	Handler *handlers.ProfileHandler
	JWT     *helpers.JWTManager
}

func NewProfileModule(h *handlers.ProfileHandler, jwt *helpers.JWTManager) *ProfileModule {
	return &ProfileModule{Handler: h, JWT: jwt}
}

func (m *ProfileModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), middleware.PerIP(300, time.Minute)),
		middleware.RateLimit(container.GetRedis(), middleware.PerUser(120, time.Minute)),
	)
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.POST("/profile/avatar",
			middleware.RateLimit(container.GetRedis(), middleware.PerUser(10, time.Minute)),
			m.Handler.UploadAvatar)
		auth.GET("/users/search", m.Handler.Search)
	}
}
