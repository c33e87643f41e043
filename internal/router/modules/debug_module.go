package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-appointment-auth/internal/container"
	"github.com/oksasatya/go-appointment-auth/internal/interface/middleware"
)

// DebugModule exposes expvar (auth_sessions_open and runtime stats) at
// /api/debug/vars. Private addresses skip the per-IP limit.
type DebugModule struct{}

func NewDebugModule() *DebugModule { return &DebugModule{} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(container.GetRedis(), middleware.Limit{Max: 120, Window: time.Minute, Key: middleware.KeyByIP(), Allow: middleware.AllowPrivateIP()})
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
