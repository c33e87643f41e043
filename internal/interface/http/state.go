package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-appointment-auth/internal/application/authstate"
)

// stateResponse is the wire form of a published auth state.
func stateResponse(s authstate.State) gin.H {
	out := gin.H{
		"identity":       s.Identity,
		"profile":        s.Profile,
		"loading":        s.Loading,
		"phase":          s.Phase,
		"profile_status": s.ProfileStatus,
		"generation":     s.Generation,
	}
	if s.ProfileErr != nil {
		out["profile_error"] = s.ProfileErr.Error()
	}
	return out
}
