package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-appointment-auth/internal/application"
	"github.com/oksasatya/go-appointment-auth/internal/application/authstate"
	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	"github.com/oksasatya/go-appointment-auth/internal/interface/middleware"
	"github.com/oksasatya/go-appointment-auth/internal/session"
	"github.com/oksasatya/go-appointment-auth/pkg/helpers"
	"github.com/oksasatya/go-appointment-auth/pkg/response"
	"github.com/oksasatya/go-appointment-auth/pkg/validation"
)

// IdentityVerifier turns a client ID token into an identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (entity.Identity, error)
}

type SessionHandler struct {
	Verifier IdentityVerifier
	Registry *session.Registry
	Sessions *application.SessionService
	Logger   *logrus.Logger
	Cookies  *helpers.Manager
}

func NewSessionHandler(v IdentityVerifier, reg *session.Registry, svc *application.SessionService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *SessionHandler {
	return &SessionHandler{
		Verifier: v,
		Registry: reg,
		Sessions: svc,
		Logger:   logger,
		Cookies:  helpers.NewCookie(cookieDomain, cookieSecure),
	}
}

type signInRequest struct {
	IDToken string `json:"id_token" binding:"required,idtoken"`
}

// SignIn verifies the ID token, opens a session and feeds the identity into
// it. The response carries the state after the profile load resolved.
func (h *SessionHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	id, err := h.Verifier.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Info("id token rejected")
		}
		response.Error[any](c, http.StatusUnauthorized, "invalid id token", nil)
		return
	}

	sid := uuid.NewString()
	pair, err := h.Sessions.IssueTokens(c.Request.Context(), id, sid)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to issue tokens", nil)
		return
	}

	sess := h.Registry.Open(sid)
	sess.Feed.SignIn(id)

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, stateResponse(sess.Publisher.Snapshot()), "signed in",
		map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

func (h *SessionHandler) SignOut(c *gin.Context) {
	sid := c.GetString(middleware.CtxSessionIDKey)
	h.Registry.Close(sid)
	h.Sessions.Revoke(c.Request.Context(), sid)
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"signed_out": true}, "signed out", nil)
}

func (h *SessionHandler) State(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, stateResponse(sess.Publisher.Snapshot()), "auth state", nil)
}

// RefreshProfile re-fetches the profile of the signed-in identity.
func (h *SessionHandler) RefreshProfile(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}
	st := sess.Publisher.Refresh(c.Request.Context())
	response.Success(c, http.StatusOK, stateResponse(st), "profile refreshed", nil)
}

// Events streams published states as Server-Sent Events. The current state is
// sent first. The stream ends with a "closed" event when the session closes.
func (h *SessionHandler) Events(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	states := make(chan authstate.State, 16)
	cancel := sess.Publisher.Listen(func(s authstate.State) {
		select {
		case states <- s:
		default:
			// slow reader; drop the oldest so the latest state still gets through
			select {
			case <-states:
			default:
			}
			select {
			case states <- s:
			default:
			}
		}
	})
	defer cancel()

	ctx := c.Request.Context()
	closed := sess.Publisher.Done()
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-closed:
			c.SSEvent("closed", gin.H{"reason": "session closed"})
			return false
		case s := <-states:
			c.SSEvent("state", stateResponse(s))
			return true
		}
	})
}

// RotateTokens exchanges the refresh cookie for a new token pair.
func (h *SessionHandler) RotateTokens(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Sessions.Rotate(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, map[string]any{"refreshed": true}, "token refreshed",
		map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

// resolve finds the caller's session. A session missing from memory (after a
// restart) is reopened from its Redis record and signed in again.
func (h *SessionHandler) resolve(c *gin.Context) (*session.Session, bool) {
	sid := c.GetString(middleware.CtxSessionIDKey)
	if sess, ok := h.Registry.Get(sid); ok {
		return sess, true
	}

	id, err := h.Sessions.Lookup(c.Request.Context(), sid)
	if err != nil {
		if !errors.Is(err, application.ErrSessionNotFound) && h.Logger != nil {
			h.Logger.WithError(err).WithField("sid", sid).Warn("session lookup failed")
		}
		response.Error[any](c, http.StatusUnauthorized, "session not found", nil)
		return nil, false
	}
	if uid := c.GetString(middleware.CtxUserIDKey); uid != "" && uid != id.UID {
		response.Error[any](c, http.StatusUnauthorized, "session not found", nil)
		return nil, false
	}

	sess := h.Registry.Open(sid)
	if sess.Publisher.Snapshot().Identity == nil {
		sess.Feed.SignIn(id)
	}
	return sess, true
}
