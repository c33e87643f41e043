package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-appointment-auth/internal/application"
	"github.com/oksasatya/go-appointment-auth/pkg/helpers"
	"github.com/oksasatya/go-appointment-auth/pkg/response"
)

const (
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"
)

// Auth validates the access token and ensures its session still exists in Redis.
// It sets userID, sessionID, userName, and userEmail in the Gin context on success.
// With a nil Redis client only the token is checked.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(helpers.AccessCookie)
		if err != nil || token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil || claims.SessionID == "" {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", nil)
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxSessionIDKey, claims.SessionID)

		if rdb != nil {
			data, err := rdb.HGetAll(c.Request.Context(), application.SessionKey(claims.SessionID)).Result()
			if err != nil || len(data) == 0 || data["user_id"] != claims.UserID {
				response.Error[any](c, http.StatusUnauthorized, "session not found", nil)
				c.Abort()
				return
			}
			c.Set("userName", data["name"])
			c.Set("userEmail", data["email"])
		}
		c.Next()
	}
}
