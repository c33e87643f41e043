package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	"github.com/oksasatya/go-appointment-auth/pkg/helpers"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
)

// SessionService issues the JWT cookie pair for a server-side session and
// keeps the session record in Redis under user:session:<sid>.
type SessionService struct {
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
}

func NewSessionService(jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *SessionService {
	return &SessionService{JWT: jwt, Redis: rdb, Logger: logger}
}

func SessionKey(sid string) string {
	return "user:session:" + sid
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// IssueTokens generates the token pair for sid and records the session.
func (s *SessionService) IssueTokens(ctx context.Context, id entity.Identity, sid string) (helpers.TokenPair, error) {
	pair, err := s.JWT.GeneratePair(id.UID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("uid", id.UID).Error("generate token pair failed")
		}
		return helpers.TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":        id.UID,
			"email":          id.Email,
			"name":           id.DisplayName,
			"avatar_url":     id.PhotoURL,
			"phone":          id.PhoneNumber,
			"provider":       id.Provider,
			"email_verified": strconv.FormatBool(id.EmailVerified),
			"sid":            sid,
			"refresh_id":     pair.RefreshID,
			"logged_in":      true,
			"created_at":     nowRFC3339(),
		}
		key := SessionKey(sid)
		if rErr := helpers.RedisHSetTTL(ctx, s.Redis, key, fields, s.JWT.RefreshTTL); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis session write failed")
		}
	}

	return pair, nil
}

// Rotate exchanges a refresh token for a new pair on the same session. The
// previous refresh token stops working.
func (s *SessionService) Rotate(ctx context.Context, refreshToken string) (helpers.TokenPair, *helpers.Claims, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil || claims.SessionID == "" {
		return helpers.TokenPair{}, nil, ErrInvalidCredentials
	}

	key := SessionKey(claims.SessionID)
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, key).Result()
		if rErr != nil || len(data) == 0 || data["user_id"] != claims.UserID || data["refresh_id"] != claims.ID {
			return helpers.TokenPair{}, nil, ErrInvalidCredentials
		}
	}

	pair, err := s.JWT.GeneratePair(claims.UserID, claims.SessionID)
	if err != nil {
		return helpers.TokenPair{}, nil, err
	}
	if s.Redis != nil {
		fields := map[string]any{
			"refresh_id": pair.RefreshID,
			"updated_at": nowRFC3339(),
		}
		if rErr := helpers.RedisHSetTTL(ctx, s.Redis, key, fields, s.JWT.RefreshTTL); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis session write failed")
		}
	}
	return pair, claims, nil
}

// Lookup returns the identity recorded for sid.
func (s *SessionService) Lookup(ctx context.Context, sid string) (entity.Identity, error) {
	if s.Redis == nil {
		return entity.Identity{}, ErrSessionNotFound
	}
	data, err := s.Redis.HGetAll(ctx, SessionKey(sid)).Result()
	if err != nil {
		return entity.Identity{}, err
	}
	if len(data) == 0 || data["user_id"] == "" {
		return entity.Identity{}, ErrSessionNotFound
	}
	return IdentityFromSession(data), nil
}

// Revoke deletes the session record.
func (s *SessionService) Revoke(ctx context.Context, sid string) {
	if s.Redis == nil || sid == "" {
		return
	}
	if err := s.Redis.Del(ctx, SessionKey(sid)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("sid", sid).Warn("redis delete session failed")
	}
}

// IdentityFromSession rebuilds an identity from a session hash.
func IdentityFromSession(data map[string]string) entity.Identity {
	verified, _ := strconv.ParseBool(data["email_verified"])
	return entity.Identity{
		UID:           data["user_id"],
		Email:         data["email"],
		DisplayName:   data["name"],
		PhotoURL:      data["avatar_url"],
		PhoneNumber:   data["phone"],
		Provider:      data["provider"],
		EmailVerified: verified,
	}
}
