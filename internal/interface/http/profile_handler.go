package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-appointment-auth/internal/application"
	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	"github.com/oksasatya/go-appointment-auth/internal/domain/repository"
	"github.com/oksasatya/go-appointment-auth/internal/interface/middleware"
	"github.com/oksasatya/go-appointment-auth/internal/session"
	"github.com/oksasatya/go-appointment-auth/pkg/response"
	"github.com/oksasatya/go-appointment-auth/pkg/validation"
)

const maxAvatarBytes = 5 << 20

// ProfileUseCase is what the profile endpoints need from the application layer.
type ProfileUseCase interface {
	Read(ctx context.Context, uid string) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, uid string, in application.UpdateProfileInput) (*entity.Profile, error)
	UploadAvatar(ctx context.Context, uid string, r io.Reader, filename, contentType string) (string, error)
	SearchProfiles(ctx context.Context, q string, size int) ([]map[string]any, error)
}

type ProfileHandler struct {
	Svc      ProfileUseCase
	Registry *session.Registry
	Logger   *logrus.Logger
}

func NewProfileHandler(svc ProfileUseCase, reg *session.Registry, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{Svc: svc, Registry: reg, Logger: logger}
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name" binding:"omitempty,max=100"`
	Phone       string `json:"phone" binding:"omitempty,phone"`
	DateOfBirth string `json:"date_of_birth" binding:"omitempty,dob"`
	Address     string `json:"address" binding:"omitempty,max=200"`
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	p, err := h.Svc.Read(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			response.Error[any](c, http.StatusNotFound, "profile not found", nil)
			return
		}
		h.logError(err, uid, "read profile failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to load profile", nil)
		return
	}
	response.Success(c, http.StatusOK, p, "profile", nil)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Svc.UpdateProfile(c.Request.Context(), uid, application.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
	})
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			response.Error[any](c, http.StatusNotFound, "profile not found", nil)
			return
		}
		h.logError(err, uid, "update profile failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to update profile", nil)
		return
	}
	h.refreshSession(c)
	response.Success(c, http.StatusOK, p, "profile updated", nil)
}

func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)

	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing avatar file", nil)
		return
	}
	if fh.Size > maxAvatarBytes {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "avatar too large", map[string]any{"max_bytes": maxAvatarBytes})
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.Error[any](c, http.StatusUnsupportedMediaType, "avatar must be an image", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable avatar file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), uid, f, fh.Filename, contentType)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProfileNotFound):
			response.Error[any](c, http.StatusNotFound, "profile not found", nil)
		case errors.Is(err, application.ErrStorageNotConfigured):
			response.Error[any](c, http.StatusServiceUnavailable, "avatar storage unavailable", nil)
		default:
			h.logError(err, uid, "upload avatar failed")
			response.Error[any](c, http.StatusInternalServerError, "failed to upload avatar", nil)
		}
		return
	}
	h.refreshSession(c)
	response.Success(c, http.StatusOK, gin.H{"photo_url": url}, "avatar uploaded", nil)
}

func (h *ProfileHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchProfiles(c.Request.Context(), q, size)
	if err != nil {
		h.logError(err, c.GetString(middleware.CtxUserIDKey), "profile search failed")
		response.Error[any](c, http.StatusBadGateway, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}

// refreshSession republishes the caller's profile after a write.
func (h *ProfileHandler) refreshSession(c *gin.Context) {
	if h.Registry == nil {
		return
	}
	if sess, ok := h.Registry.Get(c.GetString(middleware.CtxSessionIDKey)); ok {
		sess.Publisher.Refresh(c.Request.Context())
	}
}

func (h *ProfileHandler) logError(err error, uid, msg string) {
	if h.Logger != nil {
		h.Logger.WithError(err).WithField("uid", uid).Error(msg)
	}
}
