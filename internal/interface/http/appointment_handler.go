package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	"github.com/oksasatya/go-appointment-auth/internal/interface/middleware"
	"github.com/oksasatya/go-appointment-auth/pkg/response"
)

type AppointmentLister interface {
	ListForUser(ctx context.Context, uid string) ([]entity.Appointment, error)
}

type AppointmentHandler struct {
	Svc    AppointmentLister
	Logger *logrus.Logger
}

func NewAppointmentHandler(svc AppointmentLister, logger *logrus.Logger) *AppointmentHandler {
	return &AppointmentHandler{Svc: svc, Logger: logger}
}

// List returns the caller's appointments.
func (h *AppointmentHandler) List(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	list, err := h.Svc.ListForUser(c.Request.Context(), uid)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("uid", uid).Error("list appointments failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to load appointments", nil)
		return
	}
	response.Success(c, http.StatusOK, list, "appointments", map[string]any{"count": len(list)})
}
