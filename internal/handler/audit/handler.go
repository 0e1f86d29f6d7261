package audit

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medrecords-api/internal/handler"
	"github.com/jwalitptl/medrecords-api/internal/model"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
)

type Service interface {
	List(ctx context.Context, filter model.ListFilter) ([]*model.AuditLog, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	r.GET("/audit_logs", requireAuth, h.ListLogs)
}

// ListLogs returns the caller's own audit trail, newest first.
func (h *Handler) ListLogs(c *gin.Context) {
	userID, ok := handler.UserID(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthorized("", nil))
		return
	}

	var filter model.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.RespondError(c, apperrors.BadRequest("invalid query", err))
		return
	}
	filter.UserID = userID

	logs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(logs))
}
