package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medrecords-api/internal/handler"
	"github.com/jwalitptl/medrecords-api/internal/model"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
)

type Service interface {
	IssueToken(ctx context.Context, userID int64) (string, time.Time, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the token endpoint behind requireBasic, so a token
// can only be exchanged for a username and password.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, requireBasic gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		auth.POST("/token", requireBasic, h.IssueToken)
	}
}

func (h *Handler) IssueToken(c *gin.Context) {
	userID, ok := handler.UserID(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthorized("", nil))
		return
	}

	token, expiresAt, err := h.svc.IssueToken(c.Request.Context(), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	}))
}
