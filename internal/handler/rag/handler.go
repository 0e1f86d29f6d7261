package rag

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medrecords-api/internal/handler"
	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
)

const notConfiguredMessage = "document QA is not configured"

type Asker interface {
	Ask(ctx context.Context, question string) (*model.Answer, error)
}

type Reindexer interface {
	Trigger(ctx context.Context, requestedBy int64) (queued bool, result *model.SyncResult, err error)
}

// Handler serves document QA. Either dependency may be nil when QA is not
// configured, in which case the routes answer 503.
type Handler struct {
	asker     Asker
	reindexer Reindexer
}

func NewHandler(asker Asker, reindexer Reindexer) *Handler {
	return &Handler{asker: asker, reindexer: reindexer}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	r.GET("/ask_records", requireAuth, h.Ask)
	r.GET("/ask_records/", requireAuth, h.Ask)
	r.POST("/ask_records/reindex", requireAuth, h.Reindex)
}

func (h *Handler) Ask(c *gin.Context) {
	if h.asker == nil {
		handler.RespondError(c, apperrors.Unavailable(notConfiguredMessage, nil))
		return
	}

	var req model.AskRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handler.RespondError(c, apperrors.BadRequest("question is required", err))
		return
	}

	answer, err := h.asker.Ask(c.Request.Context(), req.Question)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(answer))
}

func (h *Handler) Reindex(c *gin.Context) {
	if h.reindexer == nil {
		handler.RespondError(c, apperrors.Unavailable(notConfiguredMessage, nil))
		return
	}
	userID, _ := handler.UserID(c)

	queued, result, err := h.reindexer.Trigger(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			err = apperrors.Unavailable("document index is unavailable", err)
		}
		handler.RespondError(c, err)
		return
	}
	if queued {
		c.JSON(http.StatusAccepted, handler.NewSuccessResponse(gin.H{"queued": true}))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}
