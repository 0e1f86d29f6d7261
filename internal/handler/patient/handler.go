package patient

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medrecords-api/internal/handler"
	"github.com/jwalitptl/medrecords-api/internal/model"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
)

type Service interface {
	CreatePatient(ctx context.Context, identity int64, req *model.CreatePatientRequest) (*model.Patient, error)
	ListPatients(ctx context.Context) ([]*model.Patient, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	r.POST("/patients", requireAuth, h.CreatePatient)
	r.POST("/patients/", requireAuth, h.CreatePatient)
	r.GET("/patients", h.ListPatients)
}

func (h *Handler) CreatePatient(c *gin.Context) {
	identity, ok := handler.UserID(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthorized("", nil))
		return
	}

	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	patient, err := h.service.CreatePatient(c.Request.Context(), identity, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(patient))
}

func (h *Handler) ListPatients(c *gin.Context) {
	patients, err := h.service.ListPatients(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}
