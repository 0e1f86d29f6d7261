package record

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medrecords-api/internal/handler"
	"github.com/jwalitptl/medrecords-api/internal/model"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
)

type Service interface {
	CreateRecord(ctx context.Context, identity *int64, patientID int64, findings string) (*model.MedicalRecord, error)
	ListRecords(ctx context.Context) ([]*model.MedicalRecord, error)
	ListPatientRecords(ctx context.Context, patientID, identity int64) ([]*model.MedicalRecord, error)
	SearchRecords(ctx context.Context, query string) ([]*model.MedicalRecord, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	r.POST("/records", requireAuth, h.CreateRecord)
	r.GET("/records", h.ListRecords)
	r.GET("/records/patient/:patient_id", requireAuth, h.ListPatientRecords)
	r.GET("/search/records", h.SearchRecords)
	r.GET("/search/records/", h.SearchRecords)
}

func (h *Handler) CreateRecord(c *gin.Context) {
	var req model.CreateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	var identity *int64
	if id, ok := handler.UserID(c); ok {
		identity = &id
	}

	record, err := h.service.CreateRecord(c.Request.Context(), identity, req.PatientID, req.Findings)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(record))
}

func (h *Handler) ListRecords(c *gin.Context) {
	records, err := h.service.ListRecords(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}

func (h *Handler) ListPatientRecords(c *gin.Context) {
	patientID, err := strconv.ParseInt(c.Param("patient_id"), 10, 64)
	if err != nil {
		handler.RespondError(c, apperrors.BadRequest("invalid patient_id", err))
		return
	}
	identity, ok := handler.UserID(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthorized("", nil))
		return
	}

	records, err := h.service.ListPatientRecords(c.Request.Context(), patientID, identity)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}

func (h *Handler) SearchRecords(c *gin.Context) {
	var req model.SearchRecordsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handler.RespondError(c, apperrors.BadRequest("invalid query", err))
		return
	}

	records, err := h.service.SearchRecords(c.Request.Context(), req.Query)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}
