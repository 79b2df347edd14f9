package pharmacy

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/service/pharmacy"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
	"github.com/lmezzz/hms-api/pkg/httputil"
)

type Handler struct {
	service *pharmacy.Service
}

func NewHandler(service *pharmacy.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	medications := rg.Group("/medications")
	{
		medications.POST("", h.CreateMedication)
		medications.GET("", h.ListMedications)
		medications.GET("/low-stock", h.ListLowStock)
		medications.GET("/:id", h.GetMedication)
		medications.PUT("/:id", h.UpdateMedication)
		medications.POST("/:id/stock", h.AdjustStock)
	}
}

func (h *Handler) CreateMedication(c *gin.Context) {
	var req model.CreateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid request body", err))
		return
	}

	med, err := h.service.CreateMedication(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, med)
}

func (h *Handler) GetMedication(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid medication ID", err))
		return
	}

	med, err := h.service.GetMedication(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, med)
}

func (h *Handler) UpdateMedication(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid medication ID", err))
		return
	}

	var req model.UpdateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid request body", err))
		return
	}

	med, err := h.service.UpdateMedication(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, med)
}

func (h *Handler) ListMedications(c *gin.Context) {
	meds, err := h.service.ListMedications(c.Request.Context(), c.Query("search"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, meds)
}

func (h *Handler) ListLowStock(c *gin.Context) {
	meds, err := h.service.ListLowStock(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, meds)
}

func (h *Handler) AdjustStock(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid medication ID", err))
		return
	}

	var req model.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid request body", err))
		return
	}

	med, err := h.service.AdjustStock(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, med)
}
