package lab

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lmezzz/hms-api/internal/middleware"
	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/service/lab"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
	"github.com/lmezzz/hms-api/pkg/httputil"
)

type Handler struct {
	service *lab.Service
}

func NewHandler(service *lab.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	grp := rg.Group("/lab")
	{
		grp.POST("/tests", h.CreateTest)
		grp.GET("/tests", h.ListTests)
		grp.POST("/orders", h.OrderTest)
		grp.GET("/orders", h.ListOrders)
		grp.GET("/orders/:id", h.GetOrder)
		grp.POST("/orders/:id/collect", h.CollectSample)
		grp.POST("/orders/:id/result", h.UploadResult)
	}
}

func (h *Handler) CreateTest(c *gin.Context) {
	var req model.CreateLabTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid request body", err))
		return
	}

	test, err := h.service.CreateTest(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, test)
}

func (h *Handler) ListTests(c *gin.Context) {
	tests, err := h.service.ListTests(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tests)
}

func (h *Handler) OrderTest(c *gin.Context) {
	var req model.CreateLabOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid request body", err))
		return
	}

	order, err := h.service.OrderTest(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, order)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid order ID", err))
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, order)
}

func (h *Handler) ListOrders(c *gin.Context) {
	var patientID *int64
	if v := c.Query("patient_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.RespondWithError(c, apperr.Validation("invalid patient ID", err))
			return
		}
		patientID = &id
	}

	orders, err := h.service.ListOrders(c.Request.Context(), model.LabOrderStatus(c.Query("status")), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, orders)
}

func (h *Handler) CollectSample(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid order ID", err))
		return
	}

	if err := h.service.CollectSample(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"collected": true})
}

func (h *Handler) UploadResult(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid order ID", err))
		return
	}

	var req model.UploadLabResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid request body", err))
		return
	}

	result, err := h.service.UploadResult(c.Request.Context(), id, middleware.UserID(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, result)
}
