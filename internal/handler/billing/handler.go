package billing

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/service/billing"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
	"github.com/lmezzz/hms-api/pkg/httputil"
)

type Handler struct {
	service *billing.Service
}

func NewHandler(service *billing.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	bills := rg.Group("/bills")
	{
		bills.POST("", h.CreateBill)
		bills.GET("", h.ListBills)
		bills.GET("/:id", h.GetBill)
		bills.POST("/:id/payments", h.RecordPayment)
	}
}

func (h *Handler) CreateBill(c *gin.Context) {
	var req model.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid request body", err))
		return
	}

	bill, err := h.service.CreateBill(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, bill)
}

func (h *Handler) GetBill(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid bill ID", err))
		return
	}

	summary, err := h.service.GetBillSummary(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}

func (h *Handler) ListBills(c *gin.Context) {
	filters := &model.BillFilters{
		Status: model.BillStatus(c.Query("status")),
	}
	if v := c.Query("patient_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.RespondWithError(c, apperr.Validation("invalid patient ID", err))
			return
		}
		filters.PatientID = &id
	}

	bills, err := h.service.ListBills(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, bills)
}

func (h *Handler) RecordPayment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid bill ID", err))
		return
	}

	var req model.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid request body", err))
		return
	}

	result, err := h.service.RecordPayment(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, result)
}
