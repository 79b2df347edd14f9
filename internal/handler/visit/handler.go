package visit

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lmezzz/hms-api/internal/middleware"
	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/service/visit"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
	"github.com/lmezzz/hms-api/pkg/httputil"
)

type Handler struct {
	service *visit.Service
}

func NewHandler(service *visit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/appointments/:id/visit", h.StartVisit)

	visits := rg.Group("/visits")
	{
		visits.GET("", h.ListDoctorVisits)
		visits.GET("/:id", h.GetVisit)
		visits.PUT("/:id/complete", h.CompleteVisit)
	}
	rg.GET("/patients/:id/visits", h.ListPatientHistory)
}

func (h *Handler) StartVisit(c *gin.Context) {
	appointmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid appointment ID", err))
		return
	}

	v, err := h.service.StartVisit(c.Request.Context(), appointmentID, middleware.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, v)
}

func (h *Handler) CompleteVisit(c *gin.Context) {
	visitID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid visit ID", err))
		return
	}

	var req model.CompleteVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid request body", err))
		return
	}

	v, err := h.service.CompleteVisit(c.Request.Context(), visitID, middleware.UserID(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, v)
}

func (h *Handler) GetVisit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid visit ID", err))
		return
	}

	v, err := h.service.GetVisit(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, v)
}

func (h *Handler) ListPatientHistory(c *gin.Context) {
	patientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperr.Validation("invalid patient ID", err))
		return
	}

	visits, err := h.service.ListPatientHistory(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, visits)
}

// ListDoctorVisits returns the calling doctor's visits for a date range,
// defaulting to the last 30 days.
func (h *Handler) ListDoctorVisits(c *gin.Context) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			httputil.RespondWithError(c, apperr.Validation("invalid from date", err))
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			httputil.RespondWithError(c, apperr.Validation("invalid to date", err))
			return
		}
		to = parsed.AddDate(0, 0, 1)
	}

	visits, err := h.service.ListDoctorVisits(c.Request.Context(), middleware.UserID(c), from, to)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, visits)
}
