package report

import (
	"github.com/gin-gonic/gin"

	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/internal/service/report"
	"github.com/serenemind/clinic-api/internal/service/session"
	"github.com/serenemind/clinic-api/pkg/httputil"
	"github.com/serenemind/clinic-api/pkg/validator"
)

type Handler struct {
	service  *report.Service
	sessions *session.Service
}

func NewHandler(service *report.Service, sessions *session.Service) *Handler {
	return &Handler{service: service, sessions: sessions}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports")
	{
		reports.GET("/payments/summary", h.PaymentsSummary)
		reports.GET("/payments/detailed", h.PaymentsDetailed)
		reports.GET("/sessions/completed", h.CompletedSessions)
	}
}

// PaymentsSummary returns income/expense totals and per-category
// breakdowns, optionally limited to a date range. Cached briefly.
func (h *Handler) PaymentsSummary(c *gin.Context) {
	summary, err := h.service.FinancialSummary(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}

func (h *Handler) PaymentsDetailed(c *gin.Context) {
	filters := model.PaymentFilters{
		Type:      c.Query("type"),
		Status:    c.Query("status"),
		Category:  c.Query("category"),
		Search:    c.Query("search"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}

	detailed, err := h.service.Detailed(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detailed)
}

func (h *Handler) CompletedSessions(c *gin.Context) {
	var filters model.CompletedSessionFilters
	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		httputil.RespondWithError(c, validator.FromBindingError(err))
		return
	}
	filters.Search = c.Query("search")
	filters.SessionType = c.Query("session_type")
	filters.DateBucket = c.Query("date_filter")
	filters.StartDate = c.Query("start_date")
	filters.EndDate = c.Query("end_date")

	entries, total, err := h.sessions.CompletedSessions(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, entries, filters.Page, filters.PageSize, total)
}
