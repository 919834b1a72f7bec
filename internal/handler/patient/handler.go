package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/serenemind/clinic-api/internal/handler"
	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/internal/service/patient"
	"github.com/serenemind/clinic-api/pkg/httputil"
	"github.com/serenemind/clinic-api/pkg/validator"
)

type Handler struct {
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.Register)
		patients.GET("", h.List)
		patients.GET("/search", h.Search)
		patients.GET("/:id", h.Get)
	}
}

// Register creates a patient and their first appointment atomically.
func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, validator.FromBindingError(err))
		return
	}

	patient, appointment, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, gin.H{
		"patient":     patient,
		"appointment": appointment,
	})
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	patient, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patient)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.PatientFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, validator.FromBindingError(err))
		return
	}
	filters.Normalize()

	patients, total, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, patients, filters.Page, filters.PageSize, total)
}

func (h *Handler) Search(c *gin.Context) {
	var req model.PatientSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.RespondWithError(c, validator.FromBindingError(err))
		return
	}

	patients, err := h.service.Search(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}
