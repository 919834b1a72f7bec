package session

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/serenemind/clinic-api/internal/handler"
	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/internal/service/session"
	"github.com/serenemind/clinic-api/pkg/errors"
	"github.com/serenemind/clinic-api/pkg/httputil"
	"github.com/serenemind/clinic-api/pkg/validator"
)

type Handler struct {
	service *session.Service
}

func NewHandler(service *session.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/sessions")
	{
		sessions.POST("", h.Create)
		sessions.GET("", h.List)
		sessions.GET("/completed", h.Completed)
		sessions.GET("/patient/:id", h.ListByPatient)
		sessions.GET("/patient/:id/history", h.History)
		sessions.GET("/:id", h.Get)
		sessions.PUT("/:id", h.Update)
		sessions.DELETE("/:id", h.Delete)
		sessions.POST("/:id/start", h.Start)
		sessions.POST("/:id/complete", h.Complete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, validator.FromBindingError(err))
		return
	}

	created, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, validator.FromBindingError(err))
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) Start(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	started, err := h.service.Start(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "session started", started)
}

// Complete accepts either multipart form data (voice and images as
// file parts) or JSON (voice as a base64 string or a {"data": ...}
// envelope, optionally with a data-URL prefix).
func (h *Handler) Complete(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req *model.CompleteSessionRequest
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		req, err = bindCompleteMultipart(c)
	} else {
		req, err = bindCompleteJSON(c)
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	result, err := h.service.Complete(c.Request.Context(), id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "session completed", result)
}

func bindCompleteMultipart(c *gin.Context) (*model.CompleteSessionRequest, error) {
	var req model.CompleteSessionRequest
	if err := c.ShouldBind(&req); err != nil {
		return nil, validator.FromBindingError(err)
	}

	if file, err := c.FormFile("voice_notes"); err == nil {
		data, rerr := readUpload(file)
		if rerr != nil {
			return nil, rerr
		}
		req.Voice = &model.VoicePayload{
			Filename: file.Filename,
			MimeType: file.Header.Get("Content-Type"),
			Data:     data,
		}
	} else if value := c.PostForm("voice_notes"); value != "" {
		req.Voice = lenientVoice(session.ResolveVoiceString(value, ""))
	}

	if form, err := c.MultipartForm(); err == nil {
		files := form.File["medicine_images[]"]
		if len(files) == 0 {
			files = form.File["medicine_images"]
		}
		for _, file := range files {
			data, rerr := readUpload(file)
			if rerr != nil {
				return nil, rerr
			}
			req.Images = append(req.Images, &model.ImageUpload{
				Filename: file.Filename,
				Data:     data,
			})
		}
	}
	return &req, nil
}

func bindCompleteJSON(c *gin.Context) (*model.CompleteSessionRequest, error) {
	var body struct {
		model.CompleteSessionRequest
		VoiceNotes json.RawMessage `json:"voice_notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, validator.FromBindingError(err)
	}

	req := body.CompleteSessionRequest
	if len(body.VoiceNotes) > 0 && string(body.VoiceNotes) != "null" {
		req.Voice = lenientVoice(resolveVoiceJSON(body.VoiceNotes))
	}
	return &req, nil
}

// lenientVoice drops a voice payload that cannot be decoded. The
// recording is supplementary: the completion proceeds without it and
// the note keeps a null voice reference.
func lenientVoice(voice *model.VoicePayload, err error) *model.VoicePayload {
	if err != nil {
		log.Warn().Err(err).Msg("discarding undecodable voice recording")
		return nil
	}
	return voice
}

// resolveVoiceJSON handles the two JSON shapes a voice recording
// arrives in: a bare base64 string, or an envelope {"data": "..."}.
func resolveVoiceJSON(raw json.RawMessage) (*model.VoicePayload, error) {
	var value string
	if err := json.Unmarshal(raw, &value); err == nil {
		return session.ResolveVoiceString(value, "")
	}

	var envelope struct {
		Data     string `json:"data"`
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Data == "" {
		return nil, errors.NewFieldValidation("voice_notes", "must be a base64 string or an object with a data field")
	}
	return session.ResolveVoiceString(envelope.Data, envelope.Filename)
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, errors.NewStorage("failed to read upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.NewStorage("failed to read upload", err)
	}
	return data, nil
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "session deleted", nil)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.SessionFilters
	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		httputil.RespondWithError(c, validator.FromBindingError(err))
		return
	}
	filters.Status = c.Query("status")
	filters.StartDate = c.Query("start_date")
	filters.EndDate = c.Query("end_date")
	if raw := c.Query("patient_id"); raw != "" {
		patientID, err := handler.ParseQueryID(raw, "patient_id")
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		filters.PatientID = &patientID
	}

	sessions, total, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, sessions, filters.Page, filters.PageSize, total)
}

// Completed lists completed sessions for the reporting screen, with
// patient-name search and date-bucket filters.
func (h *Handler) Completed(c *gin.Context) {
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

	entries, total, err := h.service.CompletedSessions(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, entries, filters.Page, filters.PageSize, total)
}

func (h *Handler) ListByPatient(c *gin.Context) {
	patientID, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	filters := model.SessionFilters{
		PatientID: &patientID,
		Status:    c.Query("status"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		httputil.RespondWithError(c, validator.FromBindingError(err))
		return
	}

	sessions, total, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, sessions, filters.Page, filters.PageSize, total)
}

func (h *Handler) History(c *gin.Context) {
	patientID, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	history, err := h.service.History(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, history)
}
