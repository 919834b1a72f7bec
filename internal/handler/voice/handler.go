package voice

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/serenemind/clinic-api/internal/handler"
	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/internal/service/session"
	"github.com/serenemind/clinic-api/internal/service/voice"
	"github.com/serenemind/clinic-api/pkg/errors"
	"github.com/serenemind/clinic-api/pkg/httputil"
)

type Handler struct {
	service *voice.Service
}

func NewHandler(service *voice.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	recordings := r.Group("/voice-recordings")
	{
		recordings.POST("", h.Create)
		recordings.GET("", h.List)
		recordings.GET("/:id", h.Get)
		recordings.GET("/:id/download", h.Download)
		recordings.DELETE("/:id", h.Delete)
	}
}

// Create accepts a recording either as a multipart file part named
// "recording" or as a base64 form/JSON value.
func (h *Handler) Create(c *gin.Context) {
	payload, err := h.resolvePayload(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), payload)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) resolvePayload(c *gin.Context) (*model.VoicePayload, error) {
	if file, err := c.FormFile("recording"); err == nil {
		f, oerr := file.Open()
		if oerr != nil {
			return nil, errors.NewStorage("failed to read upload", oerr)
		}
		defer f.Close()

		data, rerr := io.ReadAll(f)
		if rerr != nil {
			return nil, errors.NewStorage("failed to read upload", rerr)
		}
		return &model.VoicePayload{
			Filename: file.Filename,
			MimeType: file.Header.Get("Content-Type"),
			Data:     data,
		}, nil
	}

	if value := c.PostForm("recording"); value != "" {
		return session.ResolveVoiceString(value, "")
	}

	var body struct {
		Recording string `json:"recording" binding:"required"`
		Filename  string `json:"filename"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, errors.NewFieldValidation("recording", "recording data is required")
	}
	return session.ResolveVoiceString(body.Recording, body.Filename)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	recording, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, recording)
}

func (h *Handler) Download(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	recording, data, err := h.service.Download(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+recording.OriginalName+`"`)
	c.Data(http.StatusOK, recording.MimeType, data)
}

func (h *Handler) List(c *gin.Context) {
	recordings, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, recordings)
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
	httputil.RespondWithMessage(c, "voice recording deleted", nil)
}
