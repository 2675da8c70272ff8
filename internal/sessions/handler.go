package sessions

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-enhancer/internal/agents"
	"resume-enhancer/internal/export"
	"resume-enhancer/internal/ingest"
	"resume-enhancer/internal/llm"
	"resume-enhancer/internal/shared/server/middleware"
	"resume-enhancer/internal/shared/server/respond"
	"resume-enhancer/internal/workflow"
)

const maxUploadSize = 10 << 20 // 10MB

// LLMRoutes are the session routes that call the model; the router rate limits them.
var LLMRoutes = []string{
	"/api/v1/sessions/:id/analyze",
	"/api/v1/sessions/:id/interview/messages",
	"/api/v1/sessions/:id/enhance",
	"/api/v1/sessions/:id/verify",
}

// Handler wires HTTP handlers to the sessions service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.create)
	rg.GET("/sessions", h.list)
	rg.GET("/sessions/:id", h.get)
	rg.POST("/sessions/:id/upload", h.upload)
	rg.POST("/sessions/:id/analyze", h.action(h.Svc.Analyze))
	rg.POST("/sessions/:id/interview/start", h.action(h.Svc.StartInterview))
	rg.POST("/sessions/:id/interview/messages", h.reply)
	rg.POST("/sessions/:id/interview/finish", h.action(h.Svc.FinishInterview))
	rg.POST("/sessions/:id/enhance", h.action(h.Svc.Enhance))
	rg.POST("/sessions/:id/verify/start", h.action(h.Svc.StartVerification))
	rg.POST("/sessions/:id/verify", h.action(h.Svc.Verify))
	rg.POST("/sessions/:id/download/start", h.action(h.Svc.StartDownload))
	rg.GET("/sessions/:id/export", h.export)
	rg.POST("/sessions/:id/reset", h.action(h.Svc.Reset))
}

func (h *Handler) create(c *gin.Context) {
	sess, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.SessionIDKey, sess.ID)
	respond.JSON(c, http.StatusCreated, toResponse(sess))
}

func (h *Handler) get(c *gin.Context) {
	id := sessionID(c)
	sess, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(sess))
}

func (h *Handler) list(c *gin.Context) {
	if middleware.IsGuest(c) {
		respond.Error(c, http.StatusUnauthorized, "login_required", "Login required to view history", nil)
		return
	}

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			offset = parsed
		}
	}

	list, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]SessionSummary, 0, len(list))
	for _, s := range list {
		resp = append(resp, toSummary(s))
	}
	respond.OK(c, resp)
}

func (h *Handler) upload(c *gin.Context) {
	id := sessionID(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "file exceeds 10MB", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	res, err := h.Svc.Upload(c.Request.Context(), middleware.UserIDFromContext(c), id,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(c, err)
		return
	}
	writeResult(c, res)
}

type replyRequest struct {
	Message string `json:"message"`
}

func (h *Handler) reply(c *gin.Context) {
	id := sessionID(c)
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "message is required", nil)
		return
	}
	res, err := h.Svc.Reply(c.Request.Context(), middleware.UserIDFromContext(c), id, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	writeResult(c, res)
}

func (h *Handler) export(c *gin.Context) {
	id := sessionID(c)
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	file, err := h.Svc.Export(c.Request.Context(), middleware.UserIDFromContext(c), id, format)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Attachment(c, file.Name, file.ContentType, file.Data)
}

// action adapts a service method that only needs the caller and session id.
func (h *Handler) action(fn func(ctx context.Context, userID, id string) (Result, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := sessionID(c)
		res, err := fn(c.Request.Context(), middleware.UserIDFromContext(c), id)
		if err != nil {
			writeError(c, err)
			return
		}
		writeResult(c, res)
	}
}

func sessionID(c *gin.Context) string {
	id := c.Param("id")
	c.Set(middleware.SessionIDKey, id)
	return id
}

func writeResult(c *gin.Context, res Result) {
	if res.Transition.Changed() {
		c.Set(middleware.StageTransitionKey, res.Transition.String())
	}
	respond.OK(c, toResponse(res.Session))
}

// writeError maps service errors onto the API error envelope.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	var completionErr *agents.CompletionError
	switch {
	case errors.Is(err, llm.ErrMissingCredential):
		respond.Error(c, http.StatusUnauthorized, "missing_credential", "Please provide an LLM API key", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, agents.ErrEmptyInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ingest.ErrUnsupported), errors.Is(err, ingest.ErrUnreadable), errors.Is(err, ingest.ErrEmpty):
		respond.Error(c, http.StatusUnprocessableEntity, "ingestion_error", err.Error(), nil)
	case errors.Is(err, workflow.ErrInterviewTooShort):
		respond.Error(c, http.StatusConflict, "interview_too_short", "Keep chatting a little longer before finishing the interview", gin.H{
			"minTurns": workflow.MinTranscriptTurns + 1,
		})
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrMissingInput),
		errors.Is(err, workflow.ErrArtifactExists):
		respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", "The session was changed by another request, reload and try again", nil)
	case errors.Is(err, ErrNotReady):
		respond.Error(c, http.StatusConflict, "invalid_transition", "final resume is not ready for download", nil)
	case errors.As(err, &completionErr):
		respond.Error(c, http.StatusBadGateway, "llm_error", "The language model request failed, please try again", gin.H{
			"agent": completionErr.Agent,
		})
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}
