package letters

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/shared/server/middleware"
	"coverletter-backend/internal/shared/server/respond"
	"coverletter-backend/internal/shared/telemetry"
	"coverletter-backend/letter"
)

// Handler wires HTTP handlers to the letters service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches letter routes to the router group. The poll
// middleware, when non-nil, guards the status route against tight loops.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, poll gin.HandlerFunc) {
	rg.POST("/letters", h.create)
	rg.GET("/letters", h.list)
	if poll != nil {
		rg.GET("/letters/:id", poll, h.get)
	} else {
		rg.GET("/letters/:id", h.get)
	}
	rg.GET("/letters/:id/download", h.download)
	rg.POST("/letters/download", h.downloadEdited)
}

func (h *Handler) create(c *gin.Context) {
	var req createLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	ctx := telemetry.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	rec, err := h.Svc.Create(ctx, CreateInput{
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
		Industry:       req.Industry,
		Tone:           req.Tone,
		Theme:          req.Theme,
		Template:       req.Template,
	})
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", vErr.Message, detailsPayload(vErr.Details))
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create letter", nil)
		return
	}

	c.Set("letterId", rec.ID)
	respond.Accepted(c, gin.H{
		"letterId": rec.ID,
		"status":   rec.Status,
	})
}

func (h *Handler) get(c *gin.Context) {
	letterID := c.Param("id")
	if letterID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "letter id is required", nil)
		return
	}

	rec, err := h.Svc.Get(c.Request.Context(), letterID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "letter not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch letter", nil)
		}
		return
	}

	c.Set("letterId", rec.ID)
	respond.OK(c, toResponse(rec))
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 50 {
		limit = 50
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	recs, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list letters", nil)
		return
	}

	resp := make([]gin.H, 0, len(recs))
	for _, rec := range recs {
		item := gin.H{
			"letterId":  rec.ID,
			"status":    rec.Status,
			"industry":  rec.Industry,
			"tone":      rec.Tone,
			"createdAt": rec.CreatedAt,
		}
		if rec.Template != "" {
			item["template"] = rec.Template
		}
		resp = append(resp, item)
	}

	respond.OK(c, resp)
}

func (h *Handler) download(c *gin.Context) {
	letterID := c.Param("id")
	if letterID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "letter id is required", nil)
		return
	}

	rec, err := h.Svc.Download(c.Request.Context(), letterID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "letter not found", nil)
		case errors.Is(err, ErrNotReady):
			respond.Error(c, http.StatusConflict, "not_ready", "letter is not ready for download", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to download letter", nil)
		}
		return
	}

	c.Set("letterId", rec.ID)
	writeAttachment(c, []byte(rec.Content))
}

// downloadEdited returns the submitted text as the standard artifact.
// The browser form lets users edit extracted text or the generated letter
// before saving, so the bytes come from the request, not a stored record.
func (h *Handler) downloadEdited(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Letter) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "letter text is required", nil)
		return
	}

	writeAttachment(c, []byte(req.Letter))
}

func writeAttachment(c *gin.Context, body []byte) {
	c.Header("Content-Type", letter.ContentType)
	c.Header("Content-Disposition", `attachment; filename="`+letter.FileName+`"`)
	c.Header("Content-Length", strconv.Itoa(len(body)))
	c.Status(http.StatusOK)
	_, _ = c.Writer.Write(body)
}

func detailsPayload(details []FieldIssue) interface{} {
	if len(details) == 0 {
		return nil
	}
	return details
}
