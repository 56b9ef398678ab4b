package extractions

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/shared/server/middleware"
	"coverletter-backend/internal/shared/server/respond"
	"coverletter-backend/internal/shared/telemetry"
)

const defaultMaxUploadBytes = 10 << 20 // 10MB

// Handler wires HTTP handlers to the extractions service.
type Handler struct {
	Svc *Service

	// MaxUploadBytes caps the request body on the upload route.
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches extraction routes to the router group. The poll
// middleware, when non-nil, guards the status route against tight loops.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, poll gin.HandlerFunc) {
	rg.POST("/extractions", h.create)
	if poll != nil {
		rg.GET("/extractions/:id", poll, h.get)
	} else {
		rg.GET("/extractions/:id", h.get)
	}
}

func (h *Handler) create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "file exceeds the size limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "a resume file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		if isTooLarge(err) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "file exceeds the size limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	ctx := telemetry.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	rec, err := h.Svc.Create(ctx, fileHeader.Filename, data)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", vErr.Message, detailsPayload(vErr.Details))
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create extraction", nil)
		return
	}

	c.Set("extractionId", rec.ID)
	respond.Accepted(c, gin.H{
		"extractionId": rec.ID,
		"status":       rec.Status,
	})
}

func (h *Handler) get(c *gin.Context) {
	extractionID := c.Param("id")
	if extractionID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "extraction id is required", nil)
		return
	}

	rec, err := h.Svc.Get(c.Request.Context(), extractionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "extraction not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch extraction", nil)
		}
		return
	}

	c.Set("extractionId", rec.ID)
	respond.OK(c, toResponse(rec))
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func detailsPayload(details []FieldIssue) interface{} {
	if len(details) == 0 {
		return nil
	}
	return details
}
