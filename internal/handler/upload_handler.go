package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"mediaforge/internal/middleware"
	"mediaforge/internal/services"
	"mediaforge/internal/sessions"
	"mediaforge/internal/transport/httpdto"
	mf_errors "mediaforge/pkg/errors"
	"mediaforge/pkg/logger"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	manager   *sessions.Manager
	chunks    *services.ChunkService
	assembler *services.AssemblerService
	logger    *logger.Logger
}

func NewUploadHandler(manager *sessions.Manager, chunks *services.ChunkService, assembler *services.AssemblerService, l *logger.Logger) *UploadHandler {
	return &UploadHandler{manager: manager, chunks: chunks, assembler: assembler, logger: l}
}

// CreateSession handles POST /v1/uploads
func (h *UploadHandler) CreateSession(c *gin.Context) {
	var req httpdto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "CLIENT_VALIDATION"))
		return
	}

	s, err := h.manager.CreateSession(c.Request.Context(), middleware.OwnerID(c), req.FileName, req.FileSize, req.MimeType)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.CreateSessionResponse{
		SessionID:   s.ID,
		TotalChunks: s.TotalChunks,
		ChunkSize:   s.ChunkSize,
		ExpiresAt:   s.ExpiresAt.Format(time.RFC3339),
	}))
}

// UploadChunk handles POST /v1/uploads/:id/chunks/:index with the raw
// chunk bytes as the request body.
func (h *UploadHandler) UploadChunk(c *gin.Context) {
	sessionID := c.Param("id")
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid chunk index", "CLIENT_VALIDATION"))
		return
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("failed to read chunk body", "CLIENT_VALIDATION"))
		return
	}

	s, err := h.chunks.Receive(c.Request.Context(), sessionID, middleware.OwnerID(c), index, data)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ChunkResponse{
		UploadedChunks:  s.UploadedCount(),
		TotalChunks:     s.TotalChunks,
		ProgressPercent: s.Progress(),
	}))
}

// Status handles GET /v1/uploads/:id
func (h *UploadHandler) Status(c *gin.Context) {
	s, err := h.manager.Status(c.Request.Context(), c.Param("id"), middleware.OwnerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SessionStatusResponse{
		Status:          string(s.Status),
		UploadedChunks:  s.UploadedIndices(),
		TotalChunks:     s.TotalChunks,
		ProgressPercent: s.Progress(),
		ExpiresAt:       s.ExpiresAt.Format(time.RFC3339),
	}))
}

// Finalize handles POST /v1/uploads/:id/finalize
func (h *UploadHandler) Finalize(c *gin.Context) {
	result, err := h.assembler.Finalize(c.Request.Context(), c.Param("id"), middleware.OwnerID(c))
	if err != nil {
		var incomplete *sessions.IncompleteError
		if errors.As(err, &incomplete) {
			c.JSON(http.StatusBadRequest, httpdto.Response[httpdto.MissingChunksResponse]{
				Success: false,
				Data:    httpdto.MissingChunksResponse{MissingChunks: incomplete.Missing},
				Error:   incomplete.Error(),
				Code:    "MISSING_CHUNKS",
			})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FinalizeResponse{
		FinalReference: result.FinalReference,
		FileName:       result.FileName,
		FileSize:       result.FileSize,
		CorrelationID:  result.CorrelationID,
	}))
}

// Cancel handles POST /v1/uploads/:id/cancel
func (h *UploadHandler) Cancel(c *gin.Context) {
	if err := h.manager.Cancel(c.Request.Context(), c.Param("id"), middleware.OwnerID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.CancelResponse{Cancelled: true}))
}

// ListInProgress handles GET /v1/uploads
func (h *UploadHandler) ListInProgress(c *gin.Context) {
	items, err := h.manager.ListOwnerSessions(c.Request.Context(), middleware.OwnerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	summaries := make([]httpdto.SessionSummary, 0, len(items))
	for _, s := range items {
		summaries = append(summaries, httpdto.SessionSummary{
			SessionID:       s.ID,
			FileName:        s.FileName,
			Status:          string(s.Status),
			ProgressPercent: s.Progress(),
			ExpiresAt:       s.ExpiresAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"uploads": summaries}))
}

func (h *UploadHandler) respondError(c *gin.Context, err error) {
	code := mf_errors.Code(err)
	status := httpStatusFor(err)
	if code == "UNKNOWN_ERROR" && h.logger != nil {
		h.logger.Errorf("unexpected error: %v", err)
	}
	c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
}

func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, mf_errors.ErrInvalidInput),
		errors.Is(err, mf_errors.ErrTooLarge),
		errors.Is(err, mf_errors.ErrOutOfRange),
		errors.Is(err, mf_errors.ErrSizeMismatch),
		errors.Is(err, mf_errors.ErrInvalidReference):
		return http.StatusBadRequest
	case errors.Is(err, mf_errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, mf_errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, mf_errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, mf_errors.ErrGone):
		return http.StatusGone
	case errors.Is(err, mf_errors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, mf_errors.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
