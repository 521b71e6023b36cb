package handler

import (
	"io"
	"net/http"

	"mediaforge/internal/middleware"
	"mediaforge/internal/services"
	"mediaforge/internal/transport/httpdto"
	mf_errors "mediaforge/pkg/errors"
	"mediaforge/pkg/logger"

	"github.com/gin-gonic/gin"
)

const maxImageBytes = 10 << 20 // single-shot image uploads cap at 10 MiB

type AvatarHandler struct {
	avatars *services.AvatarService
	backups *services.BackupService
	logger  *logger.Logger
}

func NewAvatarHandler(avatars *services.AvatarService, backups *services.BackupService, l *logger.Logger) *AvatarHandler {
	return &AvatarHandler{avatars: avatars, backups: backups, logger: l}
}

// Upload handles POST /v1/avatar (multipart form, file part "image")
func (h *AvatarHandler) Upload(c *gin.Context) {
	var req httpdto.UploadImageRequest
	_ = c.ShouldBind(&req)

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("image file required", "CLIENT_VALIDATION"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("failed to read image", "CLIENT_VALIDATION"))
		return
	}
	if len(data) > maxImageBytes {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("image too large", "CLIENT_VALIDATION"))
		return
	}

	opts := services.DefaultUploadOptions()
	if req.CreateBackup != nil {
		opts.CreateBackup = *req.CreateBackup
	}
	if req.GenerateVariants != nil {
		opts.GenerateVariants = *req.GenerateVariants
	}

	result, err := h.avatars.Upload(c.Request.Context(), middleware.OwnerID(c), data, opts)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UploadImageResponse{
		Original:        result.Original,
		Variants:        result.Variants,
		BackupReference: result.BackupReference,
		Degraded:        result.Degraded,
	}))
}

// ListBackups handles GET /v1/avatar/backups
func (h *AvatarHandler) ListBackups(c *gin.Context) {
	refs, err := h.backups.ListBackups(c.Request.Context(), middleware.OwnerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if refs == nil {
		refs = []string{}
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListBackupsResponse{Backups: refs}))
}

// RestoreBackup handles POST /v1/avatar/restore
func (h *AvatarHandler) RestoreBackup(c *gin.Context) {
	var req httpdto.RestoreBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "CLIENT_VALIDATION"))
		return
	}

	if err := h.backups.Restore(c.Request.Context(), middleware.OwnerID(c), req.BackupReference); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.RestoreBackupResponse{
		Restored:  true,
		Reference: req.BackupReference,
	}))
}

func (h *AvatarHandler) respondError(c *gin.Context, err error) {
	code := mf_errors.Code(err)
	status := httpStatusFor(err)
	if code == "UNKNOWN_ERROR" && h.logger != nil {
		h.logger.Errorf("unexpected error: %v", err)
	}
	c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
}
