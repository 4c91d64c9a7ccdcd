package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/domain"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/service"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/log"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/response"
)

// Handler handles HTTP requests for the gem code service.
type Handler struct {
	codeService     service.CodeService
	redirectBaseURL string
}

// NewHandler creates a new HTTP handler. QR slugs redirect to
// redirectBaseURL followed by the full code.
func NewHandler(codeService service.CodeService, redirectBaseURL string) *Handler {
	return &Handler{
		codeService:     codeService,
		redirectBaseURL: redirectBaseURL,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		gemstones := api.Group("/gemstones")
		{
			gemstones.GET("", h.ListGemstones)
			gemstones.GET("/abbreviation", h.ResolveAbbreviation)
		}

		codes := api.Group("/codes")
		{
			codes.POST("", h.GenerateCode)
			codes.POST("/preview", h.PreviewCode)
			codes.POST("/verify", h.VerifyCode)
			codes.POST("/verify/batch", h.VerifyBatch)
			codes.GET("", h.ListCodes)
			codes.GET("/:code", h.GetCode)
			codes.GET("/:code/parse", h.ParseCode)
			codes.GET("/:code/verify", h.VerifyStoredCode)
			codes.DELETE("/:code", h.DeleteCode)
		}

		exports := api.Group("/exports")
		{
			exports.POST("", h.ExportPeriod)
			exports.GET("", h.ListExports)
			exports.GET("/:period", h.DownloadExport)
		}
	}

	r.GET("/r/:slug", h.RedirectSlug)
}

// ListGemstones returns the abbreviation table.
func (h *Handler) ListGemstones(c *gin.Context) {
	response.Success(c, h.codeService.ListGemstones())
}

type abbreviationQuery struct {
	Name string `form:"name" binding:"required"`
}

// ResolveAbbreviation resolves a single gemstone name.
func (h *Handler) ResolveAbbreviation(c *gin.Context) {
	var q abbreviationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "name is required")
		return
	}

	response.Success(c, h.codeService.ResolveAbbreviation(q.Name))
}

// GenerateCode issues and persists a new code.
func (h *Handler) GenerateCode(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.GenerateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind generate code request")
		response.BadRequest(c, err.Error())
		return
	}

	code, err := h.codeService.GenerateCode(ctx, &req)
	if err != nil {
		h.fail(c, err, "failed to generate code")
		return
	}

	c.Set(log.FieldCode, code.Code)
	response.Created(c, code)
}

// PreviewCode renders a code without persisting it.
func (h *Handler) PreviewCode(c *gin.Context) {
	var req domain.PreviewCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.codeService.PreviewCode(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err, "failed to preview code")
		return
	}

	response.Success(c, resp)
}

// VerifyCode checks a code against supplied ground truth.
func (h *Handler) VerifyCode(c *gin.Context) {
	var req domain.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.codeService.VerifyCode(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err, "failed to verify code")
		return
	}

	c.Set(log.FieldCode, req.Code)
	response.Success(c, resp)
}

// VerifyBatch checks several codes at once.
func (h *Handler) VerifyBatch(c *gin.Context) {
	var req domain.BatchVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.codeService.VerifyBatch(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err, "failed to verify batch")
		return
	}

	response.Success(c, resp)
}

// ListCodes lists issued codes with pagination.
func (h *Handler) ListCodes(c *gin.Context) {
	var req domain.ListCodesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.codeService.ListCodes(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err, "failed to list codes")
		return
	}

	response.Success(c, result)
}

// GetCode looks up an issued code.
func (h *Handler) GetCode(c *gin.Context) {
	code := c.Param("code")
	c.Set(log.FieldCode, code)

	record, err := h.codeService.GetCode(c.Request.Context(), code)
	if err != nil {
		h.fail(c, err, "failed to get code")
		return
	}

	response.Success(c, record)
}

// ParseCode splits a code into its components.
func (h *Handler) ParseCode(c *gin.Context) {
	code := c.Param("code")
	c.Set(log.FieldCode, code)

	components, err := h.codeService.ParseCode(c.Request.Context(), code)
	if err != nil {
		h.fail(c, err, "failed to parse code")
		return
	}

	response.Success(c, components)
}

// VerifyStoredCode checks a code against its stored record.
func (h *Handler) VerifyStoredCode(c *gin.Context) {
	code := c.Param("code")
	c.Set(log.FieldCode, code)

	resp, err := h.codeService.VerifyStoredCode(c.Request.Context(), code)
	if err != nil {
		h.fail(c, err, "failed to verify code")
		return
	}

	response.Success(c, resp)
}

// DeleteCode soft-deletes an issued code.
func (h *Handler) DeleteCode(c *gin.Context) {
	code := c.Param("code")
	c.Set(log.FieldCode, code)

	if err := h.codeService.DeleteCode(c.Request.Context(), code); err != nil {
		h.fail(c, err, "failed to delete code")
		return
	}

	response.Success(c, gin.H{"message": "code deleted"})
}

// ExportPeriod writes a month's codes to storage as CSV.
func (h *Handler) ExportPeriod(c *gin.Context) {
	var req domain.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.codeService.ExportPeriod(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err, "failed to export period")
		return
	}

	response.Created(c, result)
}

// ListExports lists written export files.
func (h *Handler) ListExports(c *gin.Context) {
	files, err := h.codeService.ListExports(c.Request.Context())
	if err != nil {
		h.fail(c, err, "failed to list exports")
		return
	}

	response.Success(c, files)
}

// DownloadExport streams the export of a month given as YYYY-MM.
func (h *Handler) DownloadExport(c *gin.Context) {
	period, err := time.Parse("2006-01", c.Param("period"))
	if err != nil {
		response.BadRequest(c, "period must be YYYY-MM")
		return
	}

	rc, key, err := h.codeService.OpenExport(c.Request.Context(), period.Year(), int(period.Month()))
	if err != nil {
		h.fail(c, err, "failed to open export")
		return
	}
	defer rc.Close()

	name := key[strings.LastIndex(key, "/")+1:]
	c.DataFromReader(http.StatusOK, -1, "text/csv", rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, name),
	})
}

// RedirectSlug sends a scanned QR slug to the page of its code.
func (h *Handler) RedirectSlug(c *gin.Context) {
	record, err := h.codeService.ResolveSlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err, "failed to resolve slug")
		return
	}

	c.Set(log.FieldCode, record.Code)
	c.Redirect(http.StatusFound, h.redirectBaseURL+record.Code)
}

// fail maps service errors to responses. Unknown errors are logged and
// reported as internal.
func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrInvalidCodeFormat):
		response.InvalidFormat(c, "invalid code format")
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrBatchTooLarge):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrCodeNotFound):
		response.NotFound(c, "code not found")
	case errors.Is(err, service.ErrExportNotFound):
		response.NotFound(c, "export not found")
	case errors.Is(err, service.ErrCodeSpaceConflict):
		response.Conflict(c, "could not allocate a unique code, retry")
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg(msg)
		response.InternalError(c, msg)
	}
}
