// internal/handlers/extraction.go
package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/policystack/agency-backend/internal/i18n"
	"github.com/policystack/agency-backend/internal/models"
	"github.com/policystack/agency-backend/internal/services"
	"github.com/policystack/agency-backend/internal/utils"
)

type ExtractionHandler struct {
	extractionService *services.ExtractionService
}

func NewExtractionHandler(extractionService *services.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{
		extractionService: extractionService,
	}
}

// extractionFailureCode classifies a pipeline failure into a client-facing
// code and message key. Non-pipeline errors return an empty code.
func extractionFailureCode(err error) (string, string) {
	switch {
	case errors.Is(err, services.ErrExtractionTimeout):
		return "EXTRACTION_TIMEOUT", i18n.KeyExtractionTimeout
	case errors.Is(err, services.ErrExtractionNetwork):
		return "EXTRACTION_NETWORK", i18n.KeyExtractionNetwork
	case errors.Is(err, services.ErrExtractionBadResponse):
		return "EXTRACTION_BAD_RESPONSE", i18n.KeyExtractionBadJSON
	case errors.Is(err, services.ErrExtractionEmpty):
		return "EXTRACTION_EMPTY", i18n.KeyExtractionEmpty
	default:
		return "", ""
	}
}

// extractionErrorResponse maps failures where nothing was persisted onto
// error responses so the frontend can offer retry for transient ones.
func extractionErrorResponse(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	if code, key := extractionFailureCode(err); code != "" {
		status := 502
		if code == "EXTRACTION_TIMEOUT" {
			status = 504
		}
		utils.ErrorResponse(c, status, code, i18n.T(lang, key), nil)
		return
	}

	switch {
	case errors.Is(err, models.ErrBatchExhausted):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyExtractionExhausted))
	case strings.Contains(err.Error(), "unauthorized"):
		utils.ForbiddenResponse(c, err.Error())
	case strings.Contains(err.Error(), "not found"):
		utils.NotFoundResponse(c, i18n.KeyError)
	default:
		utils.BadRequestResponse(c, err.Error(), nil)
	}
}

// extractionPartialResponse renders a success-shaped body for requests whose
// persisted work succeeded even though extraction of a file failed. The body
// carries the surviving state plus the failure code so the client can show
// the right form and still retry or skip.
func extractionPartialResponse(c *gin.Context, status int, data gin.H, cause error) {
	lang := utils.GetLangFromContext(c)

	code, key := extractionFailureCode(cause)
	if code == "" {
		code, key = "EXTRACTION_FAILED", i18n.KeyExtractionFailed
	}
	data["extraction_error"] = gin.H{
		"code":    code,
		"message": i18n.T(lang, key),
	}

	c.JSON(status, utils.APIResponse{
		Success: true,
		Data:    data,
	})
}

// POST /extraction/batches
func (h *ExtractionHandler) StartBatch(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		utils.BadRequestResponse(c, "No files uploaded", nil)
		return
	}
	if len(files) > models.MaxExtractionFiles {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyExtractionTooMany, models.MaxExtractionFiles), nil)
		return
	}

	for _, fh := range files {
		if !strings.EqualFold(".pdf", fileExt(fh.Filename)) {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileInvalidType), fh.Filename)
			return
		}
	}

	batch, prefill, err := h.extractionService.StartBatch(c.Request.Context(), rc, files)
	if err != nil {
		// A non-nil batch was created with its files stored; surface it so
		// the client can retry or skip the failed file instead of losing
		// the whole upload.
		if batch != nil {
			extractionPartialResponse(c, 201, gin.H{
				"message": i18n.T(lang, i18n.KeyExtractionStarted),
				"batch":   batch,
				"prefill": nil,
			}, err)
			return
		}
		extractionErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyExtractionStarted),
		"batch":   batch,
		"prefill": prefill,
	})
}

// GET /extraction/batches/:id
func (h *ExtractionHandler) GetBatch(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid batch ID", nil)
		return
	}

	batch, err := h.extractionService.GetBatch(rc, id)
	if err != nil {
		extractionErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"batch": batch,
	})
}

// POST /extraction/batches/:id/retry
func (h *ExtractionHandler) RetryCurrent(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid batch ID", nil)
		return
	}

	batch, prefill, err := h.extractionService.RetryCurrent(c.Request.Context(), rc, id)
	if err != nil {
		if code, _ := extractionFailureCode(err); code != "" && batch != nil {
			extractionPartialResponse(c, 200, gin.H{
				"batch":   batch,
				"prefill": nil,
			}, err)
			return
		}
		extractionErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"batch":   batch,
		"prefill": prefill,
	})
}

// POST /extraction/batches/:id/save
func (h *ExtractionHandler) ConfirmSave(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid batch ID", nil)
		return
	}

	var req services.CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	batch, policy, nextPrefill, err := h.extractionService.ConfirmSave(c.Request.Context(), rc, id, &req)
	if err != nil {
		// A non-nil policy means the save went through and only the next
		// file's extraction failed. An error-only response here would read
		// as a failed save and invite a duplicate retry.
		if policy != nil {
			extractionPartialResponse(c, 200, gin.H{
				"message":      i18n.T(lang, i18n.KeyPolicyCreated),
				"batch":        batch,
				"policy":       policy,
				"next_prefill": nil,
			}, err)
			return
		}
		if strings.Contains(err.Error(), "already exists") {
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPolicyDuplicate))
			return
		}
		extractionErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyPolicyCreated),
		"batch":        batch,
		"policy":       policy,
		"next_prefill": nextPrefill,
	})
}

// POST /extraction/batches/:id/skip
func (h *ExtractionHandler) SkipCurrent(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid batch ID", nil)
		return
	}

	batch, prefill, err := h.extractionService.SkipCurrent(c.Request.Context(), rc, id)
	if err != nil {
		// The skip itself is persisted before the next file is extracted;
		// an extraction failure here must not read as a failed skip.
		if code, _ := extractionFailureCode(err); code != "" && batch != nil {
			extractionPartialResponse(c, 200, gin.H{
				"batch":   batch,
				"prefill": nil,
			}, err)
			return
		}
		extractionErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"batch":   batch,
		"prefill": prefill,
	})
}

func fileExt(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx:]
}
