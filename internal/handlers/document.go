// internal/handlers/document.go
package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/policystack/agency-backend/internal/i18n"
	"github.com/policystack/agency-backend/internal/services"
	"github.com/policystack/agency-backend/internal/utils"
)

type DocumentHandler struct {
	storageService *services.StorageService
}

func NewDocumentHandler(storageService *services.StorageService) *DocumentHandler {
	return &DocumentHandler{
		storageService: storageService,
	}
}

// POST /documents
func (h *DocumentHandler) UploadDocuments(c *gin.Context) {
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

	options := h.storageService.GetDefaultUploadOptions(rc.ActorID, "policy_documents")

	var uploaded []services.UploadResult
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			continue
		}

		result, err := h.storageService.UploadFile(file, fileHeader, options)
		file.Close()
		if err != nil {
			utils.BadRequestResponse(c, err.Error(), fileHeader.Filename)
			return
		}

		uploaded = append(uploaded, *result)
	}

	utils.CreatedResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyFileUploadSuccess),
		"documents": uploaded,
	})
}

// GET /documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	docs, err := h.storageService.ListUserDocuments(rc.ActorID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"documents": docs,
	})
}

// GET /documents/url
func (h *DocumentHandler) GetDocumentURL(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	key := c.Query("key")
	if key == "" {
		utils.BadRequestResponse(c, "Missing document key", nil)
		return
	}

	// Only the owner's folder is reachable.
	if !strings.HasPrefix(key, services.UserFolder(rc.ActorID)+"/") {
		utils.ForbiddenResponse(c, "")
		return
	}

	url, err := h.storageService.GeneratePresignedURL(key, 15*time.Minute)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"url":        url,
		"expires_in": int((15 * time.Minute).Seconds()),
	})
}

// DELETE /documents
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	key := c.Query("key")
	if key == "" {
		utils.BadRequestResponse(c, "Missing document key", nil)
		return
	}

	if err := h.storageService.DeleteUserFile(rc.ActorID, key); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Document deleted",
	})
}
