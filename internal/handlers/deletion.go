// internal/handlers/deletion.go
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

type DeletionHandler struct {
	deletionService *services.DeletionService
}

func NewDeletionHandler(deletionService *services.DeletionService) *DeletionHandler {
	return &DeletionHandler{
		deletionService: deletionService,
	}
}

// POST /deletion-requests
func (h *DeletionHandler) RequestDeletion(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.RequestDeletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	request, err := h.deletionService.RequestDeletion(rc, &req)
	if err != nil {
		if errors.Is(err, services.ErrPasswordMismatch) {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyDeletionBadPassword), nil)
			return
		}
		if strings.Contains(err.Error(), "unauthorized") {
			utils.ForbiddenResponse(c, err.Error())
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, i18n.KeyPolicyNotFound)
			return
		}
		if strings.Contains(err.Error(), "pending") {
			utils.ConflictResponse(c, err.Error())
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDeletionRequested),
		"request": request,
	})
}

// GET /deletion-requests
func (h *DeletionHandler) GetRequests(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	var status *models.DeletionRequestStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := models.DeletionRequestStatus(statusStr)
		status = &s
	}

	requests, total, err := h.deletionService.ListRequests(rc, status, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(requests, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /deletion-requests/:id/approve
func (h *DeletionHandler) ApproveRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid request ID", nil)
		return
	}

	var req services.ReviewDeletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Comments are optional; an empty body is fine.
		req = services.ReviewDeletionRequest{}
	}

	request, err := h.deletionService.Approve(rc, id, &req)
	if err != nil {
		if errors.Is(err, services.ErrRequestAlreadyClosed) {
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyDeletionAlreadyClosed))
			return
		}
		if strings.Contains(err.Error(), "admin") {
			utils.ForbiddenResponse(c, err.Error())
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, i18n.KeyDeletionNotFound)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDeletionApproved),
		"request": request,
	})
}

// POST /deletion-requests/:id/reject
func (h *DeletionHandler) RejectRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid request ID", nil)
		return
	}

	var req services.ReviewDeletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = services.ReviewDeletionRequest{}
	}

	request, err := h.deletionService.Reject(rc, id, &req)
	if err != nil {
		if errors.Is(err, services.ErrRequestAlreadyClosed) {
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyDeletionAlreadyClosed))
			return
		}
		if strings.Contains(err.Error(), "admin") {
			utils.ForbiddenResponse(c, err.Error())
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, i18n.KeyDeletionNotFound)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDeletionRejected),
		"request": request,
	})
}
