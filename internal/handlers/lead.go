// internal/handlers/lead.go
package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/policystack/agency-backend/internal/i18n"
	"github.com/policystack/agency-backend/internal/models"
	"github.com/policystack/agency-backend/internal/services"
	"github.com/policystack/agency-backend/internal/utils"
)

type LeadHandler struct {
	leadService *services.LeadService
}

func NewLeadHandler(leadService *services.LeadService) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
	}
}

// GET /leads
func (h *LeadHandler) GetLeads(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	var status *models.LeadStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := models.LeadStatus(statusStr)
		status = &s
	}
	var priority *models.LeadPriority
	if priorityStr := c.Query("priority"); priorityStr != "" {
		p := models.LeadPriority(priorityStr)
		priority = &p
	}

	leads, total, err := h.leadService.SearchLeads(rc, params, status, priority)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(leads, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /leads
func (h *LeadHandler) CreateLead(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	lead, err := h.leadService.CreateLead(rc, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLeadCreated),
		"lead":    lead,
	})
}

// GET /leads/follow-ups
func (h *LeadHandler) GetFollowUps(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	bucket := services.FollowUpBucket(c.DefaultQuery("bucket", string(services.BucketToday)))

	var from, to *time.Time
	if fromStr := c.Query("from"); fromStr != "" {
		if t, err := time.Parse("2006-01-02", fromStr); err == nil {
			from = &t
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		if t, err := time.Parse("2006-01-02", toStr); err == nil {
			to = &t
		}
	}

	if bucket == services.BucketCustom && (from == nil || to == nil) {
		utils.BadRequestResponse(c, "Custom range requires from and to dates", nil)
		return
	}

	leads, err := h.leadService.FollowUps(rc, bucket, from, to)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"bucket": bucket,
		"leads":  leads,
	})
}

// GET /leads/:id
func (h *LeadHandler) GetLead(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid lead ID", nil)
		return
	}

	lead, err := h.leadService.GetLead(rc, id)
	if err != nil {
		if strings.Contains(err.Error(), "unauthorized") {
			utils.ForbiddenResponse(c, err.Error())
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, i18n.KeyLeadNotFound)
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"lead": lead,
	})
}

// PUT /leads/:id
func (h *LeadHandler) UpdateLead(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid lead ID", nil)
		return
	}

	var req services.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	lead, err := h.leadService.UpdateLead(rc, id, &req)
	if err != nil {
		if strings.Contains(err.Error(), "unauthorized") {
			utils.ForbiddenResponse(c, err.Error())
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, i18n.KeyLeadNotFound)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLeadUpdated),
		"lead":    lead,
	})
}

// DELETE /leads/:id
func (h *LeadHandler) DeleteLead(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid lead ID", nil)
		return
	}

	if err := h.leadService.DeleteLead(rc, id); err != nil {
		if strings.Contains(err.Error(), "unauthorized") {
			utils.ForbiddenResponse(c, err.Error())
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, i18n.KeyLeadNotFound)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLeadDeleted),
	})
}

// POST /leads/:id/follow-ups
func (h *LeadHandler) RecordFollowUp(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid lead ID", nil)
		return
	}

	var req services.RecordFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	lead, err := h.leadService.RecordFollowUp(rc, id, &req)
	if err != nil {
		if strings.Contains(err.Error(), "unauthorized") {
			utils.ForbiddenResponse(c, err.Error())
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, i18n.KeyLeadNotFound)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFollowUpRecorded),
		"lead":    lead,
	})
}

// POST /leads/:id/convert
func (h *LeadHandler) ConvertLead(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid lead ID", nil)
		return
	}

	var req struct {
		PolicyID uuid.UUID `json:"policy_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	lead, err := h.leadService.ConvertLead(rc, id, req.PolicyID)
	if err != nil {
		if strings.Contains(err.Error(), "unauthorized") {
			utils.ForbiddenResponse(c, err.Error())
			return
		}
		if strings.Contains(err.Error(), "lead not found") {
			utils.NotFoundResponse(c, i18n.KeyLeadNotFound)
			return
		}
		if strings.Contains(err.Error(), "policy not found") {
			utils.NotFoundResponse(c, i18n.KeyPolicyNotFound)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLeadConverted),
		"lead":    lead,
	})
}
