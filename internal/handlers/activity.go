// internal/handlers/activity.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/policystack/agency-backend/internal/models"
	"github.com/policystack/agency-backend/internal/services"
	"github.com/policystack/agency-backend/internal/utils"
)

type ActivityHandler struct {
	activityService *services.ActivityService
}

func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// GET /activity
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	filter := services.ActivityFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if actionStr := c.Query("action"); actionStr != "" {
		action := models.ActivityAction(actionStr)
		filter.Action = &action
	}
	if resourceType := c.Query("resource_type"); resourceType != "" {
		filter.ResourceType = resourceType
	}

	// Non-admins only see their own trail.
	if rc.IsAdmin {
		if userIDStr := c.Query("user_id"); userIDStr != "" {
			if userID, err := uuid.Parse(userIDStr); err == nil {
				filter.UserID = &userID
			}
		}
	} else {
		filter.UserID = &rc.ActorID
	}

	entries, total, err := h.activityService.List(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(entries, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}
