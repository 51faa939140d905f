// internal/handlers/common.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/policystack/agency-backend/internal/services"
	"github.com/policystack/agency-backend/internal/utils"
)

// requestContext resolves who is acting and whose data they act on. A team
// member operates on the owner's records, so the owner's id becomes the
// actor for data access while the member's own id stays in the token.
func requestContext(c *gin.Context) (services.RequestContext, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		return services.RequestContext{}, false
	}

	actorIDStr := userIDStr
	if accountType, _ := utils.GetAccountTypeFromContext(c); accountType == utils.AccountTypeTeamMember {
		if ownerID, ok := c.Get("owner_id"); ok {
			if ownerStr, ok := ownerID.(string); ok && ownerStr != "" {
				actorIDStr = ownerStr
			}
		}
	}

	actorID, err := uuid.Parse(actorIDStr)
	if err != nil {
		return services.RequestContext{}, false
	}

	role, _ := utils.GetRoleFromContext(c)

	return services.RequestContext{
		ActorID:   actorID,
		IsAdmin:   role == "admin",
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}, true
}
