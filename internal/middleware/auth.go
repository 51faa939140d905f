// internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/policystack/agency-backend/internal/i18n"
	"github.com/policystack/agency-backend/internal/models"
	"github.com/policystack/agency-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.GetHeader("Accept-Language")
		if lang == "" {
			lang = "en"
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthRequired),
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthInvalidToken),
			})
			c.Abort()
			return
		}

		token := parts[1]
		claims, err := utils.ValidateJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthTokenExpired),
			})
			c.Abort()
			return
		}

		// Set account info in context
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set("account_type", claims.AccountType)
		if claims.OwnerID != "" {
			c.Set("owner_id", claims.OwnerID)
		}
		if len(claims.AllowedPages) > 0 {
			c.Set("allowed_pages", claims.AllowedPages)
		}
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		lang := c.GetHeader("Accept-Language")
		if lang == "" {
			lang = "en"
		}

		role, exists := c.Get("role")
		if !exists || role != string(models.UserRoleAdmin) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": i18n.T(lang, i18n.KeyAdminAccessDenied),
			})
			c.Abort()
			return
		}
		c.Next()
	})
}

// SubscriptionRequired blocks mutating requests from accounts whose trial or
// subscription has lapsed or that an admin has locked. Reads stay allowed so
// data remains exportable.
func SubscriptionRequired(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		lang := utilsLang(c)

		// Team members are gated by their owner's subscription.
		idStr, _ := utils.GetUserIDFromContext(c)
		if ownerID, exists := c.Get("owner_id"); exists {
			if ownerStr, ok := ownerID.(string); ok {
				idStr = ownerStr
			}
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthRequired),
			})
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, "id = ?", id).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthUserNotFound),
			})
			c.Abort()
			return
		}

		if user.SubscriptionStatus == models.SubscriptionStatusLocked {
			c.JSON(http.StatusForbidden, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthAccountLocked),
			})
			c.Abort()
			return
		}

		if !user.CanWrite() {
			c.JSON(http.StatusForbidden, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthSubscriptionEnded),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// PageAccessRequired enforces team-member page ACLs. Full accounts pass
// through untouched.
func PageAccessRequired(page string) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountType, _ := utils.GetAccountTypeFromContext(c)
		if accountType != utils.AccountTypeTeamMember {
			c.Next()
			return
		}

		lang := utilsLang(c)

		if pages, exists := c.Get("allowed_pages"); exists {
			if list, ok := pages.([]string); ok {
				for _, p := range list {
					if p == page {
						c.Next()
						return
					}
				}
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error": i18n.T(lang, i18n.KeyTeamPageDenied),
		})
		c.Abort()
	}
}

func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		token := parts[1]
		claims, err := utils.ValidateJWT(token)
		if err != nil {
			c.Next()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set("account_type", claims.AccountType)
		c.Next()
	}
}

func utilsLang(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if str, ok := lang.(string); ok {
			return str
		}
	}
	return "en"
}
