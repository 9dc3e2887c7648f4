package middleware

import (
	"net/http"

	"coindrop/internal/service"
	"coindrop/pkg/auth"
	"coindrop/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type Authorization struct {
	economy *service.EconomyService
}

func NewAuthorization(economy *service.EconomyService) *Authorization {
	return &Authorization{
		economy: economy,
	}
}

// AdminOnly requires the authenticated Telegram user to carry the admin
// flag on their user record. Must run after the Telegram auth middleware.
func (a *Authorization) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		telegramUser, ok := auth.UserFromContext(c)
		if !ok {
			log.Error("telegram user data not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		state, err := a.economy.GetState(c.Request.Context(), telegramUser.ID)
		if err != nil {
			log.Error("failed to get user data", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		if !state.IsAdmin {
			log.Info("unauthorized access attempt to admin endpoint",
				zap.Int64("telegram_id", telegramUser.ID))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Set("is_admin", true)
		c.Next()
	}
}
