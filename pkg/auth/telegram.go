// Package auth validates Telegram Mini App init data and extracts the
// authenticated user identity. The Telegram id doubles as the stable user id
// everywhere else in the system.
package auth

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"coindrop/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"
)

const expTime = 24 * time.Hour

type TelegramAuth struct {
	botToken  string
	debugMode bool
}

func NewTelegramAuth(botToken string, debugMode bool) *TelegramAuth {
	return &TelegramAuth{
		botToken:  botToken,
		debugMode: debugMode,
	}
}

type TelegramUserData struct {
	ID       int64
	Username string
	AuthDate time.Time
}

// Authenticate validates raw init data and extracts the user identity.
// Validation is skipped in debug mode; extraction never is.
func (t *TelegramAuth) Authenticate(rawInitData string) (*TelegramUserData, error) {
	if !t.debugMode {
		if err := initdata.Validate(rawInitData, t.botToken, expTime); err != nil {
			return nil, err
		}
	}
	return ExtractTelegramData(rawInitData)
}

// TelegramAuthMiddleware validates the "Telegram <init data>" authorization
// header and stores the extracted identity in the request context.
func (t *TelegramAuth) TelegramAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Telegram ") {
			log.Info("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		userData, err := t.Authenticate(strings.TrimPrefix(authHeader, "Telegram "))
		if err != nil {
			log.Info("invalid telegram init data", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid telegram auth data"})
			return
		}

		c.Set("telegram_user", userData)
		c.Next()
	}
}

// UserFromContext returns the identity placed by the middleware.
func UserFromContext(c *gin.Context) (*TelegramUserData, bool) {
	v, exists := c.Get("telegram_user")
	if !exists {
		return nil, false
	}
	user, ok := v.(*TelegramUserData)
	return user, ok
}

func ExtractTelegramData(rawInitData string) (*TelegramUserData, error) {
	values, err := url.ParseQuery(rawInitData)
	if err != nil {
		return nil, err
	}

	authDateUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, err
	}

	var userData struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal([]byte(values.Get("user")), &userData); err != nil {
		return nil, err
	}

	return &TelegramUserData{
		ID:       userData.ID,
		Username: userData.Username,
		AuthDate: time.Unix(authDateUnix, 0),
	}, nil
}
