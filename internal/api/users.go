package api

import (
	"net/http"

	"coindrop/internal/advisory"
	"coindrop/internal/service"
	"coindrop/pkg/auth"
	"coindrop/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type userRoutes struct {
	svc      *service.Service
	advisory *advisory.Client
	a        *auth.TelegramAuth
}

func NewUserRoutes(handler *gin.RouterGroup, svc *service.Service, advisoryClient *advisory.Client, a *auth.TelegramAuth) {
	r := &userRoutes{svc: svc, advisory: advisoryClient, a: a}
	h := handler.Group("/users")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/", r.RegisterUser)
		h.GET("/me", r.GetState)
		h.GET("/me/transactions", r.GetTransactions)
		h.GET("/me/tip", r.GetTip)
		h.GET("/leaderboard", r.GetLeaderboard)
	}
}

type RegisterUserRequest struct {
	Referrer *int64 `json:"referrer"`
}

func (r *userRoutes) RegisterUser(c *gin.Context) {
	log := logger.Logger()

	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	err := r.svc.RegisterUser(c.Request.Context(), user.ID, user.Username, req.Referrer)
	if err != nil {
		log.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"telegram_id": user.ID})
}

// GetState returns the authoritative state. Session start also refreshes
// the claimable offline bonus and rotates the daily quests if needed.
func (r *userRoutes) GetState(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if _, err := r.svc.RefreshOfflineBonus(c.Request.Context(), user.ID); err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	if err := r.svc.EnsureRotation(c.Request.Context(), user.ID); err != nil {
		log.Warn("failed to rotate daily quests", zap.Int64("telegram_id", user.ID), zap.Error(err))
	}

	state, err := r.svc.GetState(c.Request.Context(), user.ID)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, toStateResponse(state))
}

func (r *userRoutes) GetTransactions(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	records, err := r.svc.GetTransactions(c.Request.Context(), user.ID, 50)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	out := make([]transactionResponse, len(records))
	for i, rec := range records {
		out[i] = toTransactionResponse(rec)
	}
	c.JSON(http.StatusOK, out)
}

// GetTip is best-effort: any advisory failure returns an empty tip.
func (r *userRoutes) GetTip(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	tip := ""
	if r.advisory != nil {
		state, err := r.svc.GetState(c.Request.Context(), user.ID)
		if err == nil {
			boosts := make([]string, 0, len(state.BoostLevels))
			for id := range state.BoostLevels {
				boosts = append(boosts, id)
			}

			tip, err = r.advisory.FetchTip(c.Request.Context(), advisory.TipRequest{
				RecentTaps:   state.TapsToday(state.LastSeenAt),
				ActiveBoosts: boosts,
			})
			if err != nil {
				logger.Logger().Debug("tip fetch failed", zap.Error(err))
				tip = ""
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"tip": tip})
}

func (r *userRoutes) GetLeaderboard(c *gin.Context) {
	entries, err := r.svc.GetLeaderboard(c.Request.Context())
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	type entryResponse struct {
		TelegramID int64   `json:"telegram_id"`
		Username   string  `json:"username"`
		Balance    float64 `json:"balance"`
		Referrals  int     `json:"referrals"`
	}

	out := make([]entryResponse, len(entries))
	for i, e := range entries {
		out[i] = entryResponse{
			TelegramID: e.TelegramID,
			Username:   e.Username,
			Balance:    e.Balance,
			Referrals:  e.Referrals,
		}
	}
	c.JSON(http.StatusOK, out)
}
