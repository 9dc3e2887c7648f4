package api

import (
	"net/http"

	"coindrop/internal/service"
	"coindrop/pkg/auth"
	"coindrop/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type economyRoutes struct {
	svc *service.Service
	a   *auth.TelegramAuth
}

func NewEconomyRoutes(handler *gin.RouterGroup, svc *service.Service, a *auth.TelegramAuth) {
	r := &economyRoutes{svc: svc, a: a}
	h := handler.Group("/economy")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/boosters/:booster_id/purchase", r.PurchaseBooster)
		h.POST("/themes/:theme_id/purchase", r.PurchaseTheme)
		h.POST("/buffs/frenzy", r.ActivateFrenzy)
		h.POST("/buffs/surge", r.ActivateEnergySurge)
		h.POST("/offline-bonus/claim", r.ClaimOfflineBonus)
		h.POST("/redemptions", r.SubmitRedemption)
		h.POST("/transfers", r.Transfer)
	}
}

func (r *economyRoutes) PurchaseBooster(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	state, err := r.svc.PurchaseBooster(c.Request.Context(), user.ID, c.Param("booster_id"))
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, toStateResponse(state))
}

func (r *economyRoutes) PurchaseTheme(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := r.svc.PurchaseTheme(c.Request.Context(), user.ID, c.Param("theme_id")); err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.Status(http.StatusNoContent)
}

func (r *economyRoutes) ActivateFrenzy(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := r.svc.ActivateFrenzy(c.Request.Context(), user.ID); err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.Status(http.StatusNoContent)
}

func (r *economyRoutes) ActivateEnergySurge(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := r.svc.ActivateEnergySurge(c.Request.Context(), user.ID); err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.Status(http.StatusNoContent)
}

func (r *economyRoutes) ClaimOfflineBonus(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	claimed, err := r.svc.ClaimOfflineBonus(c.Request.Context(), user.ID)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"claimed": claimed})
}

type SubmitRedemptionRequest struct {
	Amount         float64 `json:"amount"`
	PaymentMethod  string  `json:"payment_method"`
	PaymentDetails string  `json:"payment_details"`
}

func (r *economyRoutes) SubmitRedemption(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var req SubmitRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	rec, err := r.svc.SubmitRedemption(c.Request.Context(), user.ID, req.Amount, req.PaymentMethod, req.PaymentDetails)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, toTransactionResponse(rec))
}

type TransferRequest struct {
	Recipient int64   `json:"recipient"`
	Amount    float64 `json:"amount"`
}

func (r *economyRoutes) Transfer(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := r.svc.Transfer(c.Request.Context(), user.ID, req.Recipient, req.Amount); err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.Status(http.StatusNoContent)
}
