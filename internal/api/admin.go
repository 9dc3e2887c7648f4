package api

import (
	"net/http"

	"coindrop/internal/middleware"
	"coindrop/internal/service"
	"coindrop/pkg/auth"
	"coindrop/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type adminRoutes struct {
	svc *service.Service
	a   *auth.TelegramAuth
}

func NewAdminRoutes(handler *gin.RouterGroup, svc *service.Service, a *auth.TelegramAuth, authz *middleware.Authorization) {
	r := &adminRoutes{svc: svc, a: a}
	h := handler.Group("/admin")
	h.Use(a.TelegramAuthMiddleware())
	h.Use(authz.AdminOnly())
	{
		h.GET("/redemptions", r.ListPendingRedemptions)
		h.POST("/redemptions/:transaction_id/resolve", r.ResolveRedemption)
	}
}

func (r *adminRoutes) ListPendingRedemptions(c *gin.Context) {
	records, err := r.svc.GetPendingRedemptions(c.Request.Context())
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

type ResolveRedemptionRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

// ResolveRedemption is idempotence-safe: a second resolution of the same
// request comes back 409 with no state change.
func (r *adminRoutes) ResolveRedemption(c *gin.Context) {
	log := logger.Logger()

	admin, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	txID, err := uuid.Parse(c.Param("transaction_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}

	var req ResolveRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	rec, err := r.svc.ResolveRedemption(c.Request.Context(), admin.ID, txID, req.Approve, req.Note)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, toTransactionResponse(rec))
}
