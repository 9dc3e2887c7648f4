package api

import (
	"net/http"

	"coindrop/internal/catalog"
	"coindrop/internal/service"
	"coindrop/pkg/auth"

	"github.com/gin-gonic/gin"
)

type questRoutes struct {
	svc *service.Service
	a   *auth.TelegramAuth
}

func NewQuestRoutes(handler *gin.RouterGroup, svc *service.Service, a *auth.TelegramAuth) {
	r := &questRoutes{svc: svc, a: a}
	h := handler.Group("/quests")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/", r.GetQuests)
		h.POST("/:quest_id/claim", r.ClaimQuest)
		h.POST("/events/page-visit", r.PageVisit)
	}
}

type questInstanceResponse struct {
	QuestID   string  `json:"quest_id"`
	Title     string  `json:"title"`
	Event     string  `json:"event"`
	Progress  int     `json:"progress"`
	Target    int     `json:"target"`
	Reward    float64 `json:"reward"`
	Completed bool    `json:"completed"`
	Claimed   bool    `json:"claimed"`
}

func (r *questRoutes) GetQuests(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	instances, err := r.svc.GetQuests(c.Request.Context(), user.ID)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	out := make([]questInstanceResponse, 0, len(instances))
	for _, q := range instances {
		resp := questInstanceResponse{
			QuestID:   q.QuestID,
			Event:     string(q.Event),
			Progress:  q.Progress,
			Target:    q.Target,
			Completed: q.Completed,
			Claimed:   q.Claimed,
		}
		if def, found := catalog.QuestByID(q.QuestID); found {
			resp.Title = def.Title
			resp.Reward = def.Reward
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}

func (r *questRoutes) ClaimQuest(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := r.svc.Claim(c.Request.Context(), user.ID, c.Param("quest_id")); err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.Status(http.StatusNoContent)
}

func (r *questRoutes) PageVisit(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	r.svc.OnPageVisit(c.Request.Context(), user.ID)
	c.Status(http.StatusAccepted)
}
