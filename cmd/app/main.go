package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"coindrop/internal/advisory"
	"coindrop/internal/api"
	"coindrop/internal/middleware"
	"coindrop/internal/repository"
	"coindrop/internal/service"
	"coindrop/pkg/auth"
	"coindrop/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	var notifier service.RedemptionNotifier
	if cfg.TelegramAuth.AdminChatID != 0 {
		tn, err := service.NewTelegramNotifier(service.NotifierConfig{
			BotToken:    cfg.TelegramAuth.TelegramBotToken,
			AdminChatID: cfg.TelegramAuth.AdminChatID,
			Debug:       cfg.TelegramAuth.DebugMode,
		})
		if err != nil {
			zapLogger.Warn("Failed to initialize admin notifier", zap.Error(err))
		} else {
			notifier = tn
		}
	}

	questService := service.NewQuestService(repo)
	achievementService := service.NewAchievementService(repo)
	economyService := service.NewEconomyService(repo, questService, achievementService, notifier)
	svc := service.NewService(economyService, questService, achievementService)

	sessions := service.NewSessionManager(repo)
	defer sessions.Shutdown()

	advisoryClient := advisory.NewClient(cfg.Advisory.BaseURL, cfg.Advisory.Timeout)
	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.DebugMode)
	authz := middleware.NewAuthorization(economyService)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	a := router.Group("/api/v1")
	api.NewUserRoutes(a, svc, advisoryClient, telegramAuth)
	api.NewEconomyRoutes(a, svc, telegramAuth)
	api.NewQuestRoutes(a, svc, telegramAuth)
	api.NewAdminRoutes(a, svc, telegramAuth, authz)
	api.NewGameRoutes(a, svc, sessions, telegramAuth)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
