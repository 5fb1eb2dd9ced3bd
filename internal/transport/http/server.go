package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/briteai/briteai-backend/internal/ai"
	appsvc "github.com/briteai/briteai-backend/internal/app"
	"github.com/briteai/briteai-backend/internal/bootstrap"
	"github.com/briteai/briteai-backend/internal/cache"
	"github.com/briteai/briteai-backend/internal/platform/rabbitmq"
	"github.com/briteai/briteai-backend/internal/repository"
	"github.com/briteai/briteai-backend/internal/transport/http/handler"
	"github.com/briteai/briteai-backend/internal/transport/http/middleware"
	"github.com/briteai/briteai-backend/internal/vectorstore"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)
	chunkRepo := repository.NewChunkRepository(app.MySQL)
	usageRepo := repository.NewUsageRepository(app.MySQL)

	llmClient := ai.NewOpenAICompatibleClient()
	chatCfg := ai.ChatConfig{
		BaseURL:     app.Config.OpenAI.BaseURL,
		APIKey:      app.Config.OpenAI.APIKey,
		Model:       app.Config.OpenAI.ChatModel,
		Temperature: app.Config.OpenAI.Temperature,
	}
	embCfg := ai.EmbeddingConfig{
		BaseURL: app.Config.OpenAI.BaseURL,
		APIKey:  app.Config.OpenAI.APIKey,
		Model:   app.Config.OpenAI.EmbeddingModel,
	}

	store := vectorstore.New(llmClient, chunkRepo, embCfg)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	usagePublisher := rabbitmq.NewUsagePublisher(app.MQConn, app.Config.RabbitMQ.UsageEventQueue)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	postProcessor := appsvc.NewPostProcessor(messageRepo, app.Logger)
	chatService := appsvc.NewChatService(
		docRepo,
		messageRepo,
		store,
		llmClient,
		postProcessor,
		usagePublisher,
		historyCache,
		chatCfg,
		app.Config.Retrieval.TopK,
		app.Config.Retrieval.HistoryWindow,
		app.Logger,
	)
	documentService := appsvc.NewDocumentService(
		docRepo,
		chunkRepo,
		messageRepo,
		userRepo,
		llmClient,
		historyCache,
		embCfg,
		app.Config.Retrieval.ChunkSize,
		app.Config.Retrieval.ChunkOverlap,
		app.Logger,
	)
	usageService := appsvc.NewUsageService(userRepo, usageRepo)

	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)
	documentHandler := handler.NewDocumentHandler(documentService)
	planHandler := handler.NewPlanHandler(authService, usageService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	v1.GET("/plans", planHandler.List)

	authed := v1.Group("")
	authed.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	authed.POST("/plans/select", planHandler.Select)
	authed.GET("/plans/usage", planHandler.Usage)
	authed.POST("/documents", documentHandler.Upload)
	authed.GET("/documents", documentHandler.List)
	authed.DELETE("/documents/:id", documentHandler.Delete)
	authed.POST("/chat/messages", chatHandler.SendMessage)
	authed.GET("/chat/history", chatHandler.GetHistory)

	return router
}

// Recovery turns panics into 500 responses except for http.ErrAbortHandler,
// which is re-raised so net/http closes the connection without a terminating
// chunk. Stream handlers rely on that to signal truncation to the client.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		if err == http.ErrAbortHandler {
			panic(err)
		}
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}
