package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"botgpt/internal/bootstrap"
	"botgpt/internal/transport/http/handler"
	"botgpt/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.MaxMultipartMemory = handler.MaxPDFSize
	router.Use(middleware.RequestID(), gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.Live)
	router.GET("/healthz", healthHandler.Check)

	conversationHandler := handler.NewConversationHandler(app.Conversations)
	documentHandler := handler.NewDocumentHandler(app.Documents)

	conversations := router.Group("/conversations")
	conversations.POST("", conversationHandler.Create)
	conversations.GET("", conversationHandler.List)
	conversations.GET("/:id", conversationHandler.Get)
	conversations.DELETE("/:id", conversationHandler.Delete)
	conversations.POST("/:id/messages", conversationHandler.SendMessage)
	conversations.POST("/:id/reply", conversationHandler.Reply)

	conversations.POST("/:id/documents", documentHandler.UploadPDF)
	conversations.POST("/:id/documents/text", documentHandler.CreateText)
	conversations.GET("/:id/documents", documentHandler.List)
	conversations.DELETE("/:id/documents/:document_id", documentHandler.Delete)

	return router
}
