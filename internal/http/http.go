package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	jwtpkg "github.com/geofeed/backend/internal/jwt"
	metricspkg "github.com/geofeed/backend/internal/metrics"
	"github.com/geofeed/backend/internal/middleware"
)

type RouterConfig struct {
	Logger         *zap.Logger
	JWT            *jwtpkg.JWT
	Sessions       middleware.SessionStore
	Metrics        *metricspkg.Metrics
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the gin engine with every route of the API.
func NewRouter(config RouterConfig, handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		cors.New(cors.Config{
			AllowOrigins:  []string{"*"},
			AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}),
		middleware.NewLoggingMiddleware(config.Logger),
		middleware.NewMetricsMiddleware(config.Metrics),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(config.Metrics.Handler()))
	router.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openAPIDocument)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))

	required := middleware.NewAuthorizationMiddleware(config.Logger, config.JWT, config.Sessions, true)
	optional := middleware.NewAuthorizationMiddleware(config.Logger, config.JWT, config.Sessions, false)

	api := router.Group("/")
	api.Use(middleware.NewRateLimitMiddleware(config.RateLimitRPS, config.RateLimitBurst))

	auth := api.Group("/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
	auth.GET("/verify-email/:token", handler.VerifyEmail)
	auth.POST("/refresh-token", handler.RefreshToken)
	auth.POST("/forgot-password", handler.ForgotPassword)
	auth.PUT("/reset-password", handler.ResetPassword)
	auth.GET("/logout", required, handler.Logout)
	auth.GET("/me", required, handler.Me)

	posts := api.Group("/posts")
	posts.GET("", optional, handler.ListPosts)
	posts.POST("", required, handler.CreatePost)
	posts.GET("/:postId", optional, handler.GetPost)
	posts.PATCH("/:postId", required, handler.UpdatePost)
	posts.DELETE("/:postId", required, handler.DeletePost)
	posts.PUT("/:postId/vote", required, handler.VotePost)
	posts.PUT("/:postId/poll/vote", required, handler.VotePoll)

	posts.GET("/:postId/comments", optional, handler.ListComments)
	posts.POST("/:postId/comments", required, handler.CreateComment)
	posts.GET("/:postId/comments/:commentId", optional, handler.GetComment)
	posts.POST("/:postId/comments/:commentId", required, handler.CreateComment)
	posts.PATCH("/:postId/comments/:commentId", required, handler.UpdateComment)
	posts.DELETE("/:postId/comments/:commentId", required, handler.DeleteComment)
	posts.PUT("/:postId/comments/:commentId/vote", required, handler.VoteComment)

	router.NoRoute(func(c *gin.Context) {
		middleware.AbortWithError(c, notFoundRoute)
	})

	return router
}

type HTTP struct {
	logger *zap.Logger
	host   string
	port   string
	server *http.Server
}

func NewHTTP(logger *zap.Logger, host string, port string, router *gin.Engine) *HTTP {
	return &HTTP{
		logger: logger,
		host:   host,
		port:   port,
		server: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       time.Minute,
		},
	}
}

func (this *HTTP) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%s", this.host, this.port))
	if err != nil {
		return err
	}

	go func() {
		this.logger.Info("HTTP server started", zap.String("addr", listener.Addr().String()))
		err := this.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			this.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	return nil
}

func (this *HTTP) Stop(ctx context.Context) error {
	err := this.server.Shutdown(ctx)
	if err != nil {
		return err
	}
	this.logger.Info("HTTP server stopped gracefully")
	return nil
}
