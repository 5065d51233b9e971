package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/agent"
	"github.com/KevinKickass/mtconnect-core/internal/api/websocket"
	"github.com/KevinKickass/mtconnect-core/internal/auth"
	"github.com/KevinKickass/mtconnect-core/internal/catalog"
	"github.com/KevinKickass/mtconnect-core/internal/config"
	"github.com/KevinKickass/mtconnect-core/internal/interfaces"
)

const maxBodyBytes = 32 << 20

// Dependencies are the services the REST API exposes.
type Dependencies struct {
	Lifecycle   interfaces.LifecycleManager
	Agent       *agent.Service
	Catalog     *catalog.Catalog
	Hub         *websocket.Hub
	AuthService *auth.AuthService
	Gatherer    prometheus.Gatherer
}

type Server struct {
	router        *gin.Engine
	lm            interfaces.LifecycleManager
	agent         *agent.Service
	catalog       *catalog.Catalog
	wsHub         *websocket.Hub
	authService   *auth.AuthService
	gatherer      prometheus.Gatherer
	defaultFormat string
	logger        *zap.Logger
	server        *http.Server
}

func NewServer(cfg *config.Config, deps Dependencies, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		router:        gin.New(),
		lm:            deps.Lifecycle,
		agent:         deps.Agent,
		catalog:       deps.Catalog,
		wsHub:         deps.Hub,
		authService:   deps.AuthService,
		gatherer:      gatherer,
		defaultFormat: cfg.Server.DefaultFormat,
		logger:        logger,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("REST server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down REST API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(CORSMiddleware())

	// Public routes
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v1 := s.router.Group("/api/v1")
	v1.Use(s.authService.AuthMiddleware())
	{
		v1.GET("/formats", auth.RequirePermission(auth.PermRead), s.listFormats)
		v1.POST("/convert", auth.RequirePermission(auth.PermRead), s.convert)

		v1.POST("/ingest", auth.RequirePermission(auth.PermIngest), s.ingest)

		current := v1.Group("/current")
		current.Use(auth.RequirePermission(auth.PermRead))
		{
			current.GET("", s.getCurrent)
			current.GET("/:device/:dataItem", s.getCurrentValue)
		}

		catalogRoutes := v1.Group("/catalog")
		catalogRoutes.Use(auth.RequirePermission(auth.PermRead))
		{
			catalogRoutes.GET("/types", s.listTypes)
			catalogRoutes.GET("/types/:type", s.getType)
		}

		v1.POST("/auth/tokens", auth.RequirePermission(auth.PermAdmin), s.issueToken)

		system := v1.Group("/system")
		{
			system.GET("/status", auth.RequirePermission(auth.PermRead), s.getSystemStatus)
			system.POST("/shutdown", auth.RequirePermission(auth.PermAdmin), s.shutdown)
		}

		v1.GET("/ws/status", auth.RequirePermission(auth.PermRead), s.wsStatus)
	}

	// WebSocket authenticates through its first message
	s.router.GET("/api/v1/ws/live", s.wsLiveConnection)
}

func (s *Server) wsLiveConnection(c *gin.Context) {
	websocket.ServeWs(s.wsHub, c.Writer, c.Request)
}

func (s *Server) wsStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": s.wsHub.GetClientCount(),
	})
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
