package system

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/agent"
	"github.com/KevinKickass/mtconnect-core/internal/api/rest"
	"github.com/KevinKickass/mtconnect-core/internal/api/websocket"
	"github.com/KevinKickass/mtconnect-core/internal/auth"
	"github.com/KevinKickass/mtconnect-core/internal/catalog"
	"github.com/KevinKickass/mtconnect-core/internal/config"
	"github.com/KevinKickass/mtconnect-core/internal/formatter"
	"github.com/KevinKickass/mtconnect-core/internal/interfaces"
	"github.com/KevinKickass/mtconnect-core/internal/metrics"
	"github.com/KevinKickass/mtconnect-core/internal/storage"
)

// LifecycleManager owns every service of the agent and starts and stops
// them in order.
type LifecycleManager struct {
	config   *config.Config
	logger   *zap.Logger
	store    storage.Store
	db       *storage.PostgresClient
	catalog  *catalog.Catalog
	registry *formatter.Registry
	metrics  *metrics.Metrics
	gatherer *prometheus.Registry

	agent       *agent.Service
	authService *auth.AuthService
	hub         *websocket.Hub
	restServer  *rest.Server

	hubCancel context.CancelFunc

	stateMu      sync.RWMutex
	currentState SystemState

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

// NewLifecycleManager builds the service graph. It connects to PostgreSQL
// when a database host is configured and keeps current values in memory
// otherwise.
func NewLifecycleManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*LifecycleManager, error) {
	loader, err := catalog.NewLoader(cfg.Catalog.SearchPaths, logger)
	if err != nil {
		return nil, err
	}
	cat, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	lm := &LifecycleManager{
		config:       cfg,
		logger:       logger,
		catalog:      cat,
		currentState: StateInitializing,
		shutdownChan: make(chan struct{}),
	}

	if cfg.Database.Enabled() {
		db, err := storage.NewPostgresClient(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		lm.db = db
		lm.store = db
		logger.Info("Database connected successfully",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Database))
	} else {
		lm.store = storage.NewMemoryStore()
		logger.Info("No database configured, keeping current values in memory")
	}

	lm.gatherer = prometheus.NewRegistry()
	lm.gatherer.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	lm.metrics = metrics.New(lm.gatherer)

	lm.registry = formatter.NewRegistry(cat, formatter.Options{
		CategoryOutput:   cfg.Output.CategoryOutput,
		InstanceIDOutput: cfg.Output.InstanceIDOutput,
		Indent:           cfg.Output.Indent,
	}, logger)

	lm.agent = agent.NewService(lm.registry, lm.store, lm.metrics, cfg.Header, logger)
	lm.authService = auth.NewAuthService(cfg.Auth, logger)

	lm.hub = websocket.NewHub(lm.registry, lm.authService, cfg.Server.DefaultFormat, logger)
	lm.hub.SetMetrics(lm.metrics)
	lm.agent.SetPublisher(lm.hub)

	lm.restServer = rest.NewServer(cfg, rest.Dependencies{
		Lifecycle:   lm,
		Agent:       lm.agent,
		Catalog:     cat,
		Hub:         lm.hub,
		AuthService: lm.authService,
		Gatherer:    lm.gatherer,
	}, logger)

	return lm, nil
}

// Start starts the entire system
func (lm *LifecycleManager) Start(ctx context.Context) error {
	lm.logger.Info("Starting MTConnect agent")

	if err := lm.agent.Start(ctx); err != nil {
		lm.setState(StateError)
		return fmt.Errorf("failed to start agent: %w", err)
	}

	hubCtx, cancel := context.WithCancel(context.Background())
	lm.hubCancel = cancel
	go lm.hub.Run(hubCtx)

	if err := lm.restServer.Start(); err != nil {
		lm.setState(StateError)
		return fmt.Errorf("failed to start REST API: %w", err)
	}

	lm.setState(StateRunning)

	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.Uint64("instance_id", lm.agent.InstanceID()),
		zap.Strings("formats", lm.registry.IDs()),
		zap.Bool("auth_enabled", lm.authService.Enabled()))

	return nil
}

// Shutdown gracefully shuts down the system. Only the first call has an
// effect.
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")
		lm.setState(StateStopping)

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)
		if lm.db != nil {
			lm.db.Close()
		}
		close(lm.shutdownChan)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	var err error
	if lm.restServer != nil {
		if shutdownErr := lm.restServer.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("rest api shutdown failed: %w", shutdownErr)
		}
	}

	if lm.hubCancel != nil {
		lm.hubCancel()
	}

	if err == nil {
		lm.logger.Info("Graceful shutdown completed")
	}
	return err
}

// Done is closed once Shutdown has finished.
func (lm *LifecycleManager) Done() <-chan struct{} {
	return lm.shutdownChan
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	if err := ValidateTransition(lm.currentState, state); err != nil {
		lm.logger.Warn("Unexpected state transition", zap.Error(err))
	}
	lm.currentState = state
	lm.stateMu.Unlock()

	lm.broadcastStatus()
}

func (lm *LifecycleManager) State() SystemState {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()
	return lm.currentState
}

func (lm *LifecycleManager) broadcastStatus() {
	status := lm.GetCurrentStatus(context.Background())
	lm.hub.Broadcast(websocket.NewMessage(websocket.MessageTypeSystemStatus, status))
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus(ctx context.Context) interfaces.SystemStatus {
	header := lm.agent.Header()

	count, err := lm.store.Count(ctx)
	if err != nil {
		lm.logger.Warn("Failed to count current values", zap.Error(err))
	}

	backend := "memory"
	if lm.db != nil {
		backend = "postgres"
	}

	return interfaces.SystemStatus{
		State:            lm.State().String(),
		InstanceID:       header.InstanceID,
		NextSequence:     header.NextSequence,
		CurrentValues:    count,
		ConnectedClients: lm.hub.GetClientCount(),
		Formats:          lm.registry.IDs(),
		CatalogVersion:   lm.catalog.Version(),
		Storage:          backend,
	}
}

// Agent returns the agent service
func (lm *LifecycleManager) Agent() *agent.Service {
	return lm.agent
}

// RESTServer returns the REST API server
func (lm *LifecycleManager) RESTServer() *rest.Server {
	return lm.restServer
}

// Config returns the configuration
func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}
