package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexconsult/fgts-api/internal/config"
	"github.com/nexconsult/fgts-api/internal/repository"
	"github.com/nexconsult/fgts-api/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Container holds all service dependencies
type Container struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	dbPool      *pgxpool.Pool
	scheduler   *cron.Cron
	httpClient  *http.Client

	CorrelationStore    CorrelationStore
	ResultStorage       storage.ResultStorage
	ProviderService     ProviderServiceInterface
	ConsultationService ConsultationServiceInterface
	BatchService        BatchServiceInterface
	WebhookService      WebhookServiceInterface
	UserService         UserServiceInterface
}

// NewContainer creates a new service container
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	container := &Container{
		config: cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: cfg.Provider.HTTPTimeout,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	container.initRedis(ctx)

	if err := container.initDatabase(ctx); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := container.initStorage(ctx); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	container.initServices()

	if err := container.initScheduler(); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	return container, nil
}

// initRedis connects to Redis; on failure the container keeps correlation
// entries in memory
func (c *Container) initRedis(ctx context.Context) {
	if c.config.Redis.Disabled {
		c.logger.Info("Redis disabled, using in-memory correlation store")
		return
	}

	c.redisClient = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", c.config.Redis.Host, c.config.Redis.Port),
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	})

	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis connection failed, using in-memory correlation store")
		c.redisClient.Close()
		c.redisClient = nil
		return
	}
	c.logger.Info("Redis connection established")
}

// initDatabase opens the Postgres pool and ensures the schema. Without a
// DATABASE_URL batches and profiles stay in memory.
func (c *Container) initDatabase(ctx context.Context) error {
	if c.config.Database.URL == "" {
		c.logger.Warn("DATABASE_URL not set, batches and profiles kept in memory")
		return nil
	}

	pool, err := repository.Connect(ctx, c.config.Database)
	if err != nil {
		return err
	}
	if err := repository.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return err
	}

	c.dbPool = pool
	c.logger.Info("Database connection established")
	return nil
}

// initStorage selects MinIO when an endpoint is configured
func (c *Container) initStorage(ctx context.Context) error {
	if c.config.Storage.Endpoint == "" {
		c.logger.Warn("STORAGE_ENDPOINT not set, result files kept in memory")
		c.ResultStorage = storage.NewMemoryStorage()
		return nil
	}

	minioStorage, err := storage.NewMinioStorage(c.config.Storage)
	if err != nil {
		return err
	}
	if err := minioStorage.EnsureBucket(ctx); err != nil {
		return err
	}

	c.ResultStorage = minioStorage
	c.logger.WithField("bucket", c.config.Storage.Bucket).Info("Object storage ready")
	return nil
}

// initServices wires every service
func (c *Container) initServices() {
	if c.redisClient != nil {
		c.CorrelationStore = NewRedisCorrelationStore(c.redisClient, c.config.Correlation.TTL, c.logger)
	} else {
		c.CorrelationStore = NewMemoryCorrelationStore(c.config.Correlation.TTL, c.logger)
	}

	var (
		batches  repository.BatchRepository
		profiles repository.ProfileRepository
	)
	if c.dbPool != nil {
		batches = repository.NewPostgresBatchRepository(c.dbPool)
		profiles = repository.NewPostgresProfileRepository(c.dbPool)
	} else {
		batches = repository.NewMemoryBatchRepository()
		profiles = repository.NewMemoryProfileRepository()
	}

	tokens := NewTokenCache(c.config.Provider, c.httpClient, c.logger)
	c.ProviderService = NewProviderClient(c.config.Provider, tokens, c.httpClient, c.logger)
	c.ConsultationService = NewConsultationService(c.config.Provider, c.ProviderService, c.CorrelationStore, c.logger)
	c.BatchService = NewBatchService(c.ConsultationService, batches, c.ResultStorage, c.logger)
	c.WebhookService = NewWebhookService(c.CorrelationStore, c.logger)

	identityClient := NewIdentityClient(c.config.Identity, &http.Client{Timeout: c.config.Identity.Timeout}, c.logger)
	c.UserService = NewUserService(identityClient, profiles, c.logger)
}

// initScheduler schedules the TTL sweep of the in-memory correlation store.
// Redis expires keys on its own.
func (c *Container) initScheduler() error {
	memStore, ok := c.CorrelationStore.(*MemoryCorrelationStore)
	if !ok {
		return nil
	}

	c.scheduler = cron.New()
	if _, err := c.scheduler.AddFunc(c.config.Correlation.SweepSpec, func() {
		memStore.EvictExpired()
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", c.config.Correlation.SweepSpec, err)
	}
	c.scheduler.Start()

	c.logger.WithField("schedule", c.config.Correlation.SweepSpec).Info("Correlation sweep scheduled")
	return nil
}

// Drain stops accepting batches and waits for the running ones. Call it
// while the HTTP server still receives provider callbacks.
func (c *Container) Drain(ctx context.Context) error {
	if c.BatchService == nil {
		return nil
	}
	return c.BatchService.Drain(ctx)
}

// Close closes all service connections
func (c *Container) Close() error {
	var errors []error

	if c.scheduler != nil {
		<-c.scheduler.Stop().Done()
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.dbPool != nil {
		c.dbPool.Close()
	}

	if len(errors) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errors)
	}

	return nil
}

// Health checks the health of all services
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c.redisClient != nil {
		if err := c.redisClient.Ping(ctx).Err(); err != nil {
			health["redis"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			health["redis"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	} else {
		health["redis"] = map[string]interface{}{
			"status": "disabled",
		}
	}

	if c.dbPool != nil {
		if err := c.dbPool.Ping(ctx); err != nil {
			health["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			stat := c.dbPool.Stat()
			health["database"] = map[string]interface{}{
				"status":      "healthy",
				"total_conns": stat.TotalConns(),
				"idle_conns":  stat.IdleConns(),
				"acquired":    stat.AcquiredConns(),
			}
		}
	} else {
		health["database"] = map[string]interface{}{
			"status": "disabled",
		}
	}

	if c.CorrelationStore != nil {
		health["correlation"] = c.CorrelationStore.Health()
	}

	if c.ResultStorage != nil {
		health["storage"] = c.ResultStorage.Health(ctx)
	}

	if c.UserService != nil {
		health["identity"] = c.UserService.Health()
	}

	if c.ConsultationService != nil {
		health["consultations"] = c.ConsultationService.Health()
	}

	if c.BatchService != nil {
		health["batches"] = c.BatchService.Health()
	}

	return health
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logrus.Logger {
	return c.logger
}
