package di

import (
	"context"
	"fmt"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/handler"
	"github.com/Incognitol07/event-management-system-sub001/internal/repository"
	"github.com/Incognitol07/event-management-system-sub001/internal/service"
	"github.com/Incognitol07/event-management-system-sub001/pkg/config"
	"github.com/Incognitol07/event-management-system-sub001/pkg/database"
	"github.com/Incognitol07/event-management-system-sub001/pkg/logger"
	"github.com/Incognitol07/event-management-system-sub001/pkg/redis"
	"github.com/Incognitol07/event-management-system-sub001/pkg/retry"
	"go.uber.org/zap"
)

// Container holds all dependencies for the event service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Persistence
	Store  repository.Store
	Locker repository.Locker

	// Publishers
	DecisionPublisher service.DecisionPublisher

	// Services
	EventService      service.EventService
	ResourceService   service.ResourceService
	RSVPService       service.RSVPService
	AllocationService service.AllocationService
	CalendarService   service.CalendarService

	// Handlers
	Handlers *handler.Handlers
}

// ContainerConfig contains configuration for building the container.
// A nil DB selects the in-memory store, a nil Redis the in-process locker.
type ContainerConfig struct {
	DB                *database.PostgresDB
	Redis             *redis.Client
	DecisionPublisher service.DecisionPublisher
	Admission         *service.AdmissionConfig
	Calendar          *service.CalendarServiceConfig
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:                cfg.DB,
		Redis:             cfg.Redis,
		DecisionPublisher: cfg.DecisionPublisher,
	}
	if c.DecisionPublisher == nil {
		c.DecisionPublisher = service.NewNoOpDecisionPublisher()
	}

	// Persistence
	if c.DB != nil {
		c.Store = repository.NewPostgresStore(c.DB.Pool())
	} else {
		c.Store = repository.NewMemoryStore()
	}
	if c.Redis != nil {
		c.Locker = repository.NewRedisLocker(c.Redis, nil)
	} else {
		c.Locker = repository.NewMemoryLocker(nil)
	}

	// Initialize services
	c.EventService = service.NewEventService(c.Store, c.DecisionPublisher)
	c.ResourceService = service.NewResourceService(c.Store)
	c.RSVPService = service.NewRSVPService(c.Store, c.Locker, c.DecisionPublisher, cfg.Admission)
	c.AllocationService = service.NewAllocationService(c.Store, c.Locker, c.DecisionPublisher, cfg.Admission)
	c.CalendarService = service.NewCalendarService(c.Store, cfg.Calendar)

	// Initialize handlers. Typed nils must not leak into the checker interfaces.
	var redisChecker handler.HealthChecker
	if c.Redis != nil {
		redisChecker = c.Redis
	}
	c.Handlers = &handler.Handlers{
		Health:     handler.NewHealthHandler(c.Store, redisChecker),
		Event:      handler.NewEventHandler(c.EventService),
		Resource:   handler.NewResourceHandler(c.ResourceService),
		RSVP:       handler.NewRSVPHandler(c.RSVPService),
		Allocation: handler.NewAllocationHandler(c.AllocationService),
		Calendar:   handler.NewCalendarHandler(c.CalendarService),
	}

	return c
}

// AdmissionConfig maps config.AdmissionConfig onto the service settings
func AdmissionConfig(cfg *config.AdmissionConfig) *service.AdmissionConfig {
	rc := retry.DefaultConfig()
	rc.MaxRetries = cfg.MaxRetries
	if cfg.RetryInitial > 0 {
		rc.InitialInterval = cfg.RetryInitial
	}
	if cfg.RetryMax > 0 {
		rc.MaxInterval = cfg.RetryMax
	}
	return &service.AdmissionConfig{LockTTL: cfg.LockTTL, Retry: rc}
}

// CalendarConfig maps config.AdmissionConfig onto the expansion bounds
func CalendarConfig(cfg *config.AdmissionConfig) *service.CalendarServiceConfig {
	return &service.CalendarServiceConfig{
		MaxInstances:      cfg.MaxInstances,
		MaxWindowDays:     cfg.MaxWindowDays,
		DefaultWindowDays: cfg.DefaultWindowDays,
	}
}

// OpenPostgres connects to PostgreSQL and optionally applies the schema.
// It returns nil without error when the memory driver is configured.
func OpenPostgres(ctx context.Context, cfg *config.DatabaseConfig) (*database.PostgresDB, error) {
	if cfg.Driver == "memory" {
		return nil, nil
	}

	dbCfg := &database.PostgresConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.DBName,
		SSLMode:         cfg.SSLMode,
		MaxConns:        int32(cfg.MaxOpenConns),
		MinConns:        int32(cfg.MaxIdleConns),
		MaxConnLifetime: cfg.ConnMaxLifetime,
		MaxConnIdleTime: cfg.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, repository.Schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("database migration failed: %w", err)
		}
		logger.Get().Info("Database schema applied")
	}

	logger.Get().Info("Database connected",
		zap.Int32("min_conns", dbCfg.MinConns),
		zap.Int32("max_conns", dbCfg.MaxConns),
	)
	return db, nil
}

// OpenRedis connects to Redis when enabled, nil otherwise
func OpenRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client, err := redis.NewClient(ctx, &redis.Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		Password:      cfg.Password,
		DB:            cfg.DB,
		PoolSize:      cfg.PoolSize,
		MinIdleConns:  cfg.MinIdleConns,
		DialTimeout:   cfg.DialTimeout,
		ReadTimeout:   cfg.ReadTimeout,
		WriteTimeout:  cfg.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: 100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Get().Info("Redis connected", zap.String("addr", cfg.Addr()))
	return client, nil
}

// OpenDecisionPublisher connects to Kafka, falling back to the no-op
// publisher when Kafka is disabled or unreachable
func OpenDecisionPublisher(ctx context.Context, cfg *config.KafkaConfig, serviceName string) service.DecisionPublisher {
	if !cfg.Enabled {
		return service.NewNoOpDecisionPublisher()
	}

	pub, err := service.NewKafkaDecisionPublisher(ctx, &service.DecisionPublisherConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.DecisionTopic,
		ServiceName: serviceName,
		ClientID:    cfg.ClientID,
	})
	if err != nil {
		logger.Get().Warn("Kafka connection failed, using no-op publisher", zap.Error(err))
		return service.NewNoOpDecisionPublisher()
	}

	logger.Get().Info("Kafka decision publisher connected", zap.Strings("brokers", cfg.Brokers))
	return pub
}
