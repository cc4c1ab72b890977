package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"admindash/admin-service/internal/app/admin/audit"
	"admindash/admin-service/internal/app/admin/config"
	"admindash/admin-service/internal/app/admin/entity"
	"admindash/admin-service/internal/app/admin/handler"
	"admindash/admin-service/internal/app/admin/processor"
	"admindash/admin-service/internal/app/admin/repository"
	"admindash/admin-service/internal/app/admin/service"
	"admindash/admin-service/internal/app/admin/util"
	"admindash/pkg/logger"
	"admindash/pkg/metrics"
)

const serviceName = "admin-service"

func main() {
	// === ИНИЦИАЛИЗАЦИЯ КОНФИГУРАЦИИ ===
	// Без ключа шифрования локалей сервис не стартует
	cfg, err := config.Load()
	if err != nil {
		logger.Init(serviceName, "info")
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	// === ИНИЦИАЛИЗАЦИЯ ЛОГГЕРА ===
	logger.Init(serviceName, cfg.LogLevel)

	if logstashAddr := os.Getenv("LOGSTASH_ADDR"); logstashAddr != "" {
		if err := logger.InitLogstash(logstashAddr, serviceName, cfg.LogLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", logstashAddr).Msg("Connected to Logstash")
		}
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("encryption_key_source", cfg.Secrets.Source).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL (pgx) ===
	// Дерево категорий работает через pgx напрямую
	pool, err := connectPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := repository.EnsureCategorySchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("Failed to prepare categories schema")
	}
	logger.Info().Msg("Successfully connected to PostgreSQL (pgx)")

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL (gorm) ===
	// Локали и пользователи хранятся через gorm
	db, err := connectGorm(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database via gorm")
	}
	if err := db.AutoMigrate(&entity.Locale{}, &entity.User{}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate locales and users")
	}
	logger.Info().Msg("Successfully migrated locales and users")

	// === ПОДКЛЮЧЕНИЕ К REDIS ===
	// Redis кеширует публичное дерево категорий
	redisClient, err := util.NewRedisClient(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Successfully connected to Redis")

	// === ИНИЦИАЛИЗАЦИЯ KAFKA PRODUCER ===
	// События CATEGORY_CREATED, CATEGORY_UPDATED, CATEGORY_DELETED
	kafkaProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Msg("Successfully initialized Kafka producer")

	// === ЖУРНАЛ АУДИТА ===
	// MongoDB опциональна: без MONGODB_URI записи только в лог
	var recorderOpts []audit.Option
	if cfg.MongoDB.URI != "" {
		mongoClient, err := audit.ConnectMongo(ctx, cfg.MongoDB.URI, 10)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer func() {
			disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer disconnectCancel()
			if err := mongoClient.Disconnect(disconnectCtx); err != nil {
				logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
			}
		}()

		sink := audit.NewMongoSink(mongoClient.Database(cfg.MongoDB.Database), cfg.MongoDB.Collection)
		recorderOpts = append(recorderOpts, audit.WithSink(sink))
		logger.Info().
			Str("database", cfg.MongoDB.Database).
			Str("collection", cfg.MongoDB.Collection).
			Msg("Audit records are written to MongoDB")
	}
	recorder := audit.NewRecorder(!cfg.IsProduction(), recorderOpts...)

	// === ШИФРОВАНИЕ СЕКРЕТОВ ЛОКАЛЕЙ ===
	cipherLog := logger.Component("cipher")
	cipher, err := util.NewSecretCipher(cfg.Secrets.EncryptionSecret,
		util.WithDecryptFailureHook(func(reason string) {
			metrics.RecordDecryptFailure(reason)
			cipherLog.Debug().Str("reason", reason).Msg("Failed to decrypt locale secret")
		}),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize secret cipher")
	}

	// === РЕПОЗИТОРИИ ===
	categoryRepo := repository.NewCategoryRepository(pool)
	localeRepo := repository.NewLocaleRepository(db)
	userRepo := repository.NewUserRepository(db)

	// === БИЗНЕС-ЛОГИКА ===
	categoryService := service.NewCategoryService(categoryRepo, redisClient, kafkaProducer, cfg.Redis.TreeTTL)
	localeService := service.NewLocaleService(localeRepo, cipher, recorder)
	userService := service.NewUserService(userRepo, util.NewBcryptHasher(bcrypt.DefaultCost))

	// === CRON ===
	// Периодически перестраивает кеш публичного дерева
	cronScheduler := processor.NewCronScheduler(categoryService)
	if err := cronScheduler.Start(ctx, cfg.Cron.CategoryRefreshSchedule); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start cron scheduler")
	}
	defer cronScheduler.Stop()

	// === HTTP ===
	router := handler.SetupRoutes(
		handler.NewCategoryHandler(categoryService),
		handler.NewLocaleHandler(localeService),
		handler.NewUserHandler(userService),
		handler.NewAuthMiddleware(cfg.JWT.Secret),
		cfg.Server.CORSOrigins,
	)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting Admin Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Admin Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Незаписанные записи аудита дописываются до закрытия MongoDB
	recorder.Wait()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info().Msg("Admin Service stopped gracefully")
}

// connectPool создает пул pgx с повторными попытками
// При запуске в Docker PostgreSQL может быть еще не готов
func connectPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	var pool *pgxpool.Pool
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to database, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

// connectGorm открывает gorm поверх того же PostgreSQL
// TranslateError превращает нарушение уникальности в gorm.ErrDuplicatedKey
func connectGorm(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}

	var db *gorm.DB
	var err error

	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if err = sqlDB.Ping(); err == nil {
				sqlDB.SetMaxOpenConns(10)
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetConnMaxLifetime(5 * time.Minute)
				sqlDB.SetConnMaxIdleTime(1 * time.Minute)
				return db, nil
			}
		}
		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to database via gorm, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}
