// Command chat-server runs the presence and signaling coordinator: the
// websocket hub plus the auth, messaging, and push HTTP API around it.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"chatwave-backend/internal/database"
	authhandler "chatwave-backend/internal/handler/http/auth"
	callhandler "chatwave-backend/internal/handler/http/call"
	messagehandler "chatwave-backend/internal/handler/http/message"
	pushhandler "chatwave-backend/internal/handler/http/push"
	userhandler "chatwave-backend/internal/handler/http/user"
	"chatwave-backend/internal/hub"
	"chatwave-backend/internal/middleware"
	"chatwave-backend/internal/repository/cassandra"
	"chatwave-backend/internal/repository/cockroach"
	redisrepo "chatwave-backend/internal/repository/redis"
	authservice "chatwave-backend/internal/service/auth"
	messageservice "chatwave-backend/internal/service/message"
	pushservice "chatwave-backend/internal/service/push"
	"chatwave-backend/internal/service/storage"
	"chatwave-backend/pkg/constants"
	pkgdatabase "chatwave-backend/pkg/database"
	"chatwave-backend/pkg/env"
	"chatwave-backend/pkg/jwt"
	"chatwave-backend/pkg/logger"
	"chatwave-backend/pkg/metrics"
	"chatwave-backend/pkg/push"
)

func main() {
	if err := logger.Init(logger.ConfigFromEnv()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Fatal("chat-server exited", zap.Error(err))
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New("chat-server")

	// Redis: presence mirror, refresh sessions, push tokens
	redisClient, err := database.NewRedisDB(&database.RedisConfig{
		Host:     env.GetString("REDIS_HOST", "localhost"),
		Port:     env.GetInt("REDIS_PORT", 6379),
		Password: env.GetStringFromFile("REDIS_PASSWORD", ""),
		DB:       env.GetInt("REDIS_DB", 0),
		PoolSize: env.GetInt("REDIS_POOL_SIZE", 10),
		Timeout:  env.GetDuration("REDIS_TIMEOUT", 3*time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()
	if err := redisClient.HealthCheck(ctx); err != nil {
		logger.Warn("redis unavailable at startup, starting degraded", zap.Error(err))
	}
	redisClient.StartHealthCheck(ctx, env.GetDuration("REDIS_HEALTH_INTERVAL", 15*time.Second))

	// CockroachDB: user accounts
	cockroachDB, err := pkgdatabase.NewCockroachDB(ctx, &pkgdatabase.CockroachConfig{
		Host:     env.GetString("COCKROACH_HOST", "localhost"),
		Port:     env.GetInt("COCKROACH_PORT", 26257),
		User:     env.GetString("COCKROACH_USER", "root"),
		Password: env.GetStringFromFile("COCKROACH_PASSWORD", ""),
		Database: env.GetString("COCKROACH_DATABASE", "chatwave"),
		SSLMode:  env.GetString("COCKROACH_SSL_MODE", "disable"),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to cockroachdb: %w", err)
	}
	defer cockroachDB.Close()

	// Cassandra: message history
	cassandraDB, err := pkgdatabase.NewCassandraDB(&pkgdatabase.CassandraConfig{
		Hosts:    strings.Split(env.GetString("CASSANDRA_HOSTS", "localhost"), ","),
		Keyspace: env.GetString("CASSANDRA_KEYSPACE", "chatwave"),
		Username: env.GetString("CASSANDRA_USERNAME", ""),
		Password: env.GetStringFromFile("CASSANDRA_PASSWORD", ""),
		Timeout:  env.GetDuration("CASSANDRA_TIMEOUT", 5*time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to cassandra: %w", err)
	}
	defer cassandraDB.Close()

	// Object storage: message image attachments
	minioClient, err := storage.NewMinioClient(&storage.MinioConfig{
		Endpoint:       env.GetString("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:      env.GetStringFromFile("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey:      env.GetStringFromFile("MINIO_SECRET_KEY", "minioadmin"),
		UseSSL:         env.GetBool("MINIO_USE_SSL", false),
		Bucket:         env.GetString("MINIO_BUCKET", "chatwave-media"),
		PublicEndpoint: env.GetString("MINIO_PUBLIC_ENDPOINT", ""),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to object storage: %w", err)
	}

	providers, err := push.NewProvidersFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("failed to configure push providers: %w", err)
	}

	jwtManager := jwt.NewManager(
		env.MustGetString("JWT_SECRET"),
		env.GetDuration("ACCESS_TOKEN_EXPIRY", constants.AccessTokenExpiry),
		env.GetDuration("REFRESH_TOKEN_EXPIRY", constants.RefreshTokenExpiry),
	)

	// Repositories
	userRepo := cockroach.NewUserRepository(cockroachDB)
	messageRepo := cassandra.NewMessageRepository(cassandraDB)
	presenceRepo := redisrepo.NewPresenceRepository(redisClient, constants.PresenceTTL)
	sessionRepo := redisrepo.NewSessionRepository(redisClient)
	pushTokenRepo := redisrepo.NewPushTokenRepository(redisClient)

	// Hub
	wsHub := hub.New(hub.Config{
		RingTimeout:    env.GetDuration("CALL_RING_TIMEOUT", constants.RingTimeout),
		MaxConnections: env.GetInt("WS_MAX_CONNECTIONS", constants.DefaultMaxConnections),
	}, presenceRepo, m)

	// Services
	authSvc := authservice.NewService(userRepo, sessionRepo, jwtManager)
	pushSvc := pushservice.NewService(pushTokenRepo, providers, m)
	storageSvc := storage.NewService(minioClient)
	messageSvc := messageservice.NewService(messageRepo, wsHub, storageSvc, pushSvc)

	router := buildRouter(m, jwtManager, wsHub, authSvc, messageSvc, pushSvc, storageSvc, redisClient)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", env.GetInt("PORT", 8080)),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chat-server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.GracefulShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func buildRouter(
	m *metrics.Metrics,
	jwtManager *jwt.Manager,
	wsHub *hub.Hub,
	authSvc *authservice.Service,
	messageSvc *messageservice.Service,
	pushSvc *pushservice.Service,
	storageSvc *storage.Service,
	redisClient *database.RedisClient,
) *gin.Engine {
	if env.GetString("GIN_MODE", "release") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.Prometheus(m),
		middleware.CORS(strings.Split(env.GetString("CORS_ALLOWED_ORIGINS", "*"), ",")),
	)

	router.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":         "ok",
			"online":         wsHub.Registry().Count(),
			"calls_active":   wsHub.ActiveCalls(),
			"redis_degraded": redisClient.IsDegraded(),
		}
		c.JSON(http.StatusOK, status)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := middleware.Auth(jwtManager)

	v1 := router.Group("/v1")
	authhandler.NewHandler(authSvc).RegisterRoutes(v1.Group("/auth"), authRequired)
	userhandler.NewHandler(authSvc, storageSvc).RegisterRoutes(v1.Group("/users", authRequired))
	messagehandler.NewHandler(messageSvc).RegisterRoutes(v1.Group("/messages", authRequired))
	callhandler.NewHandler(wsHub).RegisterRoutes(v1.Group("/calls", authRequired))
	pushhandler.NewHandler(pushSvc).RegisterRoutes(v1.Group("/push", authRequired))

	router.GET("/ws", authRequired, wsHub.ServeWS)

	return router
}
