package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/plugin/opentelemetry/tracing"

	"inkwell-backend/internal/config"
	"inkwell-backend/internal/data"
	"inkwell-backend/internal/handler"
	"inkwell-backend/internal/middleware"
	"inkwell-backend/internal/observability"
	"inkwell-backend/internal/router"
	"inkwell-backend/internal/service"
	"inkwell-backend/internal/utils"
	"inkwell-backend/pkg/logger"
)

func main() {
	cfgPath := os.Getenv("INKWELL_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/app.yaml"
	}
	// 加载配置
	cfg := config.MustLoad(cfgPath)
	serviceName := cfg.Observability.ServiceName
	if serviceName == "" {
		serviceName = "inkwell-backend"
	}
	environment := cfg.Observability.Environment
	if environment == "" {
		environment = "local"
	}
	log, err := logger.New(cfg.Logging.Level, environment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log = log.With(
		zap.String("service", serviceName),
		zap.String("env", environment),
	)
	log.Info("loaded config", zap.String("path", cfgPath))

	tracingCfg := observability.TracingConfig{
		Enabled:          cfg.Observability.Tracing.Enabled,
		OTLPGrpcEndpoint: cfg.Observability.Tracing.OTLPGrpcEndpoint,
		Insecure:         cfg.Observability.Tracing.Insecure,
		SampleRate:       cfg.Observability.Tracing.SampleRate,
	}
	resourceCfg := observability.ResourceConfig{
		ServiceName: serviceName,
		Environment: environment,
	}
	tracingShutdown, err := observability.SetupTracing(context.Background(), tracingCfg, resourceCfg)
	if err != nil {
		log.Fatal("tracing init failed", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingShutdown(shutdownCtx); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	// 初始化 MySQL
	db, err := data.NewMySQL(cfg.MySQL, log)
	if err != nil {
		log.Fatal("mysql init failed", zap.Error(err))
	}
	if cfg.Observability.Tracing.Enabled {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			log.Warn("gorm tracing plugin init failed", zap.Error(err))
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("mysql db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	log.Info("connected to mysql")

	// 初始化 Redis
	redisClient := data.NewRedis(cfg.Redis)
	if err := data.Ping(context.Background(), redisClient); err != nil {
		log.Fatal("redis ping failed", zap.Error(err))
	}
	defer redisClient.Close()
	if cfg.Observability.Tracing.Enabled {
		if err := redisotel.InstrumentTracing(redisClient); err != nil {
			log.Warn("redis tracing init failed", zap.Error(err))
		}
	}
	log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

	// 初始化 Kafka，未配置 broker 时通知退化为同步落库
	var (
		notifyWriter      *kafka.Writer
		notifyRetryWriter *kafka.Writer
		notifyReader      *kafka.Reader
		notifyRetryReader *kafka.Reader
	)
	if cfg.Kafka.Enabled() {
		notifyWriter = data.NewKafkaWriter(cfg.Kafka, cfg.Kafka.NotificationTopic)
		notifyRetryWriter = data.NewKafkaWriter(cfg.Kafka, cfg.Kafka.RetryTopic)
		notifyReader = data.NewKafkaReader(cfg.Kafka, cfg.Kafka.NotificationTopic, cfg.Kafka.GroupID)
		notifyRetryReader = data.NewKafkaReader(cfg.Kafka, cfg.Kafka.RetryTopic, cfg.Kafka.GroupID+"-retry")
		defer notifyWriter.Close()
		defer notifyRetryWriter.Close()
		defer notifyReader.Close()
		defer notifyRetryReader.Close()
		log.Info("configured kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("notificationTopic", cfg.Kafka.NotificationTopic),
			zap.String("retryTopic", cfg.Kafka.RetryTopic),
			zap.String("groupID", cfg.Kafka.GroupID),
			zap.String("retryGroupID", cfg.Kafka.GroupID+"-retry"),
		)
	} else {
		log.Info("kafka disabled, notifications are written synchronously")
	}

	// 构建 Service Registry（传入统一 logger）
	var commentMetrics *observability.CommentMetrics
	var metricsRegistry *prometheus.Registry
	if cfg.Observability.Metrics.Enabled {
		metricsRegistry = observability.NewMetricsRegistry()
		commentMetrics = observability.NewCommentMetrics(metricsRegistry, serviceName)
	}
	services := service.NewRegistry(
		db,
		redisClient,
		notifyWriter,
		notifyRetryWriter,
		notifyReader,
		notifyRetryReader,
		commentMetrics,
		log,
	)

	// 初始化 Gin 引擎
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.ErrorHandler(log))
	engine.Use(middleware.RequestIDMiddleware(cfg.Observability.Logging.RequestIDHeader))
	// 集成 OpenTelemetry 中间件
	if cfg.Observability.Tracing.Enabled {
		engine.Use(otelgin.Middleware(serviceName))
	}
	if cfg.Observability.Metrics.Enabled {
		metrics := observability.NewHTTPMetrics(metricsRegistry, serviceName)
		engine.Use(metrics.Middleware())
		metricsPath := cfg.Observability.Metrics.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		engine.GET(metricsPath, gin.WrapH(metrics.Handler()))
	}
	engine.Use(middleware.RequestLogger(log))

	uploadDir := cfg.App.ImageUploadDir
	if uploadDir == "" {
		uploadDir = utils.IMAGE_UPLOAD_DIR
	}
	log.Info("configured upload directory", zap.String("path", uploadDir))
	// 注册健康检查端点
	healthHandler := handler.NewHealthHandler(sqlDB, redisClient, cfg.Kafka.Brokers, log)
	engine.GET("/healthz", healthHandler.Healthz)
	engine.GET("/readyz", healthHandler.Readyz)

	router.RegisterRoutes(engine, services, uploadDir, redisClient)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: engine,
	}
	// 启动 HTTP 服务（异步）
	go func() {
		log.Info("starting http server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server run failed", zap.Error(err))
		}
	}()

	// 监听系统信号，执行优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("server shutdown failed", zap.Error(err))
	}
	log.Info("server exited")
}
