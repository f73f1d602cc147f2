package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/wyfcoding/llcformation/internal/onboarding/application"
	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	trackingcache "github.com/wyfcoding/llcformation/internal/onboarding/infrastructure/cache"
	"github.com/wyfcoding/llcformation/internal/onboarding/infrastructure/messaging"
	"github.com/wyfcoding/llcformation/internal/onboarding/infrastructure/persistence/gormstore"
	"github.com/wyfcoding/llcformation/internal/onboarding/infrastructure/persistence/memory"
	"github.com/wyfcoding/llcformation/internal/onboarding/infrastructure/sender"
	grpchandler "github.com/wyfcoding/llcformation/internal/onboarding/interfaces/grpc"
	httphandler "github.com/wyfcoding/llcformation/internal/onboarding/interfaces/http"
	"github.com/wyfcoding/llcformation/pkg/cache"
	"github.com/wyfcoding/llcformation/pkg/config"
	"github.com/wyfcoding/llcformation/pkg/db"
	"github.com/wyfcoding/llcformation/pkg/logger"
	"github.com/wyfcoding/llcformation/pkg/metrics"
	"github.com/wyfcoding/llcformation/pkg/middleware"
	"github.com/wyfcoding/llcformation/pkg/mq"
	"github.com/wyfcoding/llcformation/pkg/ratelimit"
)

// BootstrapName 服务标识。
const BootstrapName = "onboarding"

// AppContext 应用资源上下文。
type AppContext struct {
	Config     *config.Config
	AppService *application.OnboardingService
	Dispatcher *application.Dispatcher
	Metrics    *metrics.Metrics
	Limiter    ratelimit.RateLimiter
}

func main() {
	configPath := flag.String("config", config.GetEnv("APP_CONFIG", "configs/onboarding.toml"), "config file path")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Fatal(context.Background(), "service bootstrap failed", "error", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config{
		Service:    cfg.ServiceName,
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCtx, cleanup, err := initService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.GinRecovery(), middleware.GinLogging(appCtx.Metrics), middleware.GinCORS())
	registerGin(engine, appCtx)

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	grpcServer := grpc.NewServer(
		grpc.MaxConcurrentStreams(uint32(cfg.GRPC.MaxConcurrentStreams)),
		grpc.ChainUnaryInterceptor(middleware.GRPCRecovery(), middleware.GRPCLogging(appCtx.Metrics)),
	)
	registerGRPC(grpcServer, appCtx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(gctx, "http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if cfg.GRPC.Enabled {
		g.Go(func() error {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr())
			if err != nil {
				return fmt.Errorf("grpc listen: %w", err)
			}
			logger.Info(gctx, "grpc server listening", "addr", cfg.GRPC.Addr())
			return grpcServer.Serve(lis)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "performing graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func registerGRPC(s *grpc.Server, ctx *AppContext) {
	grpchandler.RegisterOnboardingServer(s, grpchandler.NewHandler(ctx.AppService))
}

func registerGin(e *gin.Engine, ctx *AppContext) {
	// 1. 系统路由组 (不限流)
	sys := e.Group("/sys")
	{
		sys.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":    "UP",
				"service":   BootstrapName,
				"timestamp": time.Now().Unix(),
			})
		})
		sys.GET("/ready", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "READY"})
		})
	}

	if ctx.Config.Metrics.Enabled {
		e.GET(ctx.Config.Metrics.Path, gin.WrapH(ctx.Metrics.Handler()))
	}

	// 2. 业务路由，追踪接口无需登录，单独限流
	var trackMiddleware []gin.HandlerFunc
	if ctx.Config.RateLimit.Enabled {
		trackMiddleware = append(trackMiddleware, middleware.RateLimit(ctx.Limiter, ctx.Config.RateLimit))
	}
	httphandler.NewOnboardingHandler(ctx.AppService).RegisterRoutes(e, trackMiddleware...)

	slog.Info("HTTP service configured successfully", "service", BootstrapName)
}

func initService(ctx context.Context, c *config.Config) (*AppContext, func(), error) {
	bootLog := slog.With("module", "bootstrap")
	m := metrics.New(BootstrapName)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// 1. 存储
	var repo domain.ApplicationRepository
	if c.Database.Driver == "memory" {
		bootLog.Warn("using in-memory store, data is lost on restart")
		repo = memory.NewApplicationRepository()
	} else {
		gdb, err := db.Open(db.Config{
			Driver:             c.Database.Driver,
			DSN:                c.Database.DSN,
			MaxOpenConns:       c.Database.MaxOpenConns,
			MaxIdleConns:       c.Database.MaxIdleConns,
			ConnMaxLifetime:    c.Database.ConnMaxLifetime,
			LogEnabled:         c.Database.LogEnabled,
			SlowQueryThreshold: c.Database.SlowQueryThreshold,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("database init failed: %w", err)
		}
		closers = append(closers, func() { _ = db.Close(gdb) })
		store := gormstore.NewApplicationRepository(gdb)
		if err := store.AutoMigrate(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("database migrate failed: %w", err)
		}
		repo = store
	}

	// 2. Redis：追踪号缓存与分布式限流
	var limiter ratelimit.RateLimiter = ratelimit.NewLocalRateLimiter(10 * time.Minute)
	if c.Redis.Enabled {
		redisCache, err := cache.New(cache.Config{
			Host:         c.Redis.Host,
			Port:         c.Redis.Port,
			Password:     c.Redis.Password,
			DB:           c.Redis.DB,
			MaxPoolSize:  c.Redis.MaxPoolSize,
			ConnTimeout:  c.Redis.ConnTimeout,
			ReadTimeout:  c.Redis.ReadTimeout,
			WriteTimeout: c.Redis.WriteTimeout,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("redis init failed: %w", err)
		}
		closers = append(closers, func() { _ = redisCache.Close() })
		repo = trackingcache.NewTrackingCachedRepository(repo, redisCache, time.Duration(c.Onboarding.TrackingCacheTTL)*time.Second)
		limiter = ratelimit.NewRedisRateLimiter(redisCache.GetClient())
	}

	// 3. 事件与通知通道
	var (
		publisher domain.EventPublisher = messaging.LogEventPublisher{}
		notify    domain.Sender         = sender.NewLogSender()
	)
	if c.Kafka.Enabled() {
		producer := mq.NewProducer(mq.KafkaConfig{
			Brokers:        c.Kafka.Brokers,
			GroupID:        c.Kafka.GroupID,
			SessionTimeout: c.Kafka.SessionTimeout,
			MaxRetries:     c.Kafka.MaxRetries,
			RetryBackoff:   c.Kafka.RetryBackoff,
		})
		closers = append(closers, func() { _ = producer.Close() })
		publisher = messaging.NewKafkaEventPublisher(producer, c.Onboarding.EventsTopic)
		notify = sender.NewKafkaSender(producer, c.Onboarding.NotificationsTopic)
	} else if c.SMTP.Host != "" {
		notify = sender.NewSMTPSender(c.SMTP.Host, c.SMTP.Port, c.SMTP.Username, c.SMTP.Password, c.SMTP.From)
	}

	templates, err := application.LoadTemplates(c.Onboarding.TemplatesPath)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("templates init failed: %w", err)
	}

	// 4. 业务组件装配
	bootLog.Info("initializing onboarding service...")
	dispatcher := application.NewDispatcher(notify, publisher, templates, m, c.Onboarding.DispatchWorkers, c.Onboarding.DispatchQueue)
	// dispatcher 先于 producer 关闭，保证排队中的消息写完
	closers = append(closers, func() {
		if err := dispatcher.Close(); err != nil {
			bootLog.Error("dispatcher close failed", "error", err)
		}
	})

	manager := application.NewApplicationManager(
		repo,
		domain.NewTrackingIDGenerator(c.Onboarding.TrackingPrefix),
		domain.NewNotificationTrigger(c.Onboarding.PublicBaseURL),
		dispatcher,
		m,
	)
	query := application.NewApplicationQuery(repo, m)
	staff := application.NewStaffAuthenticator(c.Onboarding.Staff)
	if len(c.Onboarding.Staff) == 0 {
		bootLog.Warn("no staff accounts configured, admin endpoints will reject every request")
	}

	return &AppContext{
		Config:     c,
		AppService: application.NewOnboardingService(manager, query, staff),
		Dispatcher: dispatcher,
		Metrics:    m,
		Limiter:    limiter,
	}, cleanup, nil
}
