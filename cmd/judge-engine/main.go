package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"codeduel/internal/common/cache"
	commonmw "codeduel/internal/common/http/middleware"
	"codeduel/internal/common/mq"
	"codeduel/internal/judge/backend"
	"codeduel/internal/judge/controller"
	"codeduel/internal/judge/harness"
	"codeduel/internal/judge/language"
	"codeduel/internal/judge/repository"
	"codeduel/internal/judge/service"
	"codeduel/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultConfigPath = "configs/judge_engine.yaml"
	defaultEnvPath    = ".env"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	envPath := flag.String("env", defaultEnvPath, "Path to .env file")
	flag.Parse()

	if err := loadEnvFile(*envPath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}
	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	eng, cleanup, err := buildService(appCfg)
	if err != nil {
		logger.Error(context.Background(), "init judge service failed", zap.Error(err))
		return
	}
	defer cleanup()

	httpServer := buildHTTPServer(appCfg, eng)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "judge engine started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

// engine is the wired judge service plus its optional admission control.
type engine struct {
	svc     controller.JudgeService
	limiter commonmw.RateLimiter
}

// buildService wires the engine. The returned cleanup closes optional clients.
func buildService(appCfg *AppConfig) (*engine, func(), error) {
	var closers []func()
	var limiter commonmw.RateLimiter
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	languages, err := language.NewRegistry(appCfg.Languages)
	if err != nil {
		return nil, cleanup, err
	}
	generator, err := harness.NewGenerator(harness.Options{
		MaxCodeBytes:   appCfg.Judge.MaxCodeBytes,
		InferArchetype: appCfg.Judge.InferArchetype,
	})
	if err != nil {
		return nil, cleanup, err
	}
	client, err := backend.NewClient(appCfg.Backend, nil)
	if err != nil {
		return nil, cleanup, err
	}
	if !client.Configured() {
		logger.Warn(context.Background(), "backend api key is not set, judge requests will report a configuration error",
			zap.String("env", envBackendAPIKey))
	}

	cfg := service.Config{
		Languages:       languages,
		Generator:       generator,
		Backend:         client,
		CaseConcurrency: appCfg.Judge.CaseConcurrency,
		ProblemTimeout:  appCfg.Judge.ProblemTimeout,
		PublishTimeout:  appCfg.Judge.PublishTimeout,
		ProblemCacheTTL: appCfg.Judge.ProblemCacheTTL,
	}

	if appCfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, func() { _ = redisCache.Close() })
		cfg.Problems = repository.NewProblemRepository(redisCache)
		logger.Info(context.Background(), "problem catalog enabled", zap.String("redis", appCfg.Redis.Addr))
		if appCfg.RateLimit.Enabled() {
			limiter = service.NewRateLimitService(redisCache, appCfg.RateLimit.Window, appCfg.Redis.ReadTimeout)
			logger.Info(context.Background(), "rate limit enabled",
				zap.Int("ip_max", appCfg.RateLimit.IPMax),
				zap.Int("route_max", appCfg.RateLimit.RouteMax),
				zap.Duration("window", appCfg.RateLimit.Window),
			)
		}
	}

	if len(appCfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewKafkaProducer(appCfg.Kafka.KafkaConfig)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, func() { _ = producer.Close() })
		cfg.Publisher = repository.NewMQVerdictEventPublisher(producer, appCfg.Kafka.VerdictTopic)
		logger.Info(context.Background(), "verdict events enabled", zap.String("topic", appCfg.Kafka.VerdictTopic))
	}

	svc, err := service.NewService(cfg)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return &engine{svc: svc, limiter: limiter}, cleanup, nil
}

func buildHTTPServer(appCfg *AppConfig, eng *engine) *http.Server {
	return &http.Server{
		Addr:         appCfg.Server.Addr,
		Handler:      buildRouter(appCfg, eng),
		ReadTimeout:  appCfg.Server.ReadTimeout,
		WriteTimeout: appCfg.Server.WriteTimeout,
		IdleTimeout:  appCfg.Server.IdleTimeout,
	}
}

func buildRouter(appCfg *AppConfig, eng *engine) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(commonmw.RequestLogger())
	router.Use(commonmw.CORSMiddleware(*appCfg.CORS))
	router.Use(commonmw.BodyLimit(appCfg.Server.MaxBodyBytes))

	judgeController := controller.NewJudgeController(eng.svc)
	var judgeMiddleware []gin.HandlerFunc
	if eng.limiter != nil {
		judgeMiddleware = append(judgeMiddleware,
			commonmw.RateLimitMiddleware(eng.limiter, "judge", appCfg.RateLimit, judgeController.Reject))
	}
	judgeController.Register(router, judgeMiddleware...)
	return router
}
