package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/countrycache/countrycache/handlers"
	"github.com/countrycache/countrycache/internal/config"
	countryhandler "github.com/countrycache/countrycache/internal/country/handler"
	"github.com/countrycache/countrycache/internal/country/service"
	"github.com/countrycache/countrycache/internal/report"
	"github.com/countrycache/countrycache/internal/storage"
	"github.com/countrycache/countrycache/internal/upstream"
	"github.com/countrycache/countrycache/pkg/logger"
	"github.com/countrycache/countrycache/pkg/metrics"
	"github.com/countrycache/countrycache/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: store=%s redis=%v rate_limit=%v", cfg.Store.Driver, cfg.Redis.Addr() != "", cfg.RateLimit.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("store: %v", err)
	}
	defer st.close()

	deps := map[string]handlers.Pinger{"store": st.repo}

	// Redis is optional and only used by the shared rate limiter
	var rdb *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
		} else {
			logger.Infof("Connected to Redis: %s", addr)
		}
		if cfg.RateLimit.UseRedis {
			deps["redis"] = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		}
	}

	gen := report.NewGenerator(st.repo, cfg.Report.Dir, cfg.Report.File)
	if mcfg := storage.LoadMinIOConfig(); mcfg.Enabled() {
		mirror, err := storage.NewMinIOStorage(ctx, mcfg)
		if err != nil {
			logger.Warnf("report mirror disabled: %v", err)
		} else {
			gen.WithMirror(mirror)
			logger.Infof("mirroring summary image to bucket %s", mcfg.Bucket)
		}
	}

	refresh := service.NewRefreshService(
		upstream.NewCountryClient(cfg.Upstream.CountriesURL, cfg.Upstream.Timeout),
		upstream.NewRatesClient(cfg.Upstream.RatesURL, cfg.Upstream.Timeout),
		st.repo,
		service.NewEstimator(),
		gen,
	)
	query := service.NewQueryService(st.repo)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Lightweight CORS middleware: set common headers and respond to OPTIONS.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, "+middleware.RequestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	// Global middlewares: recovery + request id + access log
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(logger.L()))

	// Optional global rate limiter (per client IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
			logger.Infof("rate limiter: redis, rps=%.2f burst=%d window=%s", cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
			logger.Infof("rate limiter: memory, rps=%.2f burst=%d", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}

	handlers.NewSystem(deps).Register(r)
	handlers.RegisterSwagger(r)
	countryhandler.New(refresh, query, gen).Register(r)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting country cache service on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Errorf("server failed: %v", err)
		}
	case <-ctx.Done():
		logger.Infof("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("graceful shutdown: %v", err)
	}
}
