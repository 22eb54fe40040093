package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/backend"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/config"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/http/handler"
	mw "github.com/FadyMorkos3/VIGIL-sub001/internal/http/middleware"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/livestatus"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/metrics"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/redis"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/service"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/viewmodel"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := parseFlags()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := buildLogger(cfg.LogLevel)
	defer log.Sync()
	log = log.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// --- Live status ---
	client := backend.NewClient(log, backend.Options{BaseURL: cfg.APIURL, RequestTimeout: cfg.Poll.FetchTimeout})
	poller := livestatus.New(log, client, livestatus.Options{
		Interval:        cfg.Poll.Interval,
		FetchTimeout:    cfg.Poll.FetchTimeout,
		RetainOnFailure: cfg.Poll.RetainOnFailure,
		Recorder:        metrics.NewRecorder(reg),
	})
	defer poller.Close()

	roster := service.NewRoster(viewmodel.DefaultRoster)
	if err := service.StartRosterSync(ctx, log, roster, cfg.RosterPath, 0); err != nil {
		log.Fatal("roster sync failed", zap.Error(err))
	}
	dash := service.NewDashboardService(log, poller, roster, viewmodel.Builder{VideoBase: cfg.VideoBaseURL})
	reg.MustRegister(metrics.NewCollector(dash))

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(log, cfg.Redis.Addr, cfg.Redis.DB)
		_ = rdb.Ping(ctx) // diagnostics only; the mirror retries on every change
		repo := redis.NewRepository(log, rdb, cfg.Redis.KeyPrefix)
		defer repo.Close()
		service.StartSnapshotMirror(ctx, log, poller, repo.Snapshots, 0)
	}

	if cfg.Poll.Enabled {
		if err := poller.Start(ctx); err != nil {
			log.Fatal("poller start failed", zap.Error(err))
		}
	}

	// --- HTTP ---
	if !cfg.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = zap.NewStdLog(log.Named("gin")).Writer()
	r := gin.New()
	{
		r.Use(gin.Recovery()) // outermost
		r.Use(mw.RequestID()) // early so every later layer can log it

		if cfg.Dev { // local Vite dev server
			r.Use(cors.New(cors.Config{
				AllowOrigins:  devOrigins(cfg.HTTP.AllowOrigins),
				AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
				AllowHeaders:  []string{"X-Request-ID", "Content-Type"},
				ExposeHeaders: []string{"X-Request-ID", "X-Total-Count", "X-Snapshot-Version"},
				MaxAge:        12 * time.Hour,
			}))
		} else { // behind a TLS-terminating proxy
			if err := r.SetTrustedProxies(append([]string{"127.0.0.1"}, cfg.TrustedProxies...)); err != nil {
				log.Fatal("trusted proxies", zap.Error(err))
			}
			r.Use(secure.New(secure.Config{
				FrameDeny:          true,
				ContentTypeNosniff: true,
				SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
			}))
		}

		r.Use(mw.AccessLog(log.Named("access")))
		r.Use(mw.MaxBodyBytes(1 << 20))
	}

	handler.RegisterRoutes(r.Group("/api"),
		handler.NewDashboardHandler(log, poller, dash),
		handler.NewStreamHandler(log, poller, dash, cfg.HTTP.AllowOrigins),
		mw.LimitConcurrentRequests(cfg.HTTP.MaxConcurrentRequests),
	)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(log.Named("metrics")),
	})))

	httpsrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second, // WebSocket writes set their own deadlines after upgrade
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpsrv.Shutdown(sctx); err != nil {
			log.Warn("server shutdown", zap.Error(err))
		}
	}()

	log.Info("running HTTP server",
		zap.String("addr", httpsrv.Addr),
		zap.String("api_url", cfg.APIURL),
		zap.String("version", config.Version),
	)
	if err := httpsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server closed")
}

// parseFlags handles -v/--version (prints build metadata and exits) and
// returns the -config path.
func parseFlags() string {
	v := flag.Bool("v", false, "print version and exit")
	flag.BoolVar(v, "version", false, "print version and exit")
	path := flag.String("config", "", "path to vigil-dashboard.yaml")
	flag.Parse()

	if *v {
		fmt.Printf("vigil-dashboard %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildDate)
		os.Exit(0)
	}
	return *path
}

func devOrigins(extra []string) []string {
	return append([]string{"http://localhost:5173", "http://localhost:4173", "http://localhost:3000", "http://127.0.0.1:3000"}, extra...)
}

func buildLogger(level string) *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		logConfig.Level = lvl
	}
	return zap.Must(logConfig.Build())
}
