package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "portal_gateway/api/v1"
	"portal_gateway/internal/apiclient"
	"portal_gateway/internal/cache"
	"portal_gateway/internal/config"
	"portal_gateway/internal/db"
	"portal_gateway/internal/locale"
	"portal_gateway/internal/metrics"
	"portal_gateway/internal/portal"
	"portal_gateway/internal/session"
	"portal_gateway/internal/tenant"
	"portal_gateway/internal/upstream"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to INI config file (env overrides it)")
	flag.Parse()

	// 1. Load configuration
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromINI(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	logger := newLogger(cfg)
	log := logger.WithField("component", "main")
	log.WithFields(logrus.Fields{
		"env":           cfg.AppEnv,
		"tenant_source": cfg.Tenant.Source,
		"session_mode":  cfg.Session.Mode,
	}).Info("Configuration loaded")

	// 2. Tenant lookup
	resolver, closeResolver, err := buildResolver(cfg, logger)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize tenant lookup")
	}
	defer closeResolver()

	// 3. Sessions
	var (
		checker session.Checker
		tokens  *session.JWTChecker
	)
	switch cfg.Session.Mode {
	case config.SessionModeJWT:
		tokens, err = session.NewJWTChecker(cfg.Session.Cookie, cfg.Session.JWTSecret, cfg.Session.JWTIssuer, logger)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize session checker")
		}
		checker = tokens
	default:
		checker = session.NewCookieChecker(cfg.Session.Cookie)
	}

	// 4. Page router
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	negotiator, err := locale.NewPathNegotiator(locale.Options{
		Locales:   cfg.Locale.Locales,
		Default:   cfg.Locale.Default,
		Detection: cfg.Locale.Detection,
		Cookie:    cfg.Locale.Cookie,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize locale negotiation")
	}

	router, err := portal.New(portal.Options{
		ProtectedPaths:  cfg.Router.ProtectedPaths,
		AuthPages:       cfg.Router.AuthPages,
		LoginPath:       cfg.Router.LoginPath,
		Templates:       cfg.Router.Templates,
		DefaultTemplate: cfg.Router.DefaultTemplate,
		TemplateCookie:  cfg.Router.TemplateCookie,
		TemplateHeader:  cfg.Router.TemplateHeader,
		TemplateParam:   cfg.Router.TemplateParam,
		SkipPrefixes:    cfg.Router.SkipPrefixes,
		Production:      cfg.IsProduction(),
		LookupTimeout:   cfg.LookupTimeout(),
	}, negotiator, checker, resolver, logger, metrics.NewRouterMetrics(registry))
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize router")
	}

	// 5. Upstreams
	renderProxy, err := upstream.NewRenderProxy(cfg.Upstream.Render, cfg.UpstreamTimeout(), logger)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize render upstream")
	}
	var apiProxy *upstream.Proxy
	if cfg.Upstream.API != "" {
		apiProxy, err = upstream.NewAPIProxy(cfg.Upstream.API, cfg.Upstream.APIPrefix, cfg.UpstreamTimeout(), logger)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize API upstream")
		}
	}

	// 6. HTTP server
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	deps := v1.Deps{
		Config:   cfg,
		Router:   router,
		Render:   renderProxy,
		API:      apiProxy,
		Gatherer: registry,
		Logger:   logger,
	}
	// A nil *JWTChecker must not become a non-nil interface
	if tokens != nil {
		deps.Tokens = tokens
	}
	v1.SetupRouter(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	log.Info("Server stopped")
}

func newLogger(cfg *config.Config) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Log.Format == "json" || (cfg.Log.Format == "" && cfg.IsProduction()) {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logrus.NewEntry(logger)
}

// buildResolver assembles host lookup: the static table always answers
// first, then the configured source, optionally behind Redis.
func buildResolver(cfg *config.Config, logger *logrus.Entry) (tenant.Resolver, func(), error) {
	var (
		closers []func()
		dynamic tenant.Resolver
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Tenant.Source {
	case config.TenantSourceDB:
		gdb, err := db.Open(cfg.MySQL.DSN)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() { _ = db.Close(gdb) })
		if cfg.Migrate {
			if err := db.Migrate(gdb, logger); err != nil {
				closeAll()
				return nil, func() {}, err
			}
		}
		dynamic = tenant.NewStoreResolver(gdb)

	case config.TenantSourceAPI:
		client := apiclient.New(apiclient.Options{
			BaseURL: cfg.Tenant.MerchantAPI.URL,
			Timeout: time.Duration(cfg.Tenant.MerchantAPI.TimeoutMs) * time.Millisecond,
			Token:   cfg.Tenant.MerchantAPI.Token,
		})
		dynamic = tenant.NewRemoteResolver(client)
	}

	static := tenant.NewStaticResolver(cfg.Tenant.HostTemplates)
	if dynamic == nil {
		return static, closeAll, nil
	}

	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		rdb, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		dynamic = tenant.NewCachedResolver(dynamic, rdb, cfg.CacheTTL(), logger)
	}

	return tenant.Chain{static, dynamic}, closeAll, nil
}
