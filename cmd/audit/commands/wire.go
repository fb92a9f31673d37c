package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/wonny/crisis-audit/internal/audit"
	"github.com/wonny/crisis-audit/internal/auditconfig"
	"github.com/wonny/crisis-audit/internal/brain"
	"github.com/wonny/crisis-audit/internal/collector"
	"github.com/wonny/crisis-audit/internal/external/fred"
	"github.com/wonny/crisis-audit/internal/external/sheets"
	"github.com/wonny/crisis-audit/internal/external/treasury"
	"github.com/wonny/crisis-audit/internal/external/yahoo"
	"github.com/wonny/crisis-audit/internal/metrics"
	"github.com/wonny/crisis-audit/internal/narrative"
	"github.com/wonny/crisis-audit/pkg/config"
	"github.com/wonny/crisis-audit/pkg/database"
	"github.com/wonny/crisis-audit/pkg/httputil"
	"github.com/wonny/crisis-audit/pkg/logger"
	"github.com/wonny/crisis-audit/pkg/redis"
)

// app every long-lived dependency of one CLI invocation
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	audit    *auditconfig.Config
	lang     narrative.Language
	db       *database.DB // nil without DATABASE_URL
	repo     *audit.Repository
	redis    *redis.Client
	metrics  *metrics.Registry
	brain    *brain.Orchestrator
	warnings []auditconfig.Warning
}

// buildApp wires config → clients → collector → store → orchestrator
func buildApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if auditConfigPath != "" {
		cfg.Audit.ConfigPath = auditConfigPath
	}
	if language != "" {
		cfg.Audit.Language = language
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	lang, err := narrative.ParseLanguage(cfg.Audit.Language)
	if err != nil {
		return nil, err
	}

	// 3. Audit configuration
	auditCfg, raw, err := auditconfig.Load(cfg.Audit.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load audit config %s: %w", cfg.Audit.ConfigPath, err)
	}
	runSnap, err := auditconfig.NewRunSnapshot(auditCfg, raw, cfg.Audit.GitCommit)
	if err != nil {
		return nil, fmt.Errorf("hash audit config: %w", err)
	}
	a := &app{cfg: cfg, log: log, audit: auditCfg, lang: lang, warnings: auditconfig.Warn(auditCfg)}
	for _, w := range a.warnings {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	// 4. Redis cache (no-op when disabled)
	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, caching disabled")
		a.redis = redis.Disabled()
	}

	// 5. Run store
	var store audit.Store = audit.NewMemoryStore(cfg.Audit.HistoryCap)
	db, err := database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		log.Info("DATABASE_URL not set, keeping run history in memory")
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		if err := audit.Migrate(ctx, db); err != nil {
			db.Close()
			a.Close()
			return nil, err
		}
		a.db = db
		a.repo = audit.NewRepository(db.Pool)
		store = a.repo
	}

	// 6. Collector
	var col brain.Collector
	source := audit.SourceLive
	if demoMode {
		col = collector.NewDemo(auditCfg)
		source = audit.SourceDemo
	} else {
		httpClient := httputil.New(cfg, log)
		col = collector.New(auditCfg, collector.Sources{
			Market:   yahoo.NewClient(httpClient, log, cfg.Yahoo.ChartURL, cfg.Yahoo.FundamentalsURL),
			Rates:    fred.NewClient(httpClient, log, cfg.FRED.BaseURL, cfg.FRED.APIKey),
			Auctions: treasury.NewClient(httpClient, log, cfg.Treasury.AuctionURL),
			Sheets:   sheets.NewClient(httpClient, log, cfg.Sheets.ConfigCSVURL, cfg.Sheets.LiquidityCSVURL),
		}, redis.NewCache(a.redis, "crisis-audit"), log)
	}

	// 7. Orchestrator
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}
	a.brain = brain.NewOrchestrator(auditCfg, runSnap, col, store, log, brain.Options{
		Metrics: a.metrics,
		Source:  source,
	})

	return a, nil
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// metricsHandler returns nil when METRICS_ENABLED=false
func (a *app) metricsHandler() http.Handler {
	if a.metrics == nil {
		return nil
	}
	return a.metrics.Handler()
}
