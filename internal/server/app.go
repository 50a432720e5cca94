// Package server initializes and runs the vault server. It wires the
// consent, vault, profile, recommendation and privacy components,
// handles graceful shutdown, runs the periodic expiry sweep and serves
// the metrics endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/consentvault/internal/consent"
	"github.com/dmitrijs2005/consentvault/internal/logging"
	"github.com/dmitrijs2005/consentvault/internal/privacy"
	"github.com/dmitrijs2005/consentvault/internal/profile"
	"github.com/dmitrijs2005/consentvault/internal/recommend"
	"github.com/dmitrijs2005/consentvault/internal/server/config"
	"github.com/dmitrijs2005/consentvault/internal/vault"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	storage StorageManager

	Tokens  *consent.Service
	Vault   *vault.Service
	Engine  *recommend.Engine
	Privacy *privacy.Controller
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	var storage StorageManager
	if cfg.DatabaseDSN != "" {
		m, err := NewPostgresStorageManager(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		storage = m
	} else {
		storage = NewInMemoryStorageManager()
	}

	tokens := consent.NewService([]byte(cfg.SecretKey), cfg.MaxTokenTTL, logger)

	overrides := map[vault.Category]time.Duration{}
	if cfg.HistoryTTL > 0 {
		overrides[vault.CategoryShoppingHistory] = cfg.HistoryTTL
	}
	if cfg.BehavioralTTL > 0 {
		overrides[vault.CategoryBehavioralAnalysis] = cfg.BehavioralTTL
	}
	vs := vault.NewService(storage.Vault(), []byte(cfg.MasterKey), overrides, logger)

	engine, err := recommend.NewEngine(recommend.DefaultRules(), recommend.DefaultTemplates(), recommend.DefaultWeights())
	if err != nil {
		return nil, fmt.Errorf("rule table error: %w", err)
	}

	var exporter *privacy.S3Exporter
	if cfg.S3Bucket != "" {
		exporter = privacy.NewS3Exporter(privacy.S3Config{
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Bucket:       cfg.S3Bucket,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		})
	}

	var transitKey []byte
	if cfg.ExportTransitKey != "" {
		transitKey = []byte(cfg.ExportTransitKey)
	}

	controller := privacy.NewController(privacy.Params{
		Tokens:          tokens,
		Vault:           vs,
		Builder:         profile.NewBuilder(profile.DefaultBounds()),
		Logger:          logger,
		TransitKey:      transitKey,
		Exporter:        exporter,
		ProfileCacheTTL: cfg.ProfileCacheTTL,
	})

	return &App{
		config:  cfg,
		logger:  logger,
		storage: storage,
		Tokens:  tokens,
		Vault:   vs,
		Engine:  engine,
		Privacy: controller,
	}, nil
}

// Store writes a record through the vault and drops the user's cached
// profile, which is derived from the vault contents.
func (app *App) Store(ctx context.Context, token string, category vault.Category, payload []byte) (*vault.Record, error) {
	policy, err := app.Vault.Policy(category)
	if err != nil {
		return nil, err
	}
	grant, err := app.Tokens.Verify(ctx, token, policy.WriteScope)
	if err != nil {
		return nil, err
	}

	record, err := app.Vault.Put(ctx, grant, category, payload)
	if err != nil {
		return nil, err
	}
	app.Privacy.InvalidateProfile(grant.UserID)
	return record, nil
}

// Recommendations builds (or reuses) the token owner's profile and runs
// the rule engine over it.
func (app *App) Recommendations(ctx context.Context, token string, rctx recommend.Context, maxN int) ([]recommend.Recommendation, error) {
	p, err := app.Privacy.Profile(ctx, token)
	if err != nil {
		return nil, err
	}
	return app.Engine.Recommend(p, rctx, maxN), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) runSweepLoop(ctx context.Context) {
	ticker := time.NewTicker(app.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := app.Vault.ExpireSweep(ctx, now); err != nil {
				app.logger.Error(ctx, "expiry sweep failed", "error", err)
			}
		}
	}
}

func (app *App) runMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: app.config.MetricsAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runSweepLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runMetricsServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.storage.Close(); err != nil {
		app.logger.Error(ctx, "storage close error", "error", err)
	}
}
