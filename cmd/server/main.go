package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chalkboardhq/chalkboard/internal/api"
	"github.com/chalkboardhq/chalkboard/internal/app"
	"github.com/chalkboardhq/chalkboard/internal/app/maintenance"
	iauth "github.com/chalkboardhq/chalkboard/internal/auth"
	"github.com/chalkboardhq/chalkboard/internal/cache"
	"github.com/chalkboardhq/chalkboard/internal/database"
	"github.com/chalkboardhq/chalkboard/internal/directory"
	"github.com/chalkboardhq/chalkboard/internal/middleware"
	"github.com/chalkboardhq/chalkboard/internal/webhook"
	"github.com/chalkboardhq/chalkboard/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chalkboard-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	dbStore := cache.NewDatabaseStore(db)

	repo, err := directory.NewGormRepository(db)
	if err != nil {
		return fmt.Errorf("initialise directory repository: %w", err)
	}
	directorySvc, err := directory.NewService(cfg.Directory.Service(), repo)
	if err != nil {
		return fmt.Errorf("initialise directory service: %w", err)
	}

	sessions, err := buildSessionVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	var webhooks webhook.Verifier
	if secret := strings.TrimSpace(cfg.Identity.WebhookSecret); secret != "" {
		webhooks, err = webhook.NewHMACVerifier(secret)
		if err != nil {
			return fmt.Errorf("initialise webhook verifier: %w", err)
		}
	} else {
		log.Warn("identity.webhook_secret not configured; webhook ingestion disabled")
	}

	var gate *iauth.GateKeeper
	if cfg.Gate.Enabled {
		gate, err = iauth.NewGateKeeper(cfg.Gate.Password, cfg.Gate.SigningSecret,
			iauth.WithGateTTL(cfg.Gate.TokenTTL))
		if err != nil {
			return fmt.Errorf("initialise password gate: %w", err)
		}
	}

	if cfg.Maintenance.Enabled {
		cleaner := maintenance.NewCleaner(db,
			maintenance.WithSchedule(cfg.Maintenance.Schedule),
			maintenance.WithWebhookEventMaxAge(cfg.Maintenance.WebhookEventMaxAge),
		)
		if err := cleaner.Start(); err != nil {
			return fmt.Errorf("start maintenance jobs: %w", err)
		}
		defer func() {
			stopCtx := cleaner.Stop()
			if err := cleaner.RunOnce(stopCtx); err != nil {
				log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
			}
		}()
	}

	router, err := api.NewRouter(api.Dependencies{
		DB:        db,
		Config:    cfg,
		Directory: directorySvc,
		Sessions:  sessions,
		Webhooks:  webhooks,
		Gate:      gate,
		RateStore: middleware.NewDatabaseRateStore(dbStore),
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

// buildSessionVerifier prefers JWKS discovery against the identity provider
// and falls back to the shared-secret verifier for development setups.
func buildSessionVerifier(ctx context.Context, cfg *app.Config) (iauth.SessionVerifier, error) {
	if issuer := strings.TrimSpace(cfg.Identity.IssuerURL); issuer != "" {
		verifier, err := iauth.NewOIDCVerifier(ctx, issuer)
		if err != nil {
			return nil, fmt.Errorf("initialise session verifier: %w", err)
		}
		return verifier, nil
	}

	if secret := strings.TrimSpace(cfg.Identity.SessionSecret); secret != "" {
		return iauth.NewStaticKeyVerifier(secret)
	}

	return nil, errors.New("identity.issuer_url or identity.session_secret must be configured")
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = cfg.Database.Postgres.Password
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = cfg.Database.MySQL.Password
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("fetch database handle for close", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}
