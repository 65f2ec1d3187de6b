package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Skotchmaster/tutorial_catalog/internal/config"
	"github.com/Skotchmaster/tutorial_catalog/internal/db"
	"github.com/Skotchmaster/tutorial_catalog/internal/directory"
	"github.com/Skotchmaster/tutorial_catalog/internal/events"
	"github.com/Skotchmaster/tutorial_catalog/internal/hash"
	"github.com/Skotchmaster/tutorial_catalog/internal/logging"
	"github.com/Skotchmaster/tutorial_catalog/internal/mailer"
	"github.com/Skotchmaster/tutorial_catalog/internal/metrics"
	"github.com/Skotchmaster/tutorial_catalog/internal/repo"
	"github.com/Skotchmaster/tutorial_catalog/internal/service"
	"github.com/Skotchmaster/tutorial_catalog/internal/tokens"
)

func loadConfig() config.Config {
	cfg := config.Load()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg
}

func newLogger(cfg config.Config) *slog.Logger {
	return logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
}

// openStore connects to the database and applies migrations.
func openStore(ctx context.Context, cfg config.Config) (*gorm.DB, *repo.GormRepo, error) {
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx, gdb); err != nil {
		_ = db.Close(gdb)
		return nil, nil, err
	}
	return gdb, repo.NewGormRepo(gdb), nil
}

func newHasher(cfg config.Config) (*hash.Bounded, error) {
	alg, err := hash.New(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return hash.NewBounded(alg, cfg.HashConcurrency, hash.WithObserver(metrics.ObservePasswordHash)), nil
}

func newIssuer(cfg config.Config) (*tokens.Issuer, error) {
	var (
		keys tokens.Keys
		err  error
	)
	if cfg.UsesRSA() {
		keys, err = tokens.LoadRSAKeys(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath)
	} else {
		keys, err = tokens.HMACKeys(cfg.JWTSecret)
	}
	if err != nil {
		return nil, fmt.Errorf("jwt keys: %w", err)
	}
	return tokens.NewIssuer(keys, tokens.WithIssuer(cfg.JWTIssuer), tokens.WithSessionTTL(cfg.SessionTTL)), nil
}

func newPublisher(cfg config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Nop{}
	}
	return events.NewProducer(cfg.KafkaBrokers)
}

func newMailer(cfg config.Config, pub events.Publisher) service.Mailer {
	if cfg.MailerTransport == "kafka" {
		return &mailer.Kafka{Publisher: pub, Topic: cfg.KafkaMailTopic}
	}
	return mailer.Log{}
}

// newDirectory returns nil when Elasticsearch is not configured or not reachable.
func newDirectory(ctx context.Context, cfg config.Config, l *slog.Logger) *directory.Elastic {
	if cfg.ESURL == "" {
		return nil
	}
	client, err := directory.NewClient(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
	if err != nil {
		l.Warn("directory_disabled", "reason", "elasticsearch unavailable", "error", err)
		return nil
	}
	el := &directory.Elastic{ES: client, Index: cfg.ESIndex}
	if err := el.EnsureIndex(ctx); err != nil {
		l.Warn("directory_disabled", "reason", "cannot ensure index", "index", cfg.ESIndex, "error", err)
		return nil
	}
	return el
}

type app struct {
	db        *gorm.DB
	repo      *repo.GormRepo
	svc       *service.AuthService
	publisher events.Publisher
}

func (a *app) Close() error {
	var errs []error
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka close: %w", err))
		}
	}
	if a.db != nil {
		if err := db.Close(a.db); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func buildApp(ctx context.Context, cfg config.Config, l *slog.Logger) (*app, error) {
	issuer, err := newIssuer(cfg)
	if err != nil {
		return nil, err
	}
	hasher, err := newHasher(cfg)
	if err != nil {
		return nil, err
	}

	gdb, r, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pub := newPublisher(cfg)
	svc := &service.AuthService{
		Accounts:      r,
		RefreshTokens: r,
		Hasher:        hasher,
		Tokens:        issuer,
		Mailer:        newMailer(cfg, pub),
		Events:        pub,
		Opts: service.Options{
			RefreshTTL:       cfg.RefreshTTL,
			ResetTTL:         cfg.ResetTTL,
			FrontendURL:      cfg.FrontendURL,
			MailFrom:         cfg.MailerFrom,
			ExposeMailStatus: cfg.ExposeMailStatus,
			UserTopic:        cfg.KafkaUserTopic,
		},
	}
	if dir := newDirectory(ctx, cfg, l); dir != nil {
		svc.Directory = dir
		svc.Search = dir
	}

	return &app{db: gdb, repo: r, svc: svc, publisher: pub}, nil
}
