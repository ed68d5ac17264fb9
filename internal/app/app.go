// Package app arma el servicio completo a partir de la configuración:
// store, cache, gateway de identidad, servicios de dominio y servidor
// HTTP. Es el único lugar donde se conocen todos los constructores.
package app

import (
	"context"
	"fmt"

	rdb "github.com/redis/go-redis/v9"

	"github.com/linguala/linguala/internal/auth"
	"github.com/linguala/linguala/internal/cache"
	"github.com/linguala/linguala/internal/config"
	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/email"
	"github.com/linguala/linguala/internal/http/router"
	httpserver "github.com/linguala/linguala/internal/http/server"
	"github.com/linguala/linguala/internal/idp"
	"github.com/linguala/linguala/internal/idp/dev"
	"github.com/linguala/linguala/internal/idp/facebook"
	"github.com/linguala/linguala/internal/idp/github"
	"github.com/linguala/linguala/internal/idp/google"
	"github.com/linguala/linguala/internal/idp/rest"
	"github.com/linguala/linguala/internal/jwt"
	"github.com/linguala/linguala/internal/lessons"
	"github.com/linguala/linguala/internal/metrics"
	"github.com/linguala/linguala/internal/observability/logger"
	"github.com/linguala/linguala/internal/rate"
	"github.com/linguala/linguala/internal/reconcile"
	"github.com/linguala/linguala/internal/sessionlog"
	"github.com/linguala/linguala/internal/store"
	"github.com/linguala/linguala/internal/store/core"
	syncsvc "github.com/linguala/linguala/internal/sync"
	"github.com/linguala/linguala/internal/users"
)

// App es el servicio armado y listo para correr.
type App struct {
	Config   *config.Config
	Repo     core.Repository
	Cache    cache.Client
	Recorder *sessionlog.Recorder
	Server   *httpserver.Server
}

// New construye la aplicación. No arranca el servidor; eso es Run.
func New(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "linguala",
		Version:     version,
	})

	if err := metrics.Register(nil); err != nil {
		return nil, fmt.Errorf("app: metrics: %w", err)
	}

	cacheClient, err := cache.New(cache.Config{
		Driver:     cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: config.Duration(cfg.Cache.Memory.DefaultTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("app: cache: %w", err)
	}

	repo, err := newRepository(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("app: store: %w", err)
	}

	secret := []byte(cfg.JWT.Secret)
	if len(secret) == 0 {
		// Solo llega acá fuera de prod; Load lo rechaza en prod.
		secret = []byte("linguala-dev-secret-no-usar-en-prod")
	}

	var accounts idp.AccountAPI
	switch cfg.IDP.Backend {
	case "rest":
		accounts = rest.New(cfg.IDP.Endpoint, cfg.IDP.APIKey)
	default:
		accounts = dev.New()
	}

	gw := idp.New(idp.Deps{
		Accounts: accounts,
		Clients:  socialClients(cfg),
		Cache:    cacheClient,
		State: &idp.StateSigner{
			Secret: secret,
			Issuer: cfg.JWT.Issuer,
			TTL:    config.Duration(cfg.IDP.FlowTTL),
		},
		CredentialTTL: config.Duration(cfg.IDP.CredentialTTL),
		FlowTTL:       config.Duration(cfg.IDP.FlowTTL),
	})

	syncer := syncsvc.New(repo)
	recorder := sessionlog.New(repo, 0)

	var notifier reconcile.Notifier
	if cfg.SMTP.Host != "" {
		sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
		sender.TLSMode = cfg.SMTP.TLS
		sender.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
		notifier = email.NewLinkNotifier(sender)
	}

	reconciler := reconcile.New(reconcile.Deps{
		Gateway:  gw,
		Sync:     syncer,
		Recorder: recorder,
		Cache:    cacheClient,
		Notifier: notifier,
		FlowTTL:  config.Duration(cfg.IDP.CredentialTTL),
	})

	issuer := jwt.NewIssuer(cfg.JWT.Issuer, secret)
	issuer.AccessTTL = config.Duration(cfg.JWT.AccessTTL)

	authSvc := auth.New(auth.Deps{
		Gateway:   gw,
		Sync:      syncer,
		Recorder:  recorder,
		Reconcile: reconciler,
		Issuer:    issuer,
		Repo:      repo,
	})

	handler := router.New(router.Deps{
		Auth:        authSvc,
		Reconcile:   reconciler,
		Lessons:     lessons.New(repo),
		Users:       users.New(repo),
		Recorder:    recorder,
		Issuer:      issuer,
		Repo:        repo,
		Cache:       cacheClient,
		AuthLimiter: newAuthLimiter(cfg),
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Version:     version,
	})

	srv := httpserver.New(httpserver.Config{Addr: cfg.Server.Addr}, handler)

	return &App{
		Config:   cfg,
		Repo:     repo,
		Cache:    cacheClient,
		Recorder: recorder,
		Server:   srv,
	}, nil
}

// Run bloquea hasta que ctx se cancele o el servidor falle.
func (a *App) Run(ctx context.Context) error {
	log := logger.L().With(logger.Component("app"))
	log.Info("servidor iniciando",
		logger.String("addr", a.Config.Server.Addr),
		logger.String("storage", a.Config.Storage.Driver),
		logger.String("cache", a.Config.Cache.Kind),
	)
	return a.Server.Run(ctx)
}

// Close drena el recorder de sesiones y cierra las conexiones.
func (a *App) Close(ctx context.Context) error {
	var first error
	if err := a.Recorder.Flush(ctx); err != nil && first == nil {
		first = err
	}
	if err := a.Cache.Close(); err != nil && first == nil {
		first = err
	}
	if err := a.Repo.Close(ctx); err != nil && first == nil {
		first = err
	}
	return first
}

func newRepository(ctx context.Context, cfg *config.Config) (core.Repository, error) {
	var sc store.Config
	sc.Driver = cfg.Storage.Driver
	sc.Mongo.URI = cfg.Storage.Mongo.URI
	sc.Mongo.Database = cfg.Storage.Mongo.Database
	sc.Postgres.DSN = cfg.Storage.Postgres.DSN
	return store.New(ctx, sc)
}

func socialClients(cfg *config.Config) map[string]idp.SocialClient {
	clients := make(map[string]idp.SocialClient)
	if p := cfg.Providers.Google; p.Enabled {
		clients[types.ProviderGoogle] = google.New(p.ClientID, p.ClientSecret, p.RedirectURL)
	}
	if p := cfg.Providers.Facebook; p.Enabled {
		clients[types.ProviderFacebook] = facebook.New(p.ClientID, p.ClientSecret, p.RedirectURL)
	}
	if p := cfg.Providers.GitHub; p.Enabled {
		clients[types.ProviderGitHub] = github.New(p.ClientID, p.ClientSecret, p.RedirectURL)
	}
	return clients
}

// newAuthLimiter arma el limiter según el backend de cache. El de
// Redis usa su propia conexión; comparte Addr/DB con el cache.
func newAuthLimiter(cfg *config.Config) rate.Limiter {
	if !cfg.Rate.Enabled {
		return nil
	}
	window := config.Duration(cfg.Rate.Window)
	if cfg.Cache.Kind == "redis" {
		client := rdb.NewClient(&rdb.Options{
			Addr: cfg.Cache.Redis.Addr,
			DB:   cfg.Cache.Redis.DB,
		})
		return rate.NewRedisLimiter(client, cfg.Cache.Redis.Prefix+"rl:", cfg.Rate.Limit, window)
	}
	return rate.NewMemoryLimiter(cfg.Rate.Limit, window)
}
