// Package main is the identity synchronization daemon. It wires the stores,
// connectors, sync engine and provisioning worker together and serves the
// operator API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/crossidm/idsync/internal/api"
	"github.com/crossidm/idsync/internal/config"
	"github.com/crossidm/idsync/internal/connector"
	ldapconn "github.com/crossidm/idsync/internal/connector/ldap"
	"github.com/crossidm/idsync/internal/crypto"
	"github.com/crossidm/idsync/internal/db"
	"github.com/crossidm/idsync/internal/db/migrations"
	"github.com/crossidm/idsync/internal/dbpool"
	"github.com/crossidm/idsync/internal/script"
	"github.com/crossidm/idsync/internal/service"
	"github.com/crossidm/idsync/internal/store"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 15 * time.Second
	auditQueueSize    = 1000
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("daemon exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	crypt, err := newCryptoService(cfg)
	if err != nil {
		return fmt.Errorf("initializing encryption: %w", err)
	}

	base := store.Base{Pool: pool, Log: log, Crypto: crypt}
	systems := store.NewSystemStore(base)
	identities := store.NewIdentityStore(base)
	roles := store.NewRoleStore(base)
	trees := store.NewTreeStore(base)
	mappings := store.NewMappingStore(base)
	syncConfigs := store.NewSyncConfigStore(base)
	syncLogs := store.NewSyncLogStore(base)
	provisioning := store.NewProvisioningStore(base)
	auditStore := store.NewAuditStore(base)

	connectors := connector.NewRegistry()
	registerConnectors(cfg, connectors, log)

	resolver := service.NewResolver(script.NewEvaluator(), log)

	auditSvc := service.NewAuditService(auditStore, log)
	auditWorker := service.NewAuditWorker(auditSvc, log, auditQueueSize)

	provSvc := service.NewProvisioningService(
		provisioning, systems, connectors, log,
		cfg.RetryBaseDelay, cfg.RetryMaxDelay, cfg.ProvisioningPageSize,
	)

	registry := service.NewExecutorRegistry(
		service.NewIdentityExecutor(systems, identities, provSvc, resolver, log),
		service.NewRoleExecutor(systems, roles, provSvc, resolver, log),
		service.NewTreeExecutor(systems, trees, provSvc, resolver, log),
	)

	syncSvc := service.NewSyncService(service.SyncDeps{
		Configs:    syncConfigs,
		Systems:    systems,
		Mappings:   mappings,
		Accounts:   systems,
		Logs:       syncLogs,
		Registry:   registry,
		Resolver:   resolver,
		Connectors: connectors,
		Audit:      auditWorker,
		Log:        log,
	})

	systemSvc := service.NewSystemService(systems, mappings, auditWorker, log)
	configSvc := service.NewSyncConfigService(syncConfigs, syncSvc, auditWorker, log)
	provWorker := service.NewProvisioningWorker(provSvc, log, cfg.ProvisioningPollInterval)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:          log,
		Pool:         pool,
		Sync:         syncSvc,
		Configs:      configSvc,
		Systems:      systemSvc,
		Provisioning: provSvc,
		Audit:        auditSvc,
		APIKey:       cfg.APIKey.Value(),
		CORSOrigins:  cfg.CORSOrigins,
		Version:      config.Version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		auditWorker.Run(gctx)

		return nil
	})

	g.Go(func() error {
		provWorker.Run(gctx)

		return nil
	})

	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newCryptoService builds the confidential-attribute encryption service from
// the configured key provider.
func newCryptoService(cfg *config.Config) (*crypto.Service, error) {
	switch cfg.EncryptionProvider {
	case "vault":
		return crypto.NewService(crypto.NewVaultProvider(cfg.VaultAddr, cfg.VaultToken.Value())), nil
	default:
		provider, err := crypto.NewStaticProvider(cfg.EncryptionKey.Value())
		if err != nil {
			return nil, err
		}

		return crypto.NewService(provider), nil
	}
}

// registerConnectors wires the statically configured connectors. Systems
// without a registered connector can still be managed; starting a sync for
// them fails with a connector resolution error.
func registerConnectors(cfg *config.Config, reg *connector.Registry, log *logrus.Logger) {
	if cfg.LDAPSystemID == "" {
		return
	}

	reg.Register(cfg.LDAPSystemID, ldapconn.New(ldapconn.Config{
		URL:          cfg.LDAPURL,
		BindDN:       cfg.LDAPBindDN,
		BindPassword: cfg.LDAPBindPassword.Value(),
		BaseDN:       cfg.LDAPBaseDN,
		UIDAttribute: cfg.LDAPUIDAttribute,
		SystemName:   cfg.LDAPSystemID,
	}, log))

	log.WithFields(logrus.Fields{
		"system_id": cfg.LDAPSystemID,
		"url":       cfg.LDAPURL,
	}).Info("ldap connector registered")
}
