package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	votingrights "assembly/contexts/assembly-governance/voting-rights"
	"assembly/contexts/assembly-governance/voting-rights/adapters/notifications"
	"assembly/contexts/assembly-governance/voting-rights/adapters/otp"
	postgresadapter "assembly/contexts/assembly-governance/voting-rights/adapters/postgres"
	"assembly/contexts/assembly-governance/voting-rights/adapters/storage"
	"assembly/contexts/assembly-governance/voting-rights/adapters/templates"
	workerapp "assembly/contexts/assembly-governance/voting-rights/application/workers"
	"assembly/contexts/assembly-governance/voting-rights/ports"
	"assembly/internal/platform/config"
	"assembly/internal/platform/db"
	"assembly/internal/platform/httpserver"
	"assembly/internal/platform/messaging"
	"assembly/internal/platform/metrics"
	"assembly/internal/platform/telemetry"

	"github.com/google/uuid"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

// changeFeed is satisfied by messaging.Bus and messaging.NATS.
type changeFeed interface {
	ports.EventPublisher
	ports.EventSubscriber
}

type APIApp struct {
	server       *httpserver.Server
	core         *core
	liveTally    *workerapp.LiveTallyConsumer
	// quorum is only wired when a shared change feed is configured.
	quorum       *workerapp.QuorumInvalidationConsumer
	// relay feeds the in-process bus when no shared change feed exists.
	relay        *workerapp.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

type WorkerApp struct {
	core         *core
	// outboxRelay is only wired when a shared change feed is configured;
	// otherwise the api process relays to its own subscribers.
	outboxRelay  *workerapp.OutboxRelay
	expirer      workerapp.SignatureExpirer
	pollInterval time.Duration
	logger       *slog.Logger
}

// core holds what both processes share: database, module and telemetry.
type core struct {
	cfg             config.Config
	database        *db.Database
	repository      *postgresadapter.Repository
	module          votingrights.Module
	metrics         *metrics.Recorder
	feed            changeFeed
	closers         []func() error
	shutdownTracing func(context.Context) error
	logger          *slog.Logger
}

func BuildAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	logger = processLogger(logger, cfg, "api")
	c, err := buildCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	auth := httpserver.Authenticator{
		Secret:           []byte(cfg.Auth.JWTSecret),
		Issuer:           cfg.Auth.JWTIssuer,
		AllowHeaderActor: cfg.Auth.AllowHeaderActor,
	}
	if len(auth.Secret) == 0 && !auth.AllowHeaderActor {
		_ = c.Close()
		return nil, errors.New("auth: jwtSecret is required unless allowHeaderActor is enabled")
	}

	clock := postgresadapter.SystemClock{}
	// Every replica holds its own cache and live tally, so each needs its
	// own consumer group.
	replica := uuid.NewString()
	liveTally := &workerapp.LiveTallyConsumer{
		Subscriber:    c.feed,
		Dedup:         c.repository,
		Votes:         c.repository,
		Clock:         clock,
		ConsumerGroup: "voting-rights-live-tally-" + replica,
		DedupTTL:      cfg.Worker.DedupTTL,
		Logger:        logger,
	}
	c.module.Handler.Tally.Live = liveTally

	app := &APIApp{
		server:       httpserver.New(c.module, auth, c.metrics.Handler(), logger, normalizeAddr(cfg.HTTPPort)),
		core:         c,
		liveTally:    liveTally,
		pollInterval: cfg.Worker.PollInterval,
		logger:       logger,
	}
	if c.sharedFeed() {
		app.quorum = &workerapp.QuorumInvalidationConsumer{
			Subscriber:    c.feed,
			Cache:         c.module.QuorumCache,
			ConsumerGroup: "voting-rights-quorum-" + replica,
			Logger:        logger,
		}
	} else {
		app.relay = c.outboxRelay(clock)
	}
	return app, nil
}

func BuildWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	logger = processLogger(logger, cfg, "worker")
	c, err := buildCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	clock := postgresadapter.SystemClock{}
	app := &WorkerApp{
		core: c,
		expirer: workerapp.SignatureExpirer{
			Signatures: c.repository,
			Delegation: c.module.Handler.Delegations,
			Clock:      clock,
			BatchSize:  cfg.Worker.BatchSize,
			Logger:     logger,
		},
		pollInterval: cfg.Worker.PollInterval,
		logger:       logger,
	}
	if c.sharedFeed() {
		app.outboxRelay = c.outboxRelay(clock)
	}
	return app, nil
}

// Migrate creates or updates the schema and exits.
func Migrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger = processLogger(logger, cfg, "migrate")
	database, err := db.Connect(ctx, cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := postgresadapter.Migrate(ctx, database.DB); err != nil {
		return err
	}
	logger.Info("schema migrated",
		"event", "bootstrap_schema_migrated",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"driver", cfg.Database.Driver,
	)
	return nil
}

func buildCore(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *core, err error) {
	c := &core{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	c.shutdownTracing, err = telemetry.Setup(ctx, telemetry.Options{
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Stdout:       cfg.Telemetry.Stdout,
		SampleRatio:  cfg.Telemetry.SampleRatio,
	}, logger)
	if err != nil {
		return nil, err
	}

	c.database, err = db.Connect(ctx, cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := postgresadapter.Migrate(ctx, c.database.DB); err != nil {
			return nil, err
		}
	}

	artifacts, err := c.buildArtifacts(ctx)
	if err != nil {
		return nil, err
	}
	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load message templates: %w", err)
	}
	if err := c.buildFeed(); err != nil {
		return nil, err
	}

	c.repository = postgresadapter.NewRepository(c.database.DB, postgresadapter.SystemClock{}, logger)
	c.metrics = metrics.New()
	c.module = votingrights.NewModule(votingrights.Dependencies{
		Repository:     c.repository,
		Notifications:  c.buildNotifications(),
		Templates:      renderer,
		Artifacts:      artifacts,
		OTP:            otp.Generator{},
		Clock:          postgresadapter.SystemClock{},
		IDGen:          postgresadapter.UUIDGenerator{},
		Metrics:        c.metrics,
		OTPTTL:         cfg.Delegation.OTPTTL,
		MaxOTPAttempts: cfg.Delegation.MaxOTPAttempts,
		QuorumCacheTTL: cfg.Quorum.CacheTTL,
		Logger:         logger,
	})
	return c, nil
}

func (c *core) buildArtifacts(ctx context.Context) (ports.ArtifactStorage, error) {
	cfg := c.cfg.Artifacts
	switch cfg.Backend {
	case "gcs":
		gcs, err := storage.NewGCS(ctx, storage.GCSConfig{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			CredentialsFile: cfg.CredentialsFile,
		}, c.logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, gcs.Close)
		return gcs, nil
	case "s3":
		return storage.NewS3(ctx, storage.S3Config{
			Bucket: cfg.Bucket,
			Prefix: cfg.Prefix,
			Region: cfg.Region,
		}, c.logger)
	default:
		return storage.NewMemory(), nil
	}
}

func (c *core) buildNotifications() ports.NotificationGateway {
	cfg := c.cfg.Notifications
	if strings.TrimSpace(cfg.WebhookURL) == "" {
		return notifications.NewLog(c.logger)
	}
	return notifications.NewWebhook(notifications.WebhookConfig{
		URL:      cfg.WebhookURL,
		Token:    cfg.WebhookToken,
		RetryMax: cfg.RetryMax,
		Timeout:  cfg.Timeout,
	}, c.logger)
}

// sharedFeed reports whether events cross process boundaries.
func (c *core) sharedFeed() bool {
	return strings.TrimSpace(c.cfg.NATS.URL) != ""
}

func (c *core) outboxRelay(clock ports.Clock) *workerapp.OutboxRelay {
	return &workerapp.OutboxRelay{
		Outbox:    c.repository,
		Publisher: c.feed,
		Clock:     clock,
		BatchSize: c.cfg.Worker.BatchSize,
		Logger:    c.logger,
	}
}

func (c *core) buildFeed() error {
	if !c.sharedFeed() {
		bus := messaging.NewBus(c.logger)
		c.feed = bus
		c.closers = append(c.closers, func() error {
			bus.Wait()
			return nil
		})
		return nil
	}
	nc, err := messaging.NewNATS(c.cfg.NATS.URL, c.cfg.NATS.SubjectPrefix, c.logger)
	if err != nil {
		return err
	}
	c.feed = nc
	c.closers = append(c.closers, nc.Close)
	return nil
}

// Close releases resources in reverse construction order.
func (c *core) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	if c.shutdownTracing != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, c.shutdownTracing(shutdownCtx))
		cancel()
	}
	if c.database != nil {
		errs = append(errs, c.database.Close())
	}
	return errors.Join(errs...)
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.quorum != nil {
		if err := a.quorum.Start(ctx); err != nil {
			return err
		}
	}
	if err := a.liveTally.Start(ctx); err != nil {
		return err
	}
	if a.relay != nil {
		relayCtx, stopRelay := context.WithCancel(ctx)
		relayDone := make(chan struct{})
		go func() {
			defer close(relayDone)
			pollLoop(relayCtx, pollInterval(a.pollInterval), a.relay.RunOnce)
		}()
		defer func() {
			stopRelay()
			<-relayDone
		}()
	}
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"in_process_relay", a.relay != nil,
	)
	return a.server.Start(ctx)
}

func (a *APIApp) Close() error {
	return a.core.Close()
}

func (w *WorkerApp) Run(ctx context.Context) error {
	interval := pollInterval(w.pollInterval)
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", interval.String(),
		"relay", w.outboxRelay != nil,
	)
	pollLoop(ctx, interval, func(ctx context.Context) error {
		// Both steps log their own failures; the next tick retries.
		_ = w.expirer.RunOnce(ctx)
		if w.outboxRelay != nil {
			_ = w.outboxRelay.RunOnce(ctx)
		}
		return nil
	})
	return nil
}

func (w *WorkerApp) Close() error {
	return w.core.Close()
}

// pollLoop runs step immediately and then on every tick until ctx ends.
// step logs its own failures.
func pollLoop(ctx context.Context, interval time.Duration, step func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		_ = step(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func pollInterval(configured time.Duration) time.Duration {
	if configured <= 0 {
		return 2 * time.Second
	}
	return configured
}

func processLogger(logger *slog.Logger, cfg config.Config, process string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("service", cfg.ServiceName, "process", process)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
