package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"fursaver-site/internal/config"
	"fursaver-site/internal/conversation"
	"fursaver-site/internal/detection"
	"fursaver-site/internal/ingestion"
	"fursaver-site/internal/logger"
	"fursaver-site/internal/observer"
	"fursaver-site/internal/screening"
	"fursaver-site/internal/site"
	"fursaver-site/internal/storage"
	"fursaver-site/internal/transport"
	"fursaver-site/internal/workerpool"
)

// archiveTimeout bounds a single report upload
const archiveTimeout = 30 * time.Second

// Container holds all application dependencies
type Container struct {
	config        *config.Config
	metrics       *observer.MetricsObserver
	archivePool   *workerpool.WorkerPool
	workspaces    *storage.SessionStore[*screening.Workspace]
	conversations *storage.SessionStore[*conversation.Session]
	handler       http.Handler
}

// NewContainer wires the application from cfg
func NewContainer(cfg *config.Config) (*Container, error) {
	metrics := observer.NewMetricsObserver()
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	archivePool, archiver, err := newArchiver(cfg, publisher)
	if err != nil {
		return nil, err
	}

	workspaces := storage.NewSessionStore[*screening.Workspace](cfg.Session.TTL)
	conversations := storage.NewSessionStore[*conversation.Session](cfg.Session.TTL)

	screenings := screening.NewService(
		workspaces,
		ingestion.NewIngester(cfg.MaxUploadSize),
		detection.NewClient(cfg.Detection.Endpoint, cfg.Detection.Timeout),
		cfg.Detection.APIKey,
		publisher,
		archiver,
	)
	chats := conversation.NewService(
		conversations,
		conversation.NewClient(conversation.ClientConfig{
			BaseURL:      cfg.Conversation.BaseURL,
			APIKey:       cfg.Conversation.APIKey,
			Model:        cfg.Conversation.Model,
			SystemPrompt: cfg.Conversation.SystemPrompt,
			Timeout:      cfg.Conversation.Timeout,
		}),
		publisher,
	)

	content, err := site.LoadContent()
	if err != nil {
		return nil, err
	}

	handler, err := transport.NewHandler(transport.Dependencies{
		Screenings:    screenings,
		Conversations: chats,
		Metrics:       metrics,
		ArchivePool:   archivePool,
		Content:       content,
	}, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build handler: %w", err)
	}

	return &Container{
		config:        cfg,
		metrics:       metrics,
		archivePool:   archivePool,
		workspaces:    workspaces,
		conversations: conversations,
		handler:       handler,
	}, nil
}

func newArchiver(cfg *config.Config, publisher observer.Subject) (*workerpool.WorkerPool, screening.Archiver, error) {
	if !cfg.Archive.Enabled() {
		logger.Info("Report archive disabled")
		return nil, screening.NoopArchiver(), nil
	}

	blobs, err := storage.NewAzureStorage(cfg.Archive.Account, cfg.Archive.Key, cfg.Archive.Container)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init report archive: %w", err)
	}

	pool := workerpool.NewWorkerPool(cfg.Archive.Workers)
	pool.Start()
	return pool, screening.NewBlobArchiver(pool, blobs, publisher, archiveTimeout), nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// RunSweepers expires idle workspaces and conversations until ctx is done
func (c *Container) RunSweepers(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	interval := c.config.Session.SweepInterval

	g.Go(func() error {
		return c.workspaces.Run(ctx, interval, logSweep("screenings"))
	})
	g.Go(func() error {
		return c.conversations.Run(ctx, interval, logSweep("conversations"))
	})
	return g.Wait()
}

// Close drains pending archive uploads
func (c *Container) Close() {
	if c.archivePool == nil {
		return
	}
	c.archivePool.Close()
	c.archivePool.Wait()
}

func logSweep(kind string) func(int) {
	return func(removed int) {
		if removed > 0 {
			logger.WithField("kind", kind).WithField("removed", removed).Debug("Expired idle sessions")
		}
	}
}
