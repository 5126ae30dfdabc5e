package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// Publisher delivers one notification event to the broker.
type Publisher interface {
	PublishNotification(ctx context.Context, event amqp.NotificationEvent) error
}

// Outbox is the storage side of the relay.
type Outbox interface {
	ListUnpublishedNotifications(ctx context.Context, limit int) ([]core.Notification, error)
	MarkNotificationsPublished(ctx context.Context, ids []string, at time.Time) error
}

// RelayConfig holds configuration for the notification relay
type RelayConfig struct {
	// PollInterval is how often to look for unpublished notifications (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of notifications published per poll (default: 50)
	BatchSize int

	// Concurrency bounds in-flight publishes within a batch (default: 4)
	Concurrency int
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		PollInterval: 10 * time.Second,
		BatchSize:    50,
		Concurrency:  4,
	}
}

// NotificationRelay forwards committed notifications to the broker. A row is marked published
// only after the broker accepted it, so delivery is at least once.
type NotificationRelay struct {
	outbox    Outbox
	publisher Publisher
	config    RelayConfig
	logger    *applog.Logger

	mu      sync.Mutex
	running  bool
	stopping bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewNotificationRelay(outbox Outbox, publisher Publisher, config RelayConfig, logger *applog.Logger) *NotificationRelay {
	if logger == nil {
		logger = applog.Default()
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &NotificationRelay{
		outbox:    outbox,
		publisher: publisher,
		config:    config,
		logger:    logger.WithComponent(applog.ComponentRelay),
	}
}

// Start begins the polling loop. Returns an error if already running.
func (p *NotificationRelay) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("notification relay is already running")
	}
	p.running = true
	p.stopping = false
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Notification relay started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for the current batch to finish. When ctx expires first the
// relay keeps draining in the background and a later Stop waits again.
func (p *NotificationRelay) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	if !p.stopping {
		p.stopping = true
		close(p.stopCh)
	}
	done := p.doneCh
	p.mu.Unlock()

	select {
	case <-done:
		p.logger.InfoContext(ctx, "Notification relay stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Notification relay stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.stopping = false
	p.mu.Unlock()
	return nil
}

func (p *NotificationRelay) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *NotificationRelay) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.RelayBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RelayBatch(ctx)
		}
	}
}

// RelayBatch publishes one batch of unpublished notifications and returns how many were
// delivered. Failed rows stay unpublished for the next poll.
func (p *NotificationRelay) RelayBatch(ctx context.Context) int {
	pending, err := p.outbox.ListUnpublishedNotifications(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to load unpublished notifications", applog.FieldError, err)
		return 0
	}
	if len(pending) == 0 {
		return 0
	}

	var (
		mu        sync.Mutex
		published []string
		g         errgroup.Group
	)
	g.SetLimit(p.config.Concurrency)
	for _, n := range pending {
		g.Go(func() error {
			if err := p.publisher.PublishNotification(ctx, amqp.NewNotificationEvent(n)); err != nil {
				p.logger.WarnContext(ctx, "Failed to publish notification",
					applog.FieldNotification, n.ID, applog.FieldError, err)
				return nil
			}
			mu.Lock()
			published = append(published, n.ID)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(published) == 0 {
		return 0
	}
	if err := p.outbox.MarkNotificationsPublished(ctx, published, time.Now().UTC()); err != nil {
		// the rows will be published again on the next poll
		p.logger.ErrorContext(ctx, "Failed to mark notifications published",
			applog.FieldCount, len(published), applog.FieldError, err)
		return 0
	}

	p.logger.InfoContext(ctx, "Relayed notifications",
		applog.FieldCount, len(published), "pending", len(pending))
	return len(published)
}
