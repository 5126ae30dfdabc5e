package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	sent   []amqp.NotificationEvent
	failOn map[string]bool
}

func (p *fakePublisher) PublishNotification(_ context.Context, event amqp.NotificationEvent) error {
	if p.failOn[event.ID] {
		return errors.New("broker unavailable")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, event)
	return nil
}

func seedNotifications(t *testing.T, store *memory.Store, ids ...string) {
	t.Helper()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range ids {
		_, err := store.InsertNotification(context.Background(), core.Notification{
			ID: id, UserID: alice, Type: core.General,
			Title: "Hello", Message: "msg", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertNotification: %v", err)
		}
	}
}

func TestDefaultRelayConfig(t *testing.T) {
	config := DefaultRelayConfig()

	if config.PollInterval != 10*time.Second {
		t.Errorf("expected PollInterval 10s, got %v", config.PollInterval)
	}
	if config.BatchSize != 50 {
		t.Errorf("expected BatchSize 50, got %d", config.BatchSize)
	}
	if config.Concurrency != 4 {
		t.Errorf("expected Concurrency 4, got %d", config.Concurrency)
	}
}

func TestRelayBatchPublishesAndMarks(t *testing.T) {
	store := memory.New()
	seedNotifications(t, store, "n1", "n2", "n3")
	pub := &fakePublisher{}
	relay := NewNotificationRelay(store, pub, DefaultRelayConfig(), applog.Discard())

	if n := relay.RelayBatch(context.Background()); n != 3 {
		t.Fatalf("RelayBatch = %d, want 3", n)
	}
	if len(pub.sent) != 3 {
		t.Errorf("published %d events, want 3", len(pub.sent))
	}
	pending, _ := store.ListUnpublishedNotifications(context.Background(), 10)
	if len(pending) != 0 {
		t.Errorf("%d notifications still unpublished", len(pending))
	}
	if n := relay.RelayBatch(context.Background()); n != 0 {
		t.Errorf("second RelayBatch = %d, want 0", n)
	}
}

func TestRelayBatchLeavesFailuresForRetry(t *testing.T) {
	store := memory.New()
	seedNotifications(t, store, "n1", "n2", "n3")
	pub := &fakePublisher{failOn: map[string]bool{"n2": true}}
	relay := NewNotificationRelay(store, pub, DefaultRelayConfig(), applog.Discard())

	if n := relay.RelayBatch(context.Background()); n != 2 {
		t.Fatalf("RelayBatch = %d, want 2", n)
	}
	pending, _ := store.ListUnpublishedNotifications(context.Background(), 10)
	if len(pending) != 1 || pending[0].ID != "n2" {
		t.Fatalf("pending = %+v, want only n2", pending)
	}

	delete(pub.failOn, "n2")
	if n := relay.RelayBatch(context.Background()); n != 1 {
		t.Errorf("retry RelayBatch = %d, want 1", n)
	}
}

func TestRelayBatchRespectsBatchSize(t *testing.T) {
	store := memory.New()
	seedNotifications(t, store, "n1", "n2", "n3")
	config := DefaultRelayConfig()
	config.BatchSize = 2
	relay := NewNotificationRelay(store, &fakePublisher{}, config, applog.Discard())

	if n := relay.RelayBatch(context.Background()); n != 2 {
		t.Errorf("RelayBatch = %d, want 2", n)
	}
	pending, _ := store.ListUnpublishedNotifications(context.Background(), 10)
	if len(pending) != 1 || pending[0].ID != "n3" {
		t.Errorf("pending = %+v, want only n3 (oldest first)", pending)
	}
}

func TestNotificationRelayStartStop(t *testing.T) {
	config := DefaultRelayConfig()
	config.PollInterval = 10 * time.Millisecond
	relay := NewNotificationRelay(memory.New(), &fakePublisher{}, config, applog.Discard())

	if relay.IsRunning() {
		t.Error("relay should not be running initially")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := relay.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := relay.Start(ctx); err == nil {
		t.Error("expected error when starting a running relay")
	}
	if err := relay.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if relay.IsRunning() {
		t.Error("relay still running after Stop")
	}
	if err := relay.Stop(context.Background()); err != nil {
		t.Errorf("Stop when not running: %v", err)
	}
}

type blockingPublisher struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *blockingPublisher) PublishNotification(context.Context, amqp.NotificationEvent) error {
	p.once.Do(func() { close(p.entered) })
	<-p.release
	return nil
}

func TestNotificationRelayStopAfterTimeout(t *testing.T) {
	store := memory.New()
	seedNotifications(t, store, "n1")
	pub := &blockingPublisher{entered: make(chan struct{}), release: make(chan struct{})}
	relay := NewNotificationRelay(store, pub, DefaultRelayConfig(), applog.Discard())

	if err := relay.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-pub.entered

	expired, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 2; i++ {
		if err := relay.Stop(expired); !errors.Is(err, context.Canceled) {
			t.Fatalf("Stop #%d while publishing = %v, want context.Canceled", i+1, err)
		}
	}
	if !relay.IsRunning() {
		t.Error("relay should still be draining")
	}

	close(pub.release)
	if err := relay.Stop(context.Background()); err != nil {
		t.Fatalf("final Stop: %v", err)
	}
	if relay.IsRunning() {
		t.Error("relay still running after final Stop")
	}
}
