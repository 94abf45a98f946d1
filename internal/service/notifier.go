package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/pkg/jobs"
	"github.com/noah-isme/lms-api/pkg/middleware/requestid"
)

const jobTypeThreadCreated = "thread_created"

// threadDelivery is the queued payload; requestID ties the webhook call to the request
// that created the thread.
type threadDelivery struct {
	event     dto.ThreadCreatedEvent
	requestID string
}

// WebhookConfig configures the thread notification webhook.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
	Workers int
}

// WebhookNotifier posts ThreadCreated events to an external URL from background
// workers. Deliveries are attempted once; failures are only logged.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewWebhookNotifier constructs the notifier. Call Start before use.
func NewWebhookNotifier(cfg WebhookConfig, metrics *MetricsService, logger *zap.Logger) *WebhookNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	n := &WebhookNotifier{
		url:     cfg.URL,
		client:  &http.Client{Timeout: cfg.Timeout},
		metrics: metrics,
		logger:  logger,
	}
	n.queue = jobs.NewQueue("webhooks", n.deliver, jobs.QueueConfig{
		Workers:      cfg.Workers,
		DisableRetry: true,
		JobTimeout:   cfg.Timeout,
		Logger:       logger,
	})
	return n
}

// Start launches the delivery workers.
func (n *WebhookNotifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop waits for in-flight deliveries to finish.
func (n *WebhookNotifier) Stop() {
	n.queue.Stop()
}

// ThreadCreated schedules delivery of event and returns immediately.
func (n *WebhookNotifier) ThreadCreated(ctx context.Context, event dto.ThreadCreatedEvent) {
	if n.url == "" {
		n.metrics.RecordWebhookDelivery("skipped")
		n.logger.Warn("thread webhook url not configured, skipping notification", zap.String("thread_id", event.ThreadID))
		return
	}
	if err := n.queue.Enqueue(jobs.Job{ID: event.ThreadID, Type: jobTypeThreadCreated, Payload: threadDelivery{event: event, requestID: requestid.FromContext(ctx)}}); err != nil {
		n.metrics.RecordWebhookDelivery("dropped")
		n.logger.Warn("failed to schedule thread notification", zap.String("thread_id", event.ThreadID), zap.Error(err))
	}
}

func (n *WebhookNotifier) deliver(ctx context.Context, job jobs.Job) error {
	delivery, ok := job.Payload.(threadDelivery)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	event := delivery.event
	if err := n.post(ctx, delivery); err != nil {
		n.metrics.RecordWebhookDelivery("failed")
		return err
	}
	n.metrics.RecordWebhookDelivery("delivered")
	n.logger.Info("thread notification delivered", zap.String("thread_id", event.ThreadID))
	return nil
}

func (n *WebhookNotifier) post(ctx context.Context, delivery threadDelivery) error {
	body, err := json.Marshal(delivery.event)
	if err != nil {
		return fmt.Errorf("marshal thread event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if delivery.requestID != "" {
		req.Header.Set(requestid.Header(), delivery.requestID)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}
