package worker

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

const (
	// SignatureHeader carries "sha256=<hex hmac of the body>".
	SignatureHeader = "X-CreatorPulse-Signature"
	// EventHeader carries the event name.
	EventHeader = "X-CreatorPulse-Event"
	// DeliveryHeader carries an id that stays the same across retries,
	// so receivers can drop duplicates.
	DeliveryHeader = "X-CreatorPulse-Delivery"

	trendSpikeEvent = "trend_spike"
)

// WebhookMetricsRecorder counts delivery outcomes.
type WebhookMetricsRecorder interface {
	RecordWebhookDelivery(outcome string)
}

// WebhookWorkerConfig holds configuration for the webhook dispatcher.
type WebhookWorkerConfig struct {
	// BufferSize is the size of the spike channel buffer.
	BufferSize int

	// WorkerCount is the number of spikes dispatched concurrently.
	WorkerCount int

	// DeliveryConcurrency bounds parallel requests for one spike.
	DeliveryConcurrency int

	// RequestTimeout is the max time to wait for each outgoing HTTP request.
	RequestTimeout time.Duration

	// MaxAttempts per subscription; only network errors, 429 and 5xx are retried.
	MaxAttempts int

	// RetryBackoff is doubled after every failed attempt.
	RetryBackoff time.Duration

	// Thresholds define when momentum changes are considered spikes.
	Thresholds domain.SpikeThresholds
}

// DefaultWebhookWorkerConfig returns sensible defaults.
func DefaultWebhookWorkerConfig() WebhookWorkerConfig {
	return WebhookWorkerConfig{
		BufferSize:          1000,
		WorkerCount:         2,
		DeliveryConcurrency: 4,
		RequestTimeout:      5 * time.Second,
		MaxAttempts:         3,
		RetryBackoff:        500 * time.Millisecond,
		Thresholds:          domain.DefaultSpikeThresholds(),
	}
}

// WebhookWorker delivers trend spikes to the webhook subscriptions of their user.
// implements application.SpikeNotifier.
type WebhookWorker struct {
	spikeChan  chan domain.TrendSpike
	subRepo    domain.WebhookSubscriptionRepository
	httpClient *http.Client
	config     WebhookWorkerConfig
	logger     *logging.Logger
	metrics    WebhookMetricsRecorder

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewWebhookWorker creates a new webhook worker.
func NewWebhookWorker(
	subRepo domain.WebhookSubscriptionRepository,
	config WebhookWorkerConfig,
	logger *logging.Logger,
) *WebhookWorker {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.DeliveryConcurrency <= 0 {
		config.DeliveryConcurrency = 1
	}
	return &WebhookWorker{
		spikeChan: make(chan domain.TrendSpike, config.BufferSize),
		subRepo:   subRepo,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		config:  config,
		logger:  logger.WithComponent("webhook_worker"),
		stopped: make(chan struct{}),
	}
}

// WithMetrics sets the metrics recorder for observability.
func (w *WebhookWorker) WithMetrics(m WebhookMetricsRecorder) *WebhookWorker {
	w.metrics = m
	return w
}

// Start begins the worker goroutines.
func (w *WebhookWorker) Start(ctx context.Context) {
	w.logger.Info("webhook worker starting",
		"buffer_size", w.config.BufferSize,
		"worker_count", w.config.WorkerCount,
		"max_attempts", w.config.MaxAttempts,
		"request_timeout", w.config.RequestTimeout.String(),
	)

	for i := 0; i < w.config.WorkerCount; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i)
	}
}

// Stop closes the buffer and waits for queued spikes to be delivered.
// nothing may call NotifyTrendSpike after Stop.
func (w *WebhookWorker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("webhook worker stopping, draining buffer...")
		close(w.spikeChan)
		w.wg.Wait()
		close(w.stopped)
		w.logger.Info("webhook worker stopped")
	})
}

// Stopped returns a channel that closes when the worker has fully stopped.
func (w *WebhookWorker) Stopped() <-chan struct{} {
	return w.stopped
}

// NotifyTrendSpike queues a spike for delivery. a full buffer drops the
// spike rather than blocking detection.
// delivery is async, so the returned count is always 0.
func (w *WebhookWorker) NotifyTrendSpike(ctx context.Context, spike domain.TrendSpike) (int, error) {
	select {
	case w.spikeChan <- spike:
		w.logger.Debug("spike queued for notification",
			"user_id", spike.UserID.String(),
			"topic", spike.Topic,
			"new_momentum", spike.NewMomentum,
		)
		return 0, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
		w.logger.Warn("webhook buffer full, spike dropped",
			"user_id", spike.UserID.String(),
			"topic", spike.Topic,
		)
		w.record("dropped")
		return 0, nil
	}
}

// Thresholds returns the configured spike thresholds.
func (w *WebhookWorker) Thresholds() domain.SpikeThresholds {
	return w.config.Thresholds
}

func (w *WebhookWorker) runWorker(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case spike, ok := <-w.spikeChan:
			if !ok {
				w.logger.Debug("worker exiting after drain", "worker_id", workerID)
				return
			}
			w.dispatchSpike(ctx, spike, workerID)

		case <-ctx.Done():
			w.logger.Debug("worker exiting on context cancel", "worker_id", workerID)
			return
		}
	}
}

// dispatchSpike sends the spike to every active subscription of its user
// and returns how many deliveries succeeded.
func (w *WebhookWorker) dispatchSpike(ctx context.Context, spike domain.TrendSpike, workerID int) int {
	subs, err := w.subRepo.FindActiveByUser(ctx, spike.UserID)
	if err != nil {
		w.logger.Error("failed to fetch subscriptions",
			"worker_id", workerID,
			"user_id", spike.UserID.String(),
			"error", err.Error(),
		)
		return 0
	}
	if len(subs) == 0 {
		return 0
	}

	payload, err := json.Marshal(NewWebhookPayload(spike))
	if err != nil {
		w.logger.Error("failed to marshal payload",
			"worker_id", workerID,
			"error", err.Error(),
		)
		return 0
	}

	var sent atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(w.config.DeliveryConcurrency)
	for _, sub := range subs {
		g.Go(func() error {
			if w.deliver(ctx, sub, payload, workerID) {
				sent.Add(1)
				w.record("success")
			} else {
				w.record("failure")
			}
			return nil
		})
	}
	_ = g.Wait()

	w.logger.Info("spike notifications dispatched",
		"worker_id", workerID,
		"user_id", spike.UserID.String(),
		"topic", spike.Topic,
		"sent", sent.Load(),
		"failed", int64(len(subs))-sent.Load(),
	)
	return int(sent.Load())
}

func (w *WebhookWorker) record(outcome string) {
	if w.metrics != nil {
		w.metrics.RecordWebhookDelivery(outcome)
	}
}

// deliver posts the payload, retrying transient failures with backoff.
func (w *WebhookWorker) deliver(ctx context.Context, sub *domain.WebhookSubscription, payload []byte, workerID int) bool {
	deliveryID := uuid.NewString()
	backoff := w.config.RetryBackoff

	for attempt := 1; attempt <= w.config.MaxAttempts; attempt++ {
		status, err := w.send(ctx, sub, payload, deliveryID)
		if err == nil && status >= 200 && status < 300 {
			return true
		}

		attrs := []any{
			"worker_id", workerID,
			"subscription_id", sub.ID().String(),
			"attempt", attempt,
		}
		if err != nil {
			attrs = append(attrs, "error", err.Error())
		} else {
			attrs = append(attrs, "status", status)
		}

		if err == nil && !retryableStatus(status) {
			w.logger.Warn("webhook rejected", attrs...)
			return false
		}
		if attempt == w.config.MaxAttempts {
			w.logger.Warn("webhook delivery failed", attrs...)
			return false
		}
		w.logger.Debug("webhook delivery failed, retrying", append(attrs, "backoff", backoff.String())...)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return false
		}
		backoff *= 2
	}
	return false
}

// send performs one signed request and returns the response status.
func (w *WebhookWorker) send(ctx context.Context, sub *domain.WebhookSubscription, payload []byte, deliveryID string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.TargetURL(), bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "CreatorPulse-Webhook/1.0")
	req.Header.Set(SignatureHeader, Sign(payload, sub.Secret()))
	req.Header.Set(EventHeader, trendSpikeEvent)
	req.Header.Set(DeliveryHeader, deliveryID)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	return resp.StatusCode, nil
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Sign returns the HMAC-SHA256 signature of payload as "sha256=<hex>".
// receivers recompute it with their secret to authenticate the call.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return fmt.Sprintf("sha256=%s", hex.EncodeToString(mac.Sum(nil)))
}

// WebhookPayload is the JSON structure sent to webhook endpoints.
type WebhookPayload struct {
	Event         string  `json:"event"`
	UserID        string  `json:"user_id"`
	Topic         string  `json:"topic"`
	Summary       string  `json:"summary"`
	OldMomentum   float64 `json:"old_momentum"`
	NewMomentum   float64 `json:"new_momentum"`
	PercentChange float64 `json:"percent_change"`
	Timestamp     string  `json:"timestamp"`
}

// NewWebhookPayload builds the payload of a spike.
func NewWebhookPayload(spike domain.TrendSpike) WebhookPayload {
	return WebhookPayload{
		Event:         trendSpikeEvent,
		UserID:        spike.UserID.String(),
		Topic:         spike.Topic,
		Summary:       spike.Summary,
		OldMomentum:   spike.OldMomentum,
		NewMomentum:   spike.NewMomentum,
		PercentChange: spike.PercentChange,
		Timestamp:     spike.Timestamp.UTC().Format(time.RFC3339),
	}
}
