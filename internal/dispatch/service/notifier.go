// Package service provides notifier implementations used by the dispatch
// worker to hand deliveries to the external notification collaborator.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	dispatchDomain "github.com/gsPatrick/garimponos-sign/internal/dispatch/domain"
	"github.com/gsPatrick/garimponos-sign/internal/errors"
)

// Notifier hands one delivery to the external notification service.
type Notifier interface {
	Notify(ctx context.Context, delivery *dispatchDomain.Delivery) error
}

// LogNotifier writes deliveries to the log instead of calling a provider.
// Used in development and as the fallback when no webhook URL is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// Notify logs the delivery. The payload is not logged since OTP deliveries
// carry the plaintext code.
func (l *LogNotifier) Notify(_ context.Context, delivery *dispatchDomain.Delivery) error {
	l.logger.Info("delivery dispatched",
		slog.String("delivery_id", delivery.ID.String()),
		slog.String("kind", string(delivery.Kind)),
		slog.String("channel", delivery.Channel),
		slog.String("recipient", delivery.Recipient),
	)
	return nil
}

// NewLogNotifier creates a notifier that only logs deliveries.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// WebhookNotifier posts deliveries to the notification service endpoint. The
// notifier reports the final outcome asynchronously through the delivery
// result callback.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

type webhookRequest struct {
	DeliveryID string          `json:"delivery_id"`
	DocumentID string          `json:"document_id"`
	SignerID   string          `json:"signer_id"`
	Kind       string          `json:"kind"`
	Channel    string          `json:"channel"`
	Recipient  string          `json:"recipient"`
	Payload    json.RawMessage `json:"payload"`
}

// Notify posts the delivery to the webhook URL. Any non-2xx response counts as
// a failed attempt and will be retried by the worker.
func (w *WebhookNotifier) Notify(ctx context.Context, delivery *dispatchDomain.Delivery) error {
	body, err := json.Marshal(webhookRequest{
		DeliveryID: delivery.ID.String(),
		DocumentID: delivery.DocumentID.String(),
		SignerID:   delivery.SignerID.String(),
		Kind:       string(delivery.Kind),
		Channel:    delivery.Channel,
		Recipient:  delivery.Recipient,
		Payload:    json.RawMessage(delivery.Payload),
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to call notification webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Wrap(
			fmt.Errorf("notification webhook returned status %d", resp.StatusCode),
			"notification webhook rejected delivery",
		)
	}

	return nil
}

// NewWebhookNotifier creates a notifier posting to the given URL.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}
