package worker

// notification_worker.go
// Processes operator alert jobs from QueueNotification.
// Sends mail through the SMTP circuit breaker so a downed relay
// fast-fails instead of tying up the pool.

import (
	"context"
	"encoding/json"

	"stockcore/internal/infra"

	"github.com/rs/zerolog/log"
)

// NotificationPayload is the job envelope sent to QueueNotification.
type NotificationPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NotificationWorker sends backorder and expiry alerts to operations.
type NotificationWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
}

func NewNotificationWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker) *NotificationWorker {
	return &NotificationWorker{mailer: mailer, cb: cb}
}

func (w *NotificationWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload NotificationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notification_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("notification_worker: empty to_email — skipping")
		return nil
	}

	err := w.cb.Execute(func() error {
		return w.mailer.SendAlert(payload.ToEmail, payload.Subject, payload.Body)
	})
	if err != nil {
		log.Error().Err(err).
			Str("to", payload.ToEmail).
			Str("breaker", w.cb.State().String()).
			Msg("notification_worker: failed to send alert")
		return err
	}
	log.Info().Str("to", payload.ToEmail).Msg("notification_worker: alert sent")
	return nil
}
