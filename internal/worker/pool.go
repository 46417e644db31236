package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockcore/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueOrderConfirmed    = "jobs:order_confirmed"
	QueueStockReceived     = "jobs:stock_received"
	QueueShipmentConfirmed = "jobs:shipment_confirmed"
	QueueNotification      = "jobs:notification"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
//
// It also implements service.EventPublisher: domain notifications become
// jobs on QueueNotification so a flaky SMTP server never blocks a
// reservation transaction.
type Dispatcher struct {
	rdb        *redis.Client
	alertEmail string
}

func NewDispatcher(rdb *redis.Client, alertEmail string) *Dispatcher {
	return &Dispatcher{rdb: rdb, alertEmail: alertEmail}
}

// EnqueueOrderConfirmed pushes a reservation job for a confirmed order.
func (d *Dispatcher) EnqueueOrderConfirmed(ctx context.Context, payload OrderConfirmedPayload) error {
	return d.enqueue(ctx, QueueOrderConfirmed, "order_confirmed", payload)
}

// EnqueueStockReceived pushes a backorder reallocation job for a receipt.
func (d *Dispatcher) EnqueueStockReceived(ctx context.Context, payload StockReceivedPayload) error {
	return d.enqueue(ctx, QueueStockReceived, "stock_received", payload)
}

// EnqueueShipmentConfirmed pushes a ledger-apply job for a carrier event.
func (d *Dispatcher) EnqueueShipmentConfirmed(ctx context.Context, payload ShipmentConfirmedPayload) error {
	return d.enqueue(ctx, QueueShipmentConfirmed, "shipment_confirmed", payload)
}

// EnqueueNotification pushes an operator email job.
func (d *Dispatcher) EnqueueNotification(ctx context.Context, payload NotificationPayload) error {
	return d.enqueue(ctx, QueueNotification, "notification", payload)
}

// NotifyBackorder alerts operations that an order could not be fully
// allocated.
func (d *Dispatcher) NotifyBackorder(ctx context.Context, tenantID, orderID uuid.UUID, reason string) error {
	return d.EnqueueNotification(ctx, NotificationPayload{
		ToEmail: d.alertEmail,
		Subject: fmt.Sprintf("Backorder: order %s", orderID),
		Body:    fmt.Sprintf("Order %s (tenant %s) could not be fully allocated.\nReason: %s\n", orderID, tenantID, reason),
	})
}

// NotifyReservationExpired alerts operations that a soft hold lapsed
// before the order confirmed.
func (d *Dispatcher) NotifyReservationExpired(ctx context.Context, res *model.StockReservation) error {
	return d.EnqueueNotification(ctx, NotificationPayload{
		ToEmail: d.alertEmail,
		Subject: fmt.Sprintf("Reservation expired: %s", res.ID),
		Body: fmt.Sprintf(
			"Soft reservation %s for item %s (reference %s) expired with %d units and was returned to the pool.\n",
			res.ID, res.ItemID, res.ReferenceID, res.Quantity),
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Handler processes one decoded job payload. Returning an error triggers
// the retry schedule; exhausting it moves the job to the DLQ.
type Handler func(ctx context.Context, raw json.RawMessage) error

// Handlers maps job types to their processors. Wired in main.
type Handlers map[string]Handler

const maxJobAttempts = 3

// StartWorkerPool launches numWorkers goroutines consuming all queues.
// Each goroutine blocks on BRPOP — zero CPU when idle. Jobs that end up
// dead-lettered raise an alert to alertEmail.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers Handlers, numWorkers int, alertEmail string) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i, alertEmail)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers Handlers, id int, alertEmail string) {
	queues := []string{QueueOrderConfirmed, QueueStockReceived, QueueShipmentConfirmed, QueueNotification}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1], alertEmail)
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers Handlers, queue, raw string, alertEmail string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	handler, ok := handlers[job.Type]
	if !ok {
		log.Error().Str("type", job.Type).Str("queue", queue).Msg("no handler registered for job type")
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "no handler registered", 0, alertEmail)
		return
	}

	err := withRetry(ctx, maxJobAttempts, func(attempt int) error {
		if err := handler(ctx, job.Payload); err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("type", job.Type).
				Msg("job attempt failed, retrying")
			return err
		}
		return nil
	})
	if err != nil {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), maxJobAttempts, alertEmail)
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
