package worker

// dlq.go — Dead Letter Queue
// Jobs that exhaust their retry budget are parked on a Redis list per
// source queue (dlq:{original_queue}) and operations is alerted by mail,
// since a parked fulfillment or shipment job means stock is sitting in a
// state nobody is going to advance.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // ISO 8601
	Attempts      int             `json:"attempts"`
}

// SendToDLQ parks a failed job for manual inspection and enqueues an
// operator alert. alertEmail may be empty to disable the alert.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, jobType string, payload json.RawMessage, reason string, attempts int, alertEmail string) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")

	alert, ok := dlqAlert(alertEmail, queue, jobType, reason, attempts)
	if !ok {
		return
	}
	alertPayload, err := json.Marshal(alert)
	if err != nil {
		log.Error().Err(err).Msg("dlq: failed to marshal alert payload")
		return
	}
	job, err := json.Marshal(Job{Type: "notification", Payload: alertPayload})
	if err != nil {
		log.Error().Err(err).Msg("dlq: failed to marshal alert job")
		return
	}
	if err := rdb.LPush(ctx, QueueNotification, job).Err(); err != nil {
		log.Error().Err(err).Msg("dlq: failed to enqueue alert")
	}
}

// dlqAlert builds the operator alert for a parked job. A parked
// notification job gets no alert, otherwise a dead SMTP relay would feed
// the notification queue forever.
func dlqAlert(alertEmail, queue, jobType, reason string, attempts int) (NotificationPayload, bool) {
	if alertEmail == "" || jobType == "notification" {
		return NotificationPayload{}, false
	}
	return NotificationPayload{
		ToEmail: alertEmail,
		Subject: fmt.Sprintf("Dead-lettered job: %s", jobType),
		Body: fmt.Sprintf(
			"A %s job was parked on %s%s after %d attempts.\nReason: %s\nIt will not be retried without manual intervention.\n",
			jobType, DLQPrefix, queue, attempts, reason),
	}, true
}

// DLQLength returns the number of entries in a DLQ for monitoring.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
