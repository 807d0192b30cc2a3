package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/carshare-console/internal/logger"
)

// AuditLogFile is the file the consumer appends to inside its directory.
const AuditLogFile = "audit.log"

// AuditConsumer reads the audit queue and appends one line per event to
// <dir>/audit.log.
type AuditConsumer struct {
	url string
	dir string
	log logger.ILogger
}

func NewAuditConsumer(url, dir string, log logger.ILogger) *AuditConsumer {
	if dir == "" {
		dir = "logs"
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &AuditConsumer{url: url, dir: dir, log: log}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff (capped at 30s) on failures.
func (c *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warning("audit-consumer: dial failed", logger.Error(err), logger.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warning("audit-consumer: consume loop ended, reconnecting", logger.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Debug("audit-consumer: set QoS failed", logger.Error(err))
	}
	if _, err := ch.QueueDeclare(AuditQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(AuditQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				c.log.Error("audit-consumer: handle message failed", logger.Error(err))
				// no requeue: a malformed payload would loop forever
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *AuditConsumer) handleMessage(body []byte) error {
	var ev AuditEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Kind == "" {
		return errors.New("event without kind")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, AuditLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// formatLine renders ev as a single human-readable line.
func formatLine(ev AuditEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | vehicle_id=%d | rows_affected=%d", ev.OccurredAt, ev.Kind, ev.VehicleID, ev.RowsAffected)
	switch ev.Kind {
	case KindReservationCreated, KindReservationDeleted:
		fmt.Fprintf(&b, " | reservation_id=%d | customer_id=%d | start_time=%q", ev.ReservationID, ev.CustomerID, ev.StartTime)
		if ev.Kind == KindReservationDeleted {
			fmt.Fprintf(&b, " | verified_gone=%t", ev.VerifiedGone)
		}
	case KindTicketClosed:
		fmt.Fprintf(&b, " | ticket_no=%d | vehicle_status=%q | trigger_observed=%t", ev.TicketNo, ev.VehicleStatus, ev.TriggerObserved)
	}
	b.WriteByte('\n')
	return b.String()
}
