package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/carshare-console/internal/logger"
	"github.com/iliyamo/carshare-console/internal/queue"
)

// AMQPPublisher publishes audit events to RabbitMQ.  Each publish dials its
// own connection; the console writes a handful of events per minute and a
// broker restart never leaves a stale channel behind.
type AMQPPublisher struct {
	url string
	log logger.ILogger
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string, log logger.ILogger) *AMQPPublisher {
	if log == nil {
		log = logger.NewNop()
	}
	return &AMQPPublisher{url: url, log: log}
}

// Publish sends ev to the audit queue as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.AuditEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Debug("rabbitmq: dial failed", logger.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Debug("rabbitmq: channel open failed", logger.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.AuditQueueName, true, false, false, false, nil); err != nil {
		p.log.Debug("rabbitmq: queue declare failed", logger.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Kind,
		Body:         body,
	}
	return ch.PublishWithContext(ctx, "", queue.AuditQueueName, false, false, pub)
}
