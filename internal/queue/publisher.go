package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher pushes sync payloads onto per-channel RabbitMQ queues. Each
// external distribution channel gets its own durable queue named
// channel.sync.<code>; a connector process on the other side consumes
// it at its own pace.
type Publisher struct {
	url     string
	loggerf func(format string, args ...interface{})

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool
}

func NewPublisher(url string, loggerf func(format string, args ...interface{})) *Publisher {
	return &Publisher{
		url:      url,
		loggerf:  loggerf,
		declared: make(map[string]bool),
	}
}

// Publish marshals payload and sends it to the channel's queue. Messages
// are persistent so a broker restart does not lose accepted events.
// Callers treat an error as retryable; the outbox worker owns backoff.
func (p *Publisher) Publish(ctx context.Context, channelCode string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	queueName := "channel.sync." + channelCode
	if !p.declared[queueName] {
		if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
			p.reset()
			return err
		}
		p.declared[queueName] = true
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		p.logf("amqp: publish to %s failed: %v", queueName, err)
		p.reset()
		return err
	}

	return nil
}

// channel returns the open channel, dialing lazily. Held under p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil {
		return p.ch, nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logf("amqp: dial failed: %v", err)
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		p.logf("amqp: channel open failed: %v", err)
		return nil, err
	}

	p.conn = conn
	p.ch = ch
	return ch, nil
}

// reset drops the cached connection so the next Publish redials. Held
// under p.mu.
func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	p.declared = make(map[string]bool)
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

func (p *Publisher) logf(format string, args ...interface{}) {
	if p.loggerf != nil {
		p.loggerf(format, args...)
	}
}
