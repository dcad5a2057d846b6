package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	dlxExchangeName  = "textify.dlx"
	dialTimeout      = 15 * time.Second
	reconnectBackoff = time.Second
	maxBackoff       = 30 * time.Second
)

// RabbitMQ owns the broker connection shared by the sms job publisher and
// consumer. Work queues are declared on first use, each with its own
// dead-letter queue.
type RabbitMQ struct {
	url  string
	dial func(url string) (*amqp.Connection, error)

	mu          sync.RWMutex
	reconnectMu sync.Mutex
	conn        *amqp.Connection
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("rabbitmq url is required")
	}

	r := &RabbitMQ{url: url, dial: amqp.Dial}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := r.connect(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()

	if conn == nil || conn.IsClosed() {
		return nil
	}
	return conn.Close()
}

// IsConnected reports whether the broker connection is currently open.
func (r *RabbitMQ) IsConnected() bool {
	if r == nil {
		return false
	}
	return r.current() != nil
}

func (r *RabbitMQ) current() *amqp.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.conn == nil || r.conn.IsClosed() {
		return nil
	}
	return r.conn
}

// channel opens a channel with the topology of queue declared. A failed
// channel open is retried once on a fresh connection.
func (r *RabbitMQ) channel(ctx context.Context, queue string) (*amqp.Channel, error) {
	var ch *amqp.Channel
	for attempt := 0; ch == nil; attempt++ {
		if err := r.connect(ctx); err != nil {
			return nil, err
		}

		var err error = amqp.ErrClosed
		if conn := r.current(); conn != nil {
			if ch, err = conn.Channel(); err != nil {
				_ = conn.Close()
			}
		}
		if err != nil && attempt > 0 {
			return nil, fmt.Errorf("failed to open rabbitmq channel after reconnect: %w", err)
		}
	}

	if err := newTopology(queue).declare(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return ch, nil
}

// connect dials until a connection is open or ctx ends, backing off
// exponentially between attempts.
func (r *RabbitMQ) connect(ctx context.Context) error {
	if r.current() != nil {
		return nil
	}

	r.reconnectMu.Lock()
	defer r.reconnectMu.Unlock()
	if r.current() != nil {
		return nil
	}

	wait := reconnectBackoff
	for {
		conn, err := r.dial(r.url)
		if err == nil {
			r.mu.Lock()
			stale := r.conn
			r.conn = conn
			r.mu.Unlock()

			if stale != nil && !stale.IsClosed() {
				_ = stale.Close()
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("rabbitmq connect canceled: %w", ctx.Err())
		case <-time.After(wait):
		}
		wait = nextBackoff(wait)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// topology is a durable work queue dead-lettering into dlq.<queue> through
// the shared direct exchange.
type topology struct {
	queue string
	dlq   string
}

func newTopology(queue string) topology {
	name := QueueName(queue)
	return topology{queue: name, dlq: DLQName(name)}
}

func (t topology) args() amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    dlxExchangeName,
		"x-dead-letter-routing-key": t.queue,
	}
}

func (t topology) declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchangeName, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dlx exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(t.dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dlq %q: %w", t.dlq, err)
	}
	if err := ch.QueueBind(t.dlq, t.queue, dlxExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind dlq %q: %w", t.dlq, err)
	}
	if _, err := ch.QueueDeclare(t.queue, true, false, false, false, t.args()); err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", t.queue, err)
	}
	return nil
}
