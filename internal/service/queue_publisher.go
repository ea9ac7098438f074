// Package service holds the adapters the booking core talks to outside
// the request path.  Publisher sends booking.confirmed events to RabbitMQ.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/model"
	"github.com/iliyamo/train-seat-reservation/internal/queue"
)

// ErrPublishQueueFull is returned when the outbound buffer is full and the
// event was dropped.
var ErrPublishQueueFull = errors.New("publish queue full")

const (
	defaultBuffer      = 1024
	defaultDialTimeout = 3 * time.Second
)

// Publisher publishes BookingConfirmedEvent messages to the durable
// booking.confirmed queue.  BookingConfirmed only enqueues; a single
// worker owns the broker connection, so a slow or unreachable broker
// never holds up the booking that produced the event.
type Publisher struct {
	url         string
	logger      *zap.Logger
	dialTimeout time.Duration

	events chan amqp.Publishing
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	// owned by the worker
	conn *amqp.Connection
	ch   *amqp.Channel
}

type PublisherOption func(*Publisher)

// WithDialTimeout bounds the TCP connect and AMQP handshake.
func WithDialTimeout(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		if d > 0 {
			p.dialTimeout = d
		}
	}
}

// WithBuffer sets how many events may wait for the worker.
func WithBuffer(n int) PublisherOption {
	return func(p *Publisher) {
		if n > 0 {
			p.events = make(chan amqp.Publishing, n)
		}
	}
}

// NewPublisher returns a Publisher for the broker at url and starts its
// worker.  Call Close to stop it.
func NewPublisher(url string, logger *zap.Logger, opts ...PublisherOption) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{
		url:         url,
		logger:      logger,
		dialTimeout: defaultDialTimeout,
		events:      make(chan amqp.Publishing, defaultBuffer),
		done:        make(chan struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.run(ctx)
	return p
}

// BookingConfirmed implements booking.Publisher.  It never waits on the
// broker: the event is buffered or, when the buffer is full, dropped with
// ErrPublishQueueFull.
func (p *Publisher) BookingConfirmed(_ context.Context, b model.Booking, t model.Train) error {
	ev := queue.NewBookingConfirmedEvent(b, t)
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	select {
	case <-p.done:
		return errors.New("publisher closed")
	default:
	}
	select {
	case p.events <- msg:
		return nil
	default:
		return ErrPublishQueueFull
	}
}

func (p *Publisher) run(ctx context.Context) {
	defer close(p.done)
	defer p.reset()
	for {
		if ctx.Err() != nil {
			if n := len(p.events); n > 0 {
				p.logger.Warn("rabbitmq: publisher stopped with pending events", zap.Int("pending", n))
			}
			return
		}
		select {
		case <-ctx.Done():
		case msg := <-p.events:
			if err := p.publish(ctx, msg); err != nil {
				p.logger.Warn("rabbitmq: event dropped", zap.String("event_id", msg.MessageId), zap.Error(err))
			}
		}
	}
}

// publish sends msg, reconnecting once when the cached channel is dead.
func (p *Publisher) publish(ctx context.Context, msg amqp.Publishing) error {
	for attempt := 0; attempt < 2; attempt++ {
		ch, err := p.channel()
		if err != nil {
			return err
		}
		pctx, cancel := context.WithTimeout(ctx, p.dialTimeout)
		err = ch.PublishWithContext(pctx, "", queue.BookingQueue, false, false, msg)
		cancel()
		if err == nil {
			return nil
		}
		p.logger.Warn("rabbitmq: publish failed", zap.Error(err), zap.Int("attempt", attempt+1))
		p.reset()
		if attempt == 1 {
			return fmt.Errorf("publish: %w", err)
		}
	}
	return nil
}

// channel returns the cached channel, dialing when needed.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue.BookingQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close stops the worker and releases the broker connection.  Events still
// buffered are dropped.
func (p *Publisher) Close() error {
	p.once.Do(p.cancel)
	<-p.done
	return nil
}

var _ booking.Publisher = (*Publisher)(nil)
