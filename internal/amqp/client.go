package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"backoffice/internal/core"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
)

// Client publishes and consumes figure refresh and sync completion messages
// on a direct exchange. Publishing is guarded by a circuit breaker; the
// connection is re-dialled lazily after a failure.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{url: url, exchangeName: exchangeName, queueName: queueName}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connectLocked() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	c.conn, c.channel = conn, channel
	return nil
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// routing key is the queue name
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// channelLocked returns a live channel, reconnecting when needed.
func (c *Client) channelLocked() (*amqp091.Channel, error) {
	if c.conn != nil && !c.conn.IsClosed() && c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c.channel, nil
}

// PublishRefresh publishes a refresh request and returns its message id.
func (c *Client) PublishRefresh(ctx context.Context, sections ...core.Section) (uuid.UUID, error) {
	msg := NewFigureRefreshMessage(sections...)
	body, err := msg.ToJSON()
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.queueName, msg.ID, msg.RequestedAt, body); err != nil {
		return uuid.Nil, fmt.Errorf("publish refresh: %w", err)
	}
	slog.InfoContext(ctx, "Published figure refresh message",
		"message_id", msg.ID.String(),
		"sections", len(sections),
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return msg.ID, nil
}

// SyncedRoutingKey is the routing key of sync completion messages.
func (c *Client) SyncedRoutingKey() string {
	return c.queueName + ".synced"
}

// PublishSynced announces that the worker stored fresh figures.
func (c *Client) PublishSynced(ctx context.Context, msg *FigureSyncedMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.SyncedRoutingKey(), msg.ID, msg.SyncedAt, body); err != nil {
		return fmt.Errorf("publish synced: %w", err)
	}
	slog.DebugContext(ctx, "Published figures synced message",
		"message_id", msg.ID.String(),
		"refresh_id", msg.RefreshID.String(),
		"sections", len(msg.Sections))
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, id uuid.UUID, ts time.Time, body []byte) error {
	if c.isCircuitOpen() {
		return errors.New("circuit breaker is open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	c.mu.Lock()
	ch, err := c.channelLocked()
	if err == nil {
		err = ch.PublishWithContext(ctx, c.exchangeName, routingKey, false, false, amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    id.String(),
			Timestamp:    ts,
			Body:         body,
		})
	}
	c.mu.Unlock()

	if err != nil {
		c.recordFailure()
		return err
	}
	c.recordSuccess()
	return nil
}

// RefreshHandler processes one refresh message. Returning an error requeues it.
type RefreshHandler func(context.Context, *FigureRefreshMessage) error

// SyncedHandler processes one sync completion message.
type SyncedHandler func(context.Context, *FigureSyncedMessage) error

// ConsumeRefresh delivers refresh messages to handler until ctx is done,
// reconnecting with exponential backoff when the broker goes away.
func (c *Client) ConsumeRefresh(ctx context.Context, handler RefreshHandler) error {
	open := func(ch *amqp091.Channel) (<-chan amqp091.Delivery, error) {
		return ch.Consume(c.queueName, "", false, false, false, false, nil)
	}
	return c.consume(ctx, c.queueName, open, func(ctx context.Context, d amqp091.Delivery) {
		handleDelivery(ctx, d.Body, d, handler)
	})
}

// ConsumeSynced delivers sync completion messages to handler until ctx is
// done. Each consumer gets its own exclusive queue, so every server instance
// sees every message.
func (c *Client) ConsumeSynced(ctx context.Context, handler SyncedHandler) error {
	open := func(ch *amqp091.Channel) (<-chan amqp091.Delivery, error) {
		q, err := ch.QueueDeclare("", false, true, true, false, nil)
		if err != nil {
			return nil, fmt.Errorf("declare synced queue: %w", err)
		}
		if err := ch.QueueBind(q.Name, c.SyncedRoutingKey(), c.exchangeName, false, nil); err != nil {
			return nil, fmt.Errorf("bind synced queue: %w", err)
		}
		return ch.Consume(q.Name, "", false, true, false, false, nil)
	}
	return c.consume(ctx, c.SyncedRoutingKey(), open, func(ctx context.Context, d amqp091.Delivery) {
		handleSyncedDelivery(ctx, d.Body, d, handler)
	})
}

type deliveryFunc func(context.Context, amqp091.Delivery)

func (c *Client) consume(ctx context.Context, name string, open func(*amqp091.Channel) (<-chan amqp091.Delivery, error), deliver deliveryFunc) error {
	for attempt := 0; ; attempt++ {
		err := c.consumeOnce(ctx, name, open, deliver)
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "Stopping message consumption", "queue", name, "reason", ctx.Err())
			return ctx.Err()
		}
		if err != nil && !isConnectionError(err) {
			return err
		}
		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP consumer disconnected, retrying", "queue", name, "error", err, "retry_in", wait.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, name string, open func(*amqp091.Channel) (<-chan amqp091.Delivery, error), deliver deliveryFunc) error {
	c.mu.Lock()
	ch, err := c.channelLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	msgs, err := open(ch)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	slog.InfoContext(ctx, "Started consuming messages", "queue", name)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			deliver(ctx, delivery)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// handleDelivery acks handled messages, drops undecodable ones and requeues
// those the handler failed on.
func handleDelivery(ctx context.Context, body []byte, ack acknowledger, handler RefreshHandler) {
	msg, err := FigureRefreshMessageFromJSON(body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode refresh message", "error", err)
		_ = ack.Nack(false, false)
		return
	}
	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle refresh message", "error", err, "message_id", msg.ID.String())
		_ = ack.Nack(false, true)
		return
	}
	_ = ack.Ack(false)
	slog.InfoContext(ctx, "Processed refresh message", "message_id", msg.ID.String(), "sections", len(msg.Sections))
}

// handleSyncedDelivery acks or drops a completion message. Completion
// messages are never requeued: the next sync sends a fresh one.
func handleSyncedDelivery(ctx context.Context, body []byte, ack acknowledger, handler SyncedHandler) {
	msg, err := FigureSyncedMessageFromJSON(body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode synced message", "error", err)
		_ = ack.Nack(false, false)
		return
	}
	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle synced message", "error", err, "message_id", msg.ID.String())
		_ = ack.Nack(false, false)
		return
	}
	_ = ack.Ack(false)
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.StoreInt32(&c.state, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff returns 1s, 2s, 4s... capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel closed", "dial"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	var err error
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}
