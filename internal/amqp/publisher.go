package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"rewards/internal/core"
	"rewards/internal/log"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	dialTimeout    = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

var (
	ErrCircuitOpen   = errors.New("circuit breaker is open")
	ErrReconnectWait = errors.New("waiting before reconnecting to broker")
)

// Publisher emits reward events to a topic exchange. A broken connection is
// re-dialled lazily on the next publish, spaced by exponential backoff; after
// maxFailures consecutive failures the circuit opens and publishes fail fast
// for openTimeout.
type Publisher struct {
	url        string
	exchange   string
	routingKey string
	logger     *log.Logger

	mu           sync.Mutex
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	dialAttempts int
	nextDial     time.Time
	lastFailure  time.Time

	state        int32
	failureCount int64
}

// NewPublisher dials the broker and declares the exchange.
func NewPublisher(url, exchange, routingKey string, logger *log.Logger) (*Publisher, error) {
	if logger == nil {
		logger = log.Nop()
	}
	p := &Publisher{
		url:        url,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger.WithComponent(log.ComponentAMQP),
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connectLocked() error {
	conn, err := amqp091.DialConfig(p.url, amqp091.Config{
		Dial: amqp091.DefaultDial(dialTimeout),
	})
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	p.conn, p.channel = conn, channel
	p.dialAttempts = 0
	return nil
}

// ensureChannelLocked re-dials when the connection dropped, but not more
// often than the backoff allows.
func (p *Publisher) ensureChannelLocked() error {
	if p.channel != nil && !p.channel.IsClosed() {
		return nil
	}
	p.dropLocked()

	if now := time.Now(); now.Before(p.nextDial) {
		return fmt.Errorf("%w (%s)", ErrReconnectWait, p.nextDial.Sub(now).Round(time.Millisecond))
	}
	if err := p.connectLocked(); err != nil {
		p.nextDial = time.Now().Add(exponentialBackoff(p.dialAttempts))
		p.dialAttempts++
		return err
	}
	p.logger.Info("Reconnected to AMQP broker", "exchange", p.exchange)
	return nil
}

func (p *Publisher) dropLocked() {
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

// PublishRewardsCalculated sends a persistent JSON event for summary.
func (p *Publisher) PublishRewardsCalculated(ctx context.Context, summary core.RewardSummary) error {
	if p.isCircuitOpen() {
		return ErrCircuitOpen
	}

	body, err := NewRewardsCalculatedMessage(summary).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannelLocked(); err != nil {
		p.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.recordFailure()
		if isConnectionError(err) {
			p.dropLocked()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	p.recordSuccess()

	p.logger.DebugContext(ctx, "Published rewards event",
		log.FieldCustomerID, summary.CustomerID,
		"exchange", p.exchange,
		"routing_key", p.routingKey)
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	return err
}

// isCircuitOpen moves an open circuit to half-open once openTimeout has passed.
func (p *Publisher) isCircuitOpen() bool {
	if atomic.LoadInt32(&p.state) != StateOpen {
		return false
	}
	p.mu.Lock()
	last := p.lastFailure
	p.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&p.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

// recordFailure must be called with p.mu held.
func (p *Publisher) recordFailure() {
	p.lastFailure = time.Now()
	failures := atomic.AddInt64(&p.failureCount, 1)
	if failures >= maxFailures || atomic.LoadInt32(&p.state) == StateHalfOpen {
		if atomic.SwapInt32(&p.state, StateOpen) != StateOpen {
			p.logger.Warn("AMQP circuit opened", "failures", failures)
		}
	}
}

func (p *Publisher) recordSuccess() {
	atomic.StoreInt64(&p.failureCount, 0)
	atomic.StoreInt32(&p.state, StateClosed)
}

// exponentialBackoff returns 1s, 2s, 4s ... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
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
	for _, s := range []string{"connection refused", "connection closed", "eof", "broken pipe", "use of closed network connection", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
