package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"moderation-service/metrics"

	"github.com/streadway/amqp"
)

// Message represents a received RabbitMQ message.
type Message struct {
	Body        []byte
	RoutingKey  string
	ContentType string
	Timestamp   time.Time
	DeliveryTag uint64
}

// UnmarshalTo unmarshals the message body into the provided interface.
func (m *Message) UnmarshalTo(v any) error {
	return json.Unmarshal(m.Body, v)
}

// CallbackFunc processes a message. Return:
// - nil on success (will Ack)
// - Permanent(err) for permanent failure (will Nack requeue=false)
// - any other error for transient failure (will Nack requeue=true)
type CallbackFunc func(msg *Message) error

// PermanentError marks a message processing failure as non-retriable.
type PermanentError struct{ Err error }

func (e *PermanentError) Error() string {
	if e == nil || e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError (non-retriable).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func isPermanent(err error) bool {
	var perr *PermanentError
	return errors.As(err, &perr)
}

// SubscriberConfig tunes the consumer.
type SubscriberConfig struct {
	AMQPURL        string
	Exchange       string
	Queue          string
	Workers        int
	Prefetch       int
	ReconnectDelay time.Duration
}

// Subscriber consumes classifier signal messages with a bounded worker pool.
// Ack/nack happens after the callback completes; the consume loop reconnects
// with backoff when the broker drops the channel.
type Subscriber struct {
	cfg     SubscriberConfig
	conn    *amqp.Connection
	channel *amqp.Channel

	// opMu serializes amqp operations on the channel since amqp.Channel is
	// not safe for concurrent use.
	opMu sync.Mutex

	startOnce sync.Once
	done      chan struct{}
	workers   sync.WaitGroup

	connected atomic.Bool
}

// NewSubscriber creates a subscriber and establishes the initial connection
// so callers fail fast when RabbitMQ is unreachable.
func NewSubscriber(cfg SubscriberConfig) (*Subscriber, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = cfg.Workers
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s := &Subscriber{
		cfg:  cfg,
		done: make(chan struct{}),
	}

	s.opMu.Lock()
	err := s.reconnectLocked(ctx)
	s.opMu.Unlock()
	if err != nil {
		return nil, err
	}

	return s, nil
}

// reconnectLocked tears down any existing channel/connection and recreates them.
// Caller must hold s.opMu.
func (s *Subscriber) reconnectLocked(ctx context.Context) error {
	if s.channel != nil {
		_ = s.channel.Close()
		s.channel = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}

	conn, err := amqp.Dial(s.cfg.AMQPURL)
	if err != nil {
		s.setConnected(false)
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		s.setConnected(false)
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(s.cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		s.setConnected(false)
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(s.cfg.Queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		s.setConnected(false)
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	select {
	case <-ctx.Done():
		_ = ch.Close()
		_ = conn.Close()
		s.setConnected(false)
		return fmt.Errorf("context timeout while connecting subscriber: %w", ctx.Err())
	default:
	}

	s.conn = conn
	s.channel = ch
	s.setConnected(true)
	return nil
}

func (s *Subscriber) setConnected(connected bool) {
	s.connected.Store(connected)
	if connected {
		metrics.RabbitMQConnected.Set(1)
	} else {
		metrics.RabbitMQConnected.Set(0)
	}
}

// Start begins consuming messages and dispatching them to the routing key
// callbacks. Safe to call once; later calls are no-ops.
func (s *Subscriber) Start(routingKeyCallbacks map[string]CallbackFunc) {
	s.startOnce.Do(func() {
		jobs := make(chan amqp.Delivery, s.cfg.Workers)

		for i := 0; i < s.cfg.Workers; i++ {
			workerID := i + 1
			s.workers.Add(1)
			go s.worker(workerID, jobs, routingKeyCallbacks)
		}

		go s.consumeLoop(jobs, routingKeyCallbacks)
	})
}

func (s *Subscriber) worker(workerID int, jobs <-chan amqp.Delivery, callbacks map[string]CallbackFunc) {
	defer s.workers.Done()
	for delivery := range jobs {
		startedAt := time.Now()

		callback, exists := callbacks[delivery.RoutingKey]
		if !exists {
			s.opMu.Lock()
			nackErr := delivery.Nack(false, false)
			s.opMu.Unlock()
			metrics.SignalsTotal.WithLabelValues("unroutable").Inc()
			log.Printf("rabbitmq worker=%d no callback for routing_key=%s delivery_tag=%d nack_err=%v",
				workerID, delivery.RoutingKey, delivery.DeliveryTag, nackErr)
			continue
		}

		msg := &Message{
			Body:        delivery.Body,
			RoutingKey:  delivery.RoutingKey,
			ContentType: delivery.ContentType,
			Timestamp:   delivery.Timestamp,
			DeliveryTag: delivery.DeliveryTag,
		}

		err := callback(msg)

		s.opMu.Lock()
		var ackErr error
		switch {
		case err == nil:
			ackErr = delivery.Ack(false)
		case isPermanent(err):
			ackErr = delivery.Nack(false, false)
		default:
			ackErr = delivery.Nack(false, true)
		}
		s.opMu.Unlock()

		result := "success"
		if err != nil {
			if isPermanent(err) {
				result = "permanent_error"
			} else {
				result = "transient_error"
			}
			log.Printf("rabbitmq worker=%d routing_key=%s delivery_tag=%d result=%s err=%v ack_err=%v",
				workerID, delivery.RoutingKey, delivery.DeliveryTag, result, err, ackErr)
		}
		metrics.SignalsTotal.WithLabelValues(result).Inc()
		metrics.SignalProcessingSeconds.Observe(time.Since(startedAt).Seconds())
	}
}

// consumeLoop keeps a consumer alive across broker restarts. Bindings and QoS
// are re-applied on every (re)connect.
func (s *Subscriber) consumeLoop(jobs chan<- amqp.Delivery, callbacks map[string]CallbackFunc) {
	backoff := s.cfg.ReconnectDelay
	for {
		select {
		case <-s.done:
			close(jobs)
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		s.opMu.Lock()
		if s.conn == nil || s.conn.IsClosed() || s.channel == nil {
			if err := s.reconnectLocked(ctx); err != nil {
				s.opMu.Unlock()
				cancel()
				log.Printf("rabbitmq reconnect failed queue=%s err=%v", s.cfg.Queue, err)
				time.Sleep(backoff)
				if backoff < 30*time.Second {
					backoff *= 2
				}
				continue
			}
		}

		if err := s.channel.Qos(s.cfg.Prefetch, 0, false); err != nil {
			s.setConnected(false)
			s.opMu.Unlock()
			cancel()
			log.Printf("rabbitmq qos failed queue=%s err=%v", s.cfg.Queue, err)
			time.Sleep(backoff)
			continue
		}

		bindErr := false
		for routingKey := range callbacks {
			if err := s.channel.QueueBind(s.cfg.Queue, routingKey, s.cfg.Exchange, false, nil); err != nil {
				s.setConnected(false)
				log.Printf("rabbitmq bind failed queue=%s routing_key=%s err=%v", s.cfg.Queue, routingKey, err)
				bindErr = true
				break
			}
		}
		if bindErr {
			s.opMu.Unlock()
			cancel()
			time.Sleep(backoff)
			continue
		}

		msgs, err := s.channel.Consume(s.cfg.Queue, "", false, false, false, false, nil)
		s.opMu.Unlock()
		cancel()
		if err != nil {
			s.setConnected(false)
			log.Printf("rabbitmq consume failed queue=%s err=%v", s.cfg.Queue, err)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}

		log.Printf("rabbitmq consuming exchange=%s queue=%s workers=%d prefetch=%d",
			s.cfg.Exchange, s.cfg.Queue, s.cfg.Workers, s.cfg.Prefetch)
		backoff = s.cfg.ReconnectDelay

	deliveries:
		for {
			select {
			case <-s.done:
				close(jobs)
				return
			case delivery, ok := <-msgs:
				if !ok {
					s.setConnected(false)
					select {
					case <-s.done:
						close(jobs)
						return
					default:
					}
					log.Printf("rabbitmq delivery channel closed queue=%s; reconnecting", s.cfg.Queue)
					time.Sleep(backoff)
					break deliveries
				}
				jobs <- delivery
			}
		}
	}
}

// Close stops consumption, closes the connection and channel, and waits for
// in-flight callbacks to finish so callers can tear down downstream services
// once it returns.
func (s *Subscriber) Close() error {
	select {
	case <-s.done:
		// already closed
	default:
		close(s.done)
	}

	var err error
	s.opMu.Lock()

	if s.channel != nil {
		if channelErr := s.channel.Close(); channelErr != nil {
			log.Printf("Failed to close channel: %v", channelErr)
			err = channelErr
		}
		s.channel = nil
	}

	if s.conn != nil {
		if connErr := s.conn.Close(); connErr != nil {
			log.Printf("Failed to close connection: %v", connErr)
			if err == nil {
				err = connErr
			}
		}
		s.conn = nil
	}

	s.setConnected(false)
	// Workers ack under opMu, so the wait must happen after releasing it.
	s.opMu.Unlock()

	s.workers.Wait()
	return err
}

// IsConnected indicates if the subscriber is currently connected (best-effort).
func (s *Subscriber) IsConnected() bool {
	if s.conn == nil || s.channel == nil {
		return false
	}
	if s.conn.IsClosed() {
		return false
	}
	return s.connected.Load()
}
