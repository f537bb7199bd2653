package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

const topicPrefix = "artastic."

// Event describes a committed change to shop data.
type Event struct {
	Entity     string      `json:"entity"`
	Op         string      `json:"op"`
	EntityID   string      `json:"entity_id"`
	Payload    interface{} `json:"payload,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Topic is artastic.<entity>.<op>, e.g. artastic.order.created.
func (e Event) Topic() string {
	return topicPrefix + e.Entity + "." + e.Op
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

var (
	ErrClosed    = errors.New("events: publisher closed")
	ErrQueueFull = errors.New("events: publish queue full")
)

// KafkaProducer hands events to a sarama AsyncProducer. Publish never waits
// on the brokers; delivery results are logged by a background drain.
type KafkaProducer struct {
	producer sarama.AsyncProducer
	logger   *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewKafkaProducer(brokers []string, logger *zap.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return NewKafkaProducerFrom(producer, logger), nil
}

// NewKafkaProducerFrom wraps producer, which must have Return.Successes and
// Return.Errors enabled.
func NewKafkaProducerFrom(producer sarama.AsyncProducer, logger *zap.Logger) *KafkaProducer {
	p := &KafkaProducer{producer: producer, logger: logger}
	p.wg.Add(2)
	go p.drainSuccesses()
	go p.drainErrors()
	return p
}

func (p *KafkaProducer) drainSuccesses() {
	defer p.wg.Done()
	for msg := range p.producer.Successes() {
		p.logger.Debug("event published",
			zap.String("topic", msg.Topic),
			zap.Int32("partition", msg.Partition),
			zap.Int64("offset", msg.Offset))
	}
}

func (p *KafkaProducer) drainErrors() {
	defer p.wg.Done()
	for perr := range p.producer.Errors() {
		p.logger.Error("failed to publish event", zap.String("topic", perr.Msg.Topic), zap.Error(perr.Err))
	}
}

// Publish queues the event. It fails only when the publisher is closed or
// its input buffer is full.
func (p *KafkaProducer) Publish(_ context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: event.Topic(),
		Key:   sarama.StringEncoder(event.EntityID),
		Value: sarama.ByteEncoder(data),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.producer.Input() <- msg:
		return nil
	default:
		p.logger.Warn("event queue full, dropping event", zap.String("topic", msg.Topic))
		return ErrQueueFull
	}
}

// Close flushes buffered events and waits for their results to be logged.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.producer.AsyncClose()
	p.wg.Wait()
	return nil
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// NewPublisher returns a Kafka publisher, or a NoopPublisher when brokers is empty.
func NewPublisher(brokers []string, logger *zap.Logger) (Publisher, error) {
	if len(brokers) == 0 {
		return NoopPublisher{}, nil
	}
	return NewKafkaProducer(brokers, logger)
}
