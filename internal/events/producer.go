package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/artisans-echo/artwork-service/internal/breaker"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var ErrProducerClosed = errors.New("producer is closed")

// Publisher delivers artwork activity events.
type Publisher interface {
	Publish(ctx context.Context, event ArtworkEvent) error
	Close() error
}

type Producer struct {
	writer     *kafka.Writer
	breaker    *gobreaker.CircuitBreaker
	mu         sync.RWMutex
	closed     bool
	maxRetries int
	logger     *logrus.Logger
}

func NewProducer(brokers []string, topic string, maxRetries int, breakerMaxReq uint32, breakerTimeout time.Duration, logger *logrus.Logger) *Producer {
	if logger == nil {
		logger = logrus.New()
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			MaxAttempts:  3,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			ReadTimeout:  10 * time.Second,
			RequiredAcks: kafka.RequireOne,
		},
		breaker:    breaker.New("kafka", breakerMaxReq, breakerTimeout, logger),
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Publish writes event through the circuit breaker. While the breaker is
// open it fails fast with gobreaker.ErrOpenState.
func (p *Producer) Publish(ctx context.Context, event ArtworkEvent) error {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.write(ctx, event)
	})
	return err
}

func (p *Producer) write(ctx context.Context, event ArtworkEvent) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrProducerClosed
	}
	p.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err = p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(event.Key()),
			Value: data,
			Time:  event.Timestamp,
		})
		if err == nil {
			p.logger.WithFields(logrus.Fields{
				"event_type": event.Type,
				"event_id":   event.EventID,
				"attempt":    attempt + 1,
			}).Debug("Published artwork event")
			return nil
		}

		lastErr = err
		p.logger.WithFields(logrus.Fields{
			"attempt":     attempt + 1,
			"max_retries": p.maxRetries,
			"event_type":  event.Type,
		}).WithError(err).Warn("Failed to publish Kafka message, retrying...")

		if attempt < p.maxRetries-1 {
			backoff := time.Duration(attempt+1) * 200 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("failed to publish event after %d attempts: %w", p.maxRetries, lastErr)
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	p.logger.Info("Closing Kafka producer")
	return p.writer.Close()
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ArtworkEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
