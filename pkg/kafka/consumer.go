package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(ctx context.Context, data []byte) error
}

// Consumer reads a topic and dispatches to a registered handler with
// bounded retries. Monitoring records arrive at polling cadence (one
// per cycle), so a single reader loop is sufficient.
type Consumer struct {
	cfg      *ConsumerConfig
	reader   *kafka.Reader
	handler  MessageHandler
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:    "default",
		RetryMax:   3,
		BackoffMin: 50 * time.Millisecond,
		BackoffMax: 2 * time.Second,
		MinBytes:   1,
		MaxBytes:   10e6,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	return &Consumer{
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}, nil
}

// RegisterHandler registers the message handler; its Topic() decides
// what the consumer subscribes to.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	if c.handler != nil {
		log.Printf("warn: handler already registered for topic %s", c.handler.Topic())
		return
	}
	c.handler = handler
}

// Start starts the consume loop.
func (c *Consumer) Start() error {
	if c.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	c.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.cfg.Brokers,
		Topic:    c.handler.Topic(),
		GroupID:  c.cfg.GroupID,
		MinBytes: c.cfg.MinBytes,
		MaxBytes: c.cfg.MaxBytes,
	})

	c.wg.Add(1)
	go c.consumeLoop()

	log.Printf("kafka consumer: started topic=%s group=%s", c.handler.Topic(), c.cfg.GroupID)
	return nil
}

// Stop stops the consumer gracefully.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error

	c.stopOnce.Do(func() {
		close(c.stopChan)

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()

		select {
		case <-ctx.Done():
			stopErr = fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
		case <-done:
		}

		if c.reader != nil {
			if err := c.reader.Close(); err != nil {
				log.Printf("error closing reader: %v", err)
			}
		}
	})

	return stopErr
}

func (c *Consumer) consumeLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		msg, err := c.reader.FetchMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				log.Printf("error reading message: %v", err)
			}
			continue
		}

		c.handleWithRetry(msg)
	}
}

func (c *Consumer) handleWithRetry(msg kafka.Message) {
	var err error
	for attempt := 1; ; attempt++ {
		err = c.handler.Handle(context.Background(), msg.Value)
		if err == nil || attempt > c.cfg.RetryMax {
			break
		}
		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-c.stopChan:
			return
		}
	}
	if err != nil {
		log.Printf("error handling message from topic %s: %v", c.handler.Topic(), err)
	}

	// Commit either way; a record that keeps failing would otherwise
	// poison the partition.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.Printf("error committing message: %v", err)
	}
	cancel()
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	exp := min * time.Duration(1<<uint(attempt-1))
	if exp > max {
		exp = max
	}
	jitter := time.Duration(rand.Int63n(int64(exp)/2 + 1))
	return exp - jitter
}
