package rabbit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrNotConfirmed is returned when the broker nacks a published message.
var ErrNotConfirmed = errors.New("[Rabbit] publish not confirmed by broker")

// Message is a delivery handed to consumers. Exactly one of AckMsg or
// NackMsg must be called.
type Message interface {
	AckMsg() error
	NackMsg(requeue bool) error
	Body() []byte
	Headers() map[string]string
}

type ConsumerMessage struct {
	body     []byte
	headers  map[string]string
	delivery amqp.Delivery
}

func (m *ConsumerMessage) AckMsg() error {
	return m.delivery.Ack(false)
}

func (m *ConsumerMessage) NackMsg(requeue bool) error {
	return m.delivery.Nack(false, requeue)
}

func (m *ConsumerMessage) Body() []byte {
	return m.body
}

func (m *ConsumerMessage) Headers() map[string]string {
	return m.headers
}

// Consume streams deliveries from the job queue until ctx is cancelled or
// the client shuts down. The returned channel is closed on exit. A
// broken delivery channel (for example after a reconnect) is re-opened.
func (rb *Rabbit) Consume(ctx context.Context, wg *sync.WaitGroup) <-chan Message {
	return rb.consumeQueue(ctx, wg, rb.cfg.Channel.QueueName)
}

// ConsumeDLQ streams deliveries that were dead-lettered.
func (rb *Rabbit) ConsumeDLQ(ctx context.Context, wg *sync.WaitGroup) <-chan Message {
	return rb.consumeQueue(ctx, wg, rb.cfg.DeadLetter.QueueName)
}

func (rb *Rabbit) consumeQueue(ctx context.Context, wg *sync.WaitGroup, queueName string) <-chan Message {
	outChan := make(chan Message, rb.cfg.Channel.PrefetchCount)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(outChan)
	outerLoop:
		for {
			select {
			case <-rb.shutdownSignal:
				rb.logger.Info("consumer is shutting down due to shutdown signal", nil, nil)
				return
			case <-ctx.Done():
				rb.logger.Info("consumer is shutting down due to context cancellation", ctx.Err(), nil)
				return
			default:
			}

			rb.mu.RLock()
			msgs, err := rb.channel.Consume(queueName, "", false, false, false, false, nil)
			rb.mu.RUnlock()
			if err != nil {
				rb.logger.Error("error in establishing consumer for rabbit", err, map[string]interface{}{
					"queue_name": queueName,
				})
				time.Sleep(500 * time.Millisecond)
				continue
			}

			for {
				select {
				case <-ctx.Done():
					rb.logger.Info("consumer is shutting down due to context cancellation", ctx.Err(), nil)
					return
				case <-rb.shutdownSignal:
					rb.logger.Info("consumer is shutting down due to shutdown signal", nil, nil)
					return
				case d, ok := <-msgs:
					if !ok {
						continue outerLoop
					}
					rb.logger.Debug("message consumed from rabbit", nil, map[string]interface{}{
						"queue_name": queueName,
						"size":       len(d.Body),
					})
					msg := &ConsumerMessage{body: d.Body, headers: stringHeaders(d.Headers), delivery: d}
					select {
					case outChan <- msg:
					case <-ctx.Done():
						_ = d.Nack(false, true)
						return
					}
				}
			}
		}
	}()
	return outChan
}

// Publish sends body to the configured exchange and routing key and waits
// for the broker confirm. Headers are attached as string values.
func (rb *Rabbit) Publish(ctx context.Context, body []byte, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		rb.logger.Error("context error for publishing msg into rabbit", err, nil)
		return err
	}

	table := amqp.Table{}
	for k, v := range headers {
		table[k] = v
	}

	rb.mu.RLock()
	dc, err := rb.channel.PublishWithDeferredConfirmWithContext(ctx,
		rb.cfg.Channel.ExchangeName,
		rb.cfg.Channel.RoutingKey,
		false,
		false,
		amqp.Publishing{
			Headers:      table,
			ContentType:  rb.cfg.Channel.ContentType,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	rb.mu.RUnlock()
	if err != nil {
		rb.logger.Error("error in publishing msg into rabbit", err, nil)
		return fmt.Errorf("[Rabbit] publish: %w", err)
	}

	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("[Rabbit] wait for confirm: %w", err)
	}
	if !acked {
		return ErrNotConfirmed
	}
	return nil
}

func stringHeaders(t amqp.Table) map[string]string {
	out := make(map[string]string, len(t))
	for k, v := range t {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
