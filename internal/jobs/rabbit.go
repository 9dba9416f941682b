package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Aleph-Alpha/bookrag/pkg/rabbit"
	"github.com/Aleph-Alpha/bookrag/pkg/tracer"
)

// Publisher is the publishing side of the job queue.
type Publisher interface {
	Publish(ctx context.Context, body []byte, headers map[string]string) error
}

// Consumer is the consuming side of the job queue.
type Consumer interface {
	Consume(ctx context.Context, wg *sync.WaitGroup) <-chan rabbit.Message
}

// RabbitDispatcher publishes runs to the job queue. The trace context of
// the request travels in the message headers.
type RabbitDispatcher struct {
	publisher Publisher
	tracer    *tracer.Tracer
	logger    Logger
}

func NewRabbitDispatcher(publisher Publisher, tr *tracer.Tracer, logger Logger) *RabbitDispatcher {
	return &RabbitDispatcher{publisher: publisher, tracer: tr, logger: logger}
}

func (d *RabbitDispatcher) Dispatch(ctx context.Context, runID string) error {
	body, err := json.Marshal(message{RunID: runID})
	if err != nil {
		return err
	}
	if err := d.publisher.Publish(ctx, body, d.tracer.GetCarrier(ctx)); err != nil {
		return fmt.Errorf("publish ingest run %s: %w", runID, err)
	}
	d.logger.Info("ingest run published", nil, map[string]interface{}{"run_id": runID})
	return nil
}

// Worker executes runs delivered by the job queue. A run that fails, or a
// message that cannot be decoded, is rejected without requeue so the broker
// moves it to the dead-letter queue.
type Worker struct {
	consumer Consumer
	runner   Runner
	tracer   *tracer.Tracer
	logger   Logger
}

func NewWorker(consumer Consumer, runner Runner, tr *tracer.Tracer, logger Logger) *Worker {
	return &Worker{consumer: consumer, runner: runner, tracer: tr, logger: logger}
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (w *Worker) Run(ctx context.Context) error {
	wg := &sync.WaitGroup{}
	w.logger.Info("ingest worker started", nil, nil)
	for msg := range w.consumer.Consume(ctx, wg) {
		w.handle(ctx, msg)
	}
	wg.Wait()
	w.logger.Info("ingest worker stopped", nil, nil)
	return ctx.Err()
}

func (w *Worker) handle(ctx context.Context, msg rabbit.Message) {
	var m message
	if err := json.Unmarshal(msg.Body(), &m); err != nil || m.RunID == "" {
		if err == nil {
			err = fmt.Errorf("message without run_id")
		}
		w.logger.Error("rejecting malformed ingest message", err, map[string]interface{}{"size": len(msg.Body())})
		w.settle(msg.NackMsg(false), "nack")
		return
	}

	runCtx := w.tracer.SetCarrierOnContext(ctx, msg.Headers())
	fields := map[string]interface{}{"run_id": m.RunID}
	if _, err := w.runner.Run(runCtx, m.RunID); err != nil {
		w.logger.Warn("ingest run failed, dead-lettering message", err, fields)
		w.settle(msg.NackMsg(false), "nack")
		return
	}
	w.settle(msg.AckMsg(), "ack")
}

func (w *Worker) settle(err error, op string) {
	if err != nil {
		w.logger.Error("failed to "+op+" ingest message", err, nil)
	}
}
