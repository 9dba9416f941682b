// Package rabbit carries ingest jobs over RabbitMQ.
//
// A client owns one connection and one confirm-mode channel. On start it
// declares a durable exchange, the job queue and, when configured, a
// dead-letter exchange and queue that receive rejected jobs.
//
// # Basic Usage
//
//	client, err := rabbit.NewClient(rabbit.DefaultConfig(), log)
//	if err != nil {
//		return err
//	}
//
// # Publishing
//
// Publish sends a persistent message and waits for the broker confirm.
// ErrNotConfirmed is returned when the broker nacks the message.
//
//	body, _ := json.Marshal(job)
//	err := client.Publish(ctx, body, map[string]string{"run_id": job.RunID})
//	if errors.Is(err, rabbit.ErrNotConfirmed) {
//		// the job was not accepted, mark the run failed
//	}
//
// # Consuming
//
// Consume streams deliveries until ctx is cancelled. Every message must be
// acked or nacked; a nack without requeue sends it to the dead-letter queue.
//
//	wg := &sync.WaitGroup{}
//	for msg := range client.Consume(ctx, wg) {
//		if err := handle(msg.Body()); err != nil {
//			_ = msg.NackMsg(false)
//			continue
//		}
//		_ = msg.AckMsg()
//	}
//	wg.Wait()
//
// Headers set on publish are available as strings:
//
//	runID := msg.Headers()["run_id"]
//
// # Dead Letters
//
// Rejected jobs can be inspected from the dead-letter queue:
//
//	for msg := range client.ConsumeDLQ(ctx, wg) {
//		log.Warn("dead job", nil, map[string]interface{}{"run_id": msg.Headers()["run_id"]})
//		_ = msg.AckMsg()
//	}
//
// Set DeadLetter.Ttl to dead-letter jobs that nobody consumed in time.
// Leave DeadLetter.ExchangeName empty to disable dead-lettering.
//
// # Configuration
//
//	RABBIT_HOST=localhost
//	RABBIT_PORT=5672
//	RABBIT_USER=guest
//	RABBIT_PASSWORD=guest
//	RABBIT_QUEUE=bookrag.ingest
//	RABBIT_DLX_EXCHANGE=bookrag.dlx
//	RABBIT_DLX_QUEUE=bookrag.ingest.dlq
//
// TLS is enabled with RABBIT_SSL_ENABLED; client certificates are read from
// RABBIT_CLIENT_CERT_PATH and RABBIT_CLIENT_KEY_PATH when RABBIT_USE_CERT is
// set.
//
// # FX Module Integration
//
//	app := fx.New(
//		fx.Supply(cfg.Rabbit),
//		rabbit.FXModule,
//	)
//
// The lifecycle hook runs a reconnect loop that replaces the connection and
// channel after the broker drops them. Consumers re-open their delivery
// stream on the new channel.
//
// # Thread Safety
//
// Publish and Consume are safe for concurrent use. The channel is guarded by
// an RWMutex and swapped only by the reconnect loop.
package rabbit
