package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Aleph-Alpha/bookrag/internal/ingest"
	"github.com/Aleph-Alpha/bookrag/pkg/logger"
	"github.com/Aleph-Alpha/bookrag/pkg/rabbit"
	"github.com/Aleph-Alpha/bookrag/pkg/tracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	mu      sync.Mutex
	ran     []string
	fail    map[string]error
	release chan struct{}
	active  int
	peak    int
}

func (r *recordingRunner) Run(ctx context.Context, runID string) (ingest.Report, error) {
	r.mu.Lock()
	r.active++
	r.peak = max(r.peak, r.active)
	r.mu.Unlock()

	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.active--
	r.ran = append(r.ran, runID)
	return ingest.Report{}, r.fail[runID]
}

func (r *recordingRunner) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

func TestPoolDispatcherSerializesRuns(t *testing.T) {
	runner := &recordingRunner{}
	d, err := NewPoolDispatcher(Config{PoolSize: 1, QueueSize: 4}, runner, logger.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, d.Dispatch(ctx, id))
	}

	require.Eventually(t, func() bool { return len(runner.snapshot()) == 3 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, runner.snapshot())
	assert.Equal(t, 1, runner.peak)

	require.NoError(t, d.Close(ctx))
	assert.ErrorIs(t, d.Dispatch(ctx, "late"), ErrClosed)
}

func TestPoolDispatcherRejectsWhenQueueFull(t *testing.T) {
	runner := &recordingRunner{release: make(chan struct{})}
	d, err := NewPoolDispatcher(Config{PoolSize: 1, QueueSize: 1}, runner, logger.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, "running"))
	require.Eventually(t, func() bool {
		runner.mu.Lock()
		defer runner.mu.Unlock()
		return runner.active == 1
	}, 5*time.Second, 10*time.Millisecond)

	// The feeder holds "blocked" while waiting for the only worker, so one
	// more fits the queue and the next is refused.
	require.NoError(t, d.Dispatch(ctx, "blocked"))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, d.Dispatch(ctx, "queued"))
	assert.ErrorIs(t, d.Dispatch(ctx, "overflow"), ErrQueueFull)

	close(runner.release)
	require.NoError(t, d.Close(ctx))
}

func TestPoolDispatcherCloseCancelsAfterDeadline(t *testing.T) {
	runner := &recordingRunner{release: make(chan struct{})}
	d, err := NewPoolDispatcher(DefaultConfig(), runner, logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(context.Background(), "slow"))
	require.Eventually(t, func() bool {
		runner.mu.Lock()
		defer runner.mu.Unlock()
		return runner.active == 1
	}, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	require.Eventually(t, func() bool { return len(runner.snapshot()) == 1 }, 5*time.Second, 10*time.Millisecond)
}

type capturePublisher struct {
	body    []byte
	headers map[string]string
	err     error
}

func (p *capturePublisher) Publish(_ context.Context, body []byte, headers map[string]string) error {
	p.body, p.headers = body, headers
	return p.err
}

func newTracer() *tracer.Tracer {
	return tracer.NewClient(tracer.Config{ServiceName: "test"}, logger.NewNop())
}

func TestRabbitDispatcherPublishesRunIDWithTraceContext(t *testing.T) {
	tr := newTracer()
	pub := &capturePublisher{}
	d := NewRabbitDispatcher(pub, tr, logger.NewNop())

	ctx, span := tr.StartSpan(context.Background(), "request")
	defer span.End()

	require.NoError(t, d.Dispatch(ctx, "run-9"))
	assert.JSONEq(t, `{"run_id":"run-9"}`, string(pub.body))
	assert.Contains(t, pub.headers, "traceparent")
}

func TestRabbitDispatcherWrapsPublishError(t *testing.T) {
	boom := errors.New("channel closed")
	d := NewRabbitDispatcher(&capturePublisher{err: boom}, newTracer(), logger.NewNop())

	err := d.Dispatch(context.Background(), "run-1")
	assert.ErrorIs(t, err, boom)
}

type fakeMessage struct {
	body    []byte
	headers map[string]string
	acked   bool
	nacked  bool
	requeue bool
}

func (m *fakeMessage) AckMsg() error { m.acked = true; return nil }

func (m *fakeMessage) NackMsg(requeue bool) error {
	m.nacked, m.requeue = true, requeue
	return nil
}

func (m *fakeMessage) Body() []byte               { return m.body }
func (m *fakeMessage) Headers() map[string]string { return m.headers }

type sliceConsumer struct {
	msgs []rabbit.Message
}

func (c sliceConsumer) Consume(_ context.Context, wg *sync.WaitGroup) <-chan rabbit.Message {
	out := make(chan rabbit.Message, len(c.msgs))
	for _, m := range c.msgs {
		out <- m
	}
	close(out)
	return out
}

func runMessage(id string) *fakeMessage {
	body, _ := json.Marshal(message{RunID: id})
	return &fakeMessage{body: body, headers: map[string]string{}}
}

func TestWorkerAcksSuccessAndDeadLettersFailures(t *testing.T) {
	ok := runMessage("ok")
	failed := runMessage("bad")
	malformed := &fakeMessage{body: []byte("{")}
	empty := &fakeMessage{body: []byte(`{}`)}

	runner := &recordingRunner{fail: map[string]error{"bad": errors.New("embed failed")}}
	w := NewWorker(sliceConsumer{msgs: []rabbit.Message{ok, failed, malformed, empty}}, runner, newTracer(), logger.NewNop())

	require.NoError(t, w.Run(context.Background()))

	assert.True(t, ok.acked)
	assert.False(t, ok.nacked)

	for _, m := range []*fakeMessage{failed, malformed, empty} {
		assert.True(t, m.nacked)
		assert.False(t, m.requeue)
		assert.False(t, m.acked)
	}
	assert.Equal(t, []string{"ok", "bad"}, runner.snapshot())
}
