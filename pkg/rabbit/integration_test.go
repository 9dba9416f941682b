package rabbit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"
)

func startRabbit(t *testing.T) (string, uint) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping RabbitMQ integration test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:4-management",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5672/tcp").WithStartupTimeout(60*time.Second),
			wait.ForExec([]string{"rabbitmq-diagnostics", "check_port_connectivity"}).
				WithExitCodeMatcher(func(code int) bool { return code == 0 }).
				WithStartupTimeout(60*time.Second),
		),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5672")
	require.NoError(t, err)
	return host, uint(port.Int())
}

func testConfig(host string, port uint) Config {
	cfg := DefaultConfig()
	cfg.Connection.Host = host
	cfg.Connection.Port = port
	cfg.Channel.QueueName = "test.ingest"
	cfg.DeadLetter.QueueName = "test.ingest.dlq"
	return cfg
}

func quietLogger(t *testing.T) *MockLogger {
	ctrl := gomock.NewController(t)
	l := NewMockLogger(ctrl)
	l.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	l.EXPECT().Debug(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	l.EXPECT().Warn(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	l.EXPECT().Error(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	return l
}

func TestPublishConsumeRoundTrip(t *testing.T) {
	host, port := startRabbit(t)

	var client *Rabbit
	app := fxtest.New(t,
		fx.Supply(testConfig(host, port)),
		fx.Provide(func() Logger { return quietLogger(t) }),
		FXModule,
		fx.Populate(&client),
	)
	app.RequireStart()
	defer app.RequireStop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, client.Publish(ctx, []byte(`{"run_id":"r1"}`), map[string]string{"traceparent": "00-abc"}))

	wg := &sync.WaitGroup{}
	consumeCtx, stop := context.WithCancel(ctx)
	msgs := client.Consume(consumeCtx, wg)

	select {
	case msg := <-msgs:
		assert.JSONEq(t, `{"run_id":"r1"}`, string(msg.Body()))
		assert.Equal(t, "00-abc", msg.Headers()["traceparent"])
		require.NoError(t, msg.AckMsg())
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}

	stop()
	wg.Wait()
}

func TestNackedMessageIsDeadLettered(t *testing.T) {
	host, port := startRabbit(t)

	client, err := NewClient(testConfig(host, port), quietLogger(t))
	require.NoError(t, err)
	defer client.gracefulShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, client.Publish(ctx, []byte("poison"), nil))

	wg := &sync.WaitGroup{}
	consumeCtx, stop := context.WithCancel(ctx)
	defer func() {
		stop()
		wg.Wait()
	}()

	msg := <-client.Consume(consumeCtx, wg)
	require.NotNil(t, msg)
	require.NoError(t, msg.NackMsg(false))

	select {
	case dead := <-client.ConsumeDLQ(consumeCtx, wg):
		require.NotNil(t, dead)
		assert.Equal(t, "poison", string(dead.Body()))
		require.NoError(t, dead.AckMsg())
	case <-ctx.Done():
		t.Fatal("message never reached the dead letter queue")
	}
}

func TestGracefulShutdownIsIdempotent(t *testing.T) {
	host, port := startRabbit(t)

	client, err := NewClient(testConfig(host, port), quietLogger(t))
	require.NoError(t, err)

	client.gracefulShutdown()
	client.gracefulShutdown()

	client.mu.RLock()
	defer client.mu.RUnlock()
	assert.True(t, client.conn.IsClosed())
}
