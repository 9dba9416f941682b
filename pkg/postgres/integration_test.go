package postgres

import (
	"context"
	"errors"
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

type testRun struct {
	ID        string `gorm:"primaryKey"`
	Status    string
	Chunks    int
	CreatedAt time.Time
}

func setupPostgresContainer(t *testing.T) Config {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image: "postgres:15",
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Connection = Connection{
		Host:     host,
		Port:     port.Port(),
		User:     "testuser",
		Password: "testpass",
		DbName:   "testdb",
		SSLMode:  "disable",
	}
	return cfg
}

func newMockLogger(t *testing.T) *MockLogger {
	ctrl := gomock.NewController(t)
	l := NewMockLogger(ctrl)
	l.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	l.EXPECT().Debug(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	l.EXPECT().Warn(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	l.EXPECT().Error(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	return l
}

func TestPostgresWithFXModule(t *testing.T) {
	cfg := setupPostgresContainer(t)

	var pg *Postgres
	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(func() Logger { return newMockLogger(t) }),
		FXModule,
		fx.Populate(&pg),
	)
	app.RequireStart()
	defer app.RequireStop()

	ctx := context.Background()
	require.NoError(t, pg.Migrate(ctx, &testRun{}))

	t.Run("create and read back", func(t *testing.T) {
		require.NoError(t, pg.Create(ctx, &testRun{ID: "a", Status: "scheduled", CreatedAt: time.Now()}))

		var got testRun
		require.NoError(t, pg.First(ctx, &got, "id = ?", "a"))
		assert.Equal(t, "scheduled", got.Status)
	})

	t.Run("duplicate key is translated", func(t *testing.T) {
		err := pg.Create(ctx, &testRun{ID: "a", Status: "scheduled"})
		assert.True(t, errors.Is(err, ErrDuplicateKey), "got %v", err)
	})

	t.Run("update columns", func(t *testing.T) {
		err := pg.UpdateColumns(ctx, &testRun{}, map[string]interface{}{"status": "succeeded", "chunks": 12}, "id = ?", "a")
		require.NoError(t, err)

		var got testRun
		require.NoError(t, pg.First(ctx, &got, "id = ?", "a"))
		assert.Equal(t, "succeeded", got.Status)
		assert.Equal(t, 12, got.Chunks)
	})

	t.Run("update of missing row", func(t *testing.T) {
		err := pg.UpdateColumns(ctx, &testRun{}, map[string]interface{}{"status": "failed"}, "id = ?", "missing")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("missing record", func(t *testing.T) {
		var got testRun
		assert.ErrorIs(t, pg.First(ctx, &got, "id = ?", "nope"), ErrRecordNotFound)
	})

	t.Run("query builder orders and limits", func(t *testing.T) {
		base := time.Now()
		for i, id := range []string{"b", "c", "d"} {
			require.NoError(t, pg.Create(ctx, &testRun{ID: id, Status: "scheduled", CreatedAt: base.Add(time.Duration(i) * time.Second)}))
		}

		var runs []testRun
		require.NoError(t, pg.Query(ctx).Where("status = ?", "scheduled").Order("created_at DESC").Limit(2).Find(&runs))
		require.Len(t, runs, 2)
		assert.Equal(t, "d", runs[0].ID)
		assert.Equal(t, "c", runs[1].ID)

		var n int64
		require.NoError(t, pg.Query(ctx).Count(&testRun{}, &n))
		assert.Equal(t, int64(4), n)
	})
}

func TestNewPostgresFailsOnUnreachableDatabase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Connection.Host = "127.0.0.1"
	cfg.Connection.Port = "1"

	_, err := NewPostgres(cfg, newMockLogger(t))
	require.Error(t, err)
}
