package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"perfpredict/internal/apperrors"
	"perfpredict/internal/logger"
	"perfpredict/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_NoDSNSelectsFallback(t *testing.T) {
	log, hook := test.NewNullLogger()

	store, mode := repositories.Open(context.Background(), repositories.Config{}, log)
	defer store.Close()

	assert.Equal(t, repositories.ModeFallback, mode)
	assert.False(t, mode.Persistent())
	assert.IsType(t, &repositories.MemoryStorage{}, store)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestOpen_UnreachableDatabaseSelectsFallback(t *testing.T) {
	log, hook := test.NewNullLogger()

	start := time.Now()
	store, mode := repositories.Open(context.Background(), repositories.Config{
		Driver:       "postgres",
		DSN:          "host=127.0.0.1 port=1 user=postgres password=postgres dbname=perfpredict sslmode=disable connect_timeout=1",
		ProbeTimeout: 500 * time.Millisecond,
	}, log)
	defer store.Close()

	assert.Equal(t, repositories.ModeFallback, mode)
	assert.IsType(t, &repositories.MemoryStorage{}, store)
	assert.Less(t, time.Since(start), 5*time.Second)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestOpen_ReachableDatabaseSelectsDurable(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())

	store, mode := repositories.Open(context.Background(), repositories.Config{
		Driver:       "sqlite",
		DSN:          dsn,
		ProbeTimeout: time.Second,
	}, logger.Discard())
	defer store.Close()

	assert.Equal(t, repositories.ModeDurable, mode)
	assert.True(t, mode.Persistent())
	assert.IsType(t, &repositories.GORMStorage{}, store)
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := repositories.Connect(context.Background(), repositories.Config{Driver: "oracle", DSN: "x"})
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
}
