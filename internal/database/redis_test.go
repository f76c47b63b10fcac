package database

import (
	"context"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/dss-scanner/internal/testutil"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewRedisConnection(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewRedisConnection(testutil.RedisConfigFor(t, s.Addr()), quietLogger())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestNewRedisConnection_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	cfg := testutil.RedisConfigFor(t, s.Addr())
	s.Close()

	client, err := NewRedisConnection(cfg, quietLogger())
	assert.Nil(t, client)
	assert.ErrorContains(t, err, "failed to connect to Redis")
}
