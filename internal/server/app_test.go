package server

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/contactkeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrHTTP = freeAddr(t)
	c.PasswordMemoryKB = 8 * 1024
	c.PasswordParallelism = 1
	return c
}

func TestNewApp_InMemory(t *testing.T) {
	var logs bytes.Buffer
	c := testConfig(t)

	app, err := NewApp(context.Background(), c, &logs)
	require.NoError(t, err)
	assert.Nil(t, app.redis)
	assert.Contains(t, logs.String(), "in-memory storage")
	assert.NotContains(t, logs.String(), c.SecretKey)
}

func TestNewApp_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	c := testConfig(t)
	c.RedisAddr = mr.Addr()

	app, err := NewApp(context.Background(), c, &bytes.Buffer{})
	require.NoError(t, err)
	require.NotNil(t, app.redis)
	assert.NoError(t, app.close())
}

func TestNewApp_BadHasherParams(t *testing.T) {
	c := testConfig(t)
	c.PasswordMemoryKB = 1

	_, err := NewApp(context.Background(), c, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), &bytes.Buffer{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
