package server

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/server/config"
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
	dir := t.TempDir()

	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = freeAddr(t)
	c.GRPCHealthAddr = ""
	c.BoltPath = filepath.Join(dir, "meta.db")
	c.UploadDir = filepath.Join(dir, "uploads")
	c.LogLevel = "error"
	return c
}

func TestNewApp_UnknownDrivers(t *testing.T) {
	c := testConfig(t)
	c.DatabaseDriver = "mysql"
	_, err := NewApp(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db init error")

	c = testConfig(t)
	c.BlobDriver = "ftp"
	_, err = NewApp(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blob store init error")
}

func TestApp_ServesUntilCancelled(t *testing.T) {
	c := testConfig(t)
	c.SweepInterval = time.Hour

	app, err := NewApp(context.Background(), c, &bytes.Buffer{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	assert.Eventually(t, func() bool {
		resp, err := http.Get("http://" + c.HTTPAddr + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 50*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestApp_StopsWhenServerFails(t *testing.T) {
	c := testConfig(t)
	c.HTTPAddr = "127.0.0.1:99999"

	app, err := NewApp(context.Background(), c, &bytes.Buffer{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after server failure")
	}
}
