package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":5000", c.HTTPAddr)
	assert.Equal(t, DatabaseBolt, c.DatabaseDriver)
	assert.Equal(t, BlobFS, c.BlobDriver)
	assert.Equal(t, "/uploads", c.UploadURLPrefix)
	assert.Equal(t, int64(8<<20), c.MaxUploadBytes)
	assert.Equal(t, 6, c.MinPasswordLength)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Zero(t, c.SweepInterval)
}

func TestLoad_DefaultsOnly(t *testing.T) {
	c, err := load(nil, nil)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, c)
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_JSONOverlayKeepsMissingKeys(t *testing.T) {
	path := writeConfigFile(t, `{
		"http_addr": ":7000",
		"database_driver": "postgres",
		"request_timeout": "5s",
		"sweep_interval": 60000000000,
		"allowed_origins": ["https://example.org"]
	}`)

	c, err := load([]string{"-c", path}, nil)
	require.NoError(t, err)

	assert.Equal(t, ":7000", c.HTTPAddr)
	assert.Equal(t, DatabasePostgres, c.DatabaseDriver)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.Equal(t, time.Minute, c.SweepInterval)
	assert.Equal(t, []string{"https://example.org"}, c.AllowedOrigins)
	assert.Equal(t, "uploads", c.UploadDir)
	assert.Equal(t, 6, c.MinPasswordLength)
}

func TestLoad_JSONErrors(t *testing.T) {
	_, err := load([]string{"-c", filepath.Join(t.TempDir(), "missing.json")}, nil)
	require.Error(t, err)

	bad := writeConfigFile(t, `{"request_timeout": true}`)
	_, err = load([]string{"-c", bad}, nil)
	require.Error(t, err)
}

func TestLoad_EnvOverridesJSON(t *testing.T) {
	path := writeConfigFile(t, `{"upload_dir": "from-json", "min_password_length": 8}`)

	c, err := load([]string{"-c", path}, []string{
		"GOPHLOCKER_UPLOAD_DIR=from-env",
		"GOPHLOCKER_ALLOWED_ORIGINS=https://a.example,https://b.example",
		"GOPHLOCKER_SWEEP_INTERVAL=10m",
	})
	require.NoError(t, err)

	assert.Equal(t, "from-env", c.UploadDir)
	assert.Equal(t, 8, c.MinPasswordLength)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, c.SweepInterval)
}

func TestLoad_HostingAliases(t *testing.T) {
	c, err := load(nil, []string{"PORT=8081", "FRONTEND_URLS= https://x.example , ,http://localhost:3000"})
	require.NoError(t, err)

	assert.Equal(t, ":8081", c.HTTPAddr)
	assert.Equal(t, []string{"https://x.example", "http://localhost:3000"}, c.AllowedOrigins)

	c, err = load(nil, []string{"PORT=8081", "GOPHLOCKER_HTTP_ADDR=127.0.0.1:9999"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", c.HTTPAddr)
}

func TestLoad_FlagsWin(t *testing.T) {
	c, err := load(
		[]string{"-a", ":1234", "-D", "postgres", "-d", "postgres://x", "-B", "s3", "-u", "/srv/up", "-l", "debug", "-unknown", "z"},
		[]string{"GOPHLOCKER_HTTP_ADDR=:9999"},
	)
	require.NoError(t, err)

	assert.Equal(t, ":1234", c.HTTPAddr)
	assert.Equal(t, DatabasePostgres, c.DatabaseDriver)
	assert.Equal(t, "postgres://x", c.DatabaseDSN)
	assert.Equal(t, BlobS3, c.BlobDriver)
	assert.Equal(t, "/srv/up", c.UploadDir)
	assert.Equal(t, "debug", c.LogLevel)
}
