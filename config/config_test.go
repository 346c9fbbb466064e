package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fzft/go-mock-httpd/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	ec, err := cfg.EventConfig()
	require.NoError(t, err)
	assert.Equal(t, event.DefaultConfig().MaxEvents, ec.MaxEvents)
	assert.Equal(t, time.Second, ec.Timeout)
	assert.Equal(t, 60*time.Second, ec.Keepalive)
	assert.Equal(t, event.BackendAuto, ec.Backend)
}

func TestParseOverridesDefaults(t *testing.T) {
	data := []byte(`
log:
  level: debug
engine:
  backend: poll
  max_events: 64
  keepalive: 10
  tcp_nodelay: true
http:
  url_max: 1024
server:
  addr: ":9090"
  workers: 2
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 1024, cfg.HTTP.URLMax)
	assert.Equal(t, Default().HTTP.HeaderMax, cfg.HTTP.HeaderMax)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 2, cfg.Server.Workers)
	assert.Equal(t, Default().Server.QueueSize, cfg.Server.QueueSize)

	ec, err := cfg.EventConfig()
	require.NoError(t, err)
	assert.Equal(t, event.BackendPoll, ec.Backend)
	assert.Equal(t, 64, ec.MaxEvents)
	assert.Equal(t, 10*time.Second, ec.Keepalive)
	assert.Equal(t, time.Second, ec.Timeout)
	assert.True(t, ec.TCPNoDelay)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"unknown backend": "engine:\n  backend: iocp\n",
		"max events":      "engine:\n  max_events: 1\n",
		"url max":         "http:\n  url_max: 0\n",
		"workers":         "server:\n  workers: -1\n",
		"empty addr":      "server:\n  addr: \"\"\n",
		"not yaml":        "engine: [",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "httpd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  workers: 8\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Server.Workers)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(err))
}
