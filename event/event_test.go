package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskString(t *testing.T) {
	assert.Equal(t, "NONE", None.String())
	assert.Equal(t, "READ", Read.String())
	assert.Equal(t, "READ|WRITE|CLOSE", (Read | Write | Close).String())
	assert.Equal(t, "TIMEOUT", Timeout.String())
	assert.True(t, (Read | Error).Has(Error))
	assert.False(t, Read.Has(Read|Write))
}

func TestParseBackend(t *testing.T) {
	cases := map[string]BackendKind{
		"":        BackendAuto,
		"auto":    BackendAuto,
		"select":  BackendSelect,
		"POLL":    BackendPoll,
		"epoll":   BackendEpoll,
		"kqueue":  BackendKqueue,
		"devpoll": BackendDevpoll,
	}
	for name, want := range cases {
		got, err := ParseBackend(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseBackend("iocp")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConfigValidate(t *testing.T) {
	good := DefaultConfig()
	assert.NoError(t, good.Validate())

	bad := []func(c *Config){
		func(c *Config) { c.MaxEvents = 1 },
		func(c *Config) { c.Timeout = 0 },
		func(c *Config) { c.Keepalive = -time.Second },
		func(c *Config) { c.SendBuffer = -1 },
		func(c *Config) { c.Backend = BackendKind(42) },
	}
	for i, mutate := range bad {
		c := DefaultConfig()
		mutate(&c)
		assert.ErrorIs(t, c.Validate(), ErrInvalidInput, "case %d", i)
	}
}

func TestUnsupportedBackend(t *testing.T) {
	for k := BackendSelect; k <= BackendDevpoll; k++ {
		if _, ok := factories[k]; ok {
			continue
		}
		cfg := DefaultConfig()
		cfg.Backend = k
		_, err := New(cfg)
		assert.ErrorIs(t, err, ErrBackendUnsupported, k.String())
	}
}

func TestAutoBackendIsSupported(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	defer e.Destroy()

	assert.Equal(t, autoBackend, e.Backend())
	assert.Contains(t, Supported(), e.Backend())
}
