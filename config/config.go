// Package config loads the server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fzft/go-mock-httpd/event"
	"github.com/fzft/go-mock-httpd/httpwire"
	"github.com/fzft/go-mock-httpd/log"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid")

// Engine mirrors event.Config. Durations are whole seconds.
type Engine struct {
	Backend    string `yaml:"backend"`
	MaxEvents  int    `yaml:"max_events"`
	Timeout    int    `yaml:"timeout"`
	Keepalive  int    `yaml:"keepalive"`
	SendBuffer int    `yaml:"send_buffer"`
	RecvBuffer int    `yaml:"recv_buffer"`
	TCPNoDelay bool   `yaml:"tcp_nodelay"`
	TCPNoPush  bool   `yaml:"tcp_nopush"`
}

type Server struct {
	Addr      string `yaml:"addr"`
	Workers   int    `yaml:"workers"`
	QueueSize int    `yaml:"queue_size"`
	// IOTimeout bounds each blocking read or write on a connection, in seconds.
	IOTimeout int    `yaml:"io_timeout"`
}

type Config struct {
	Log    log.Config     `yaml:"log"`
	Engine Engine         `yaml:"engine"`
	HTTP   httpwire.Attrs `yaml:"http"`
	Server Server         `yaml:"server"`
}

func Default() *Config {
	ec := event.DefaultConfig()
	cfg := &Config{HTTP: httpwire.DefaultAttrs()}
	cfg.Log = log.Config{Level: "info", Encoding: "console"}
	cfg.Engine = Engine{
		Backend:   ec.Backend.String(),
		MaxEvents: ec.MaxEvents,
		Timeout:   int(ec.Timeout / time.Second),
		Keepalive: int(ec.Keepalive / time.Second),
	}
	cfg.Server = Server{
		Addr:      "127.0.0.1:8080",
		Workers:   4,
		QueueSize: 1024,
		IOTimeout: 5,
	}
	return cfg
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.EventConfig(); err != nil {
		return fmt.Errorf("%w: engine: %v", ErrInvalid, err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("%w: http: %v", ErrInvalid, err)
	}
	s := c.Server
	switch {
	case s.Addr == "":
		return fmt.Errorf("%w: server: empty addr", ErrInvalid)
	case s.Workers <= 0:
		return fmt.Errorf("%w: server: workers %d", ErrInvalid, s.Workers)
	case s.QueueSize <= 0:
		return fmt.Errorf("%w: server: queue_size %d", ErrInvalid, s.QueueSize)
	case s.IOTimeout <= 0:
		return fmt.Errorf("%w: server: io_timeout %d", ErrInvalid, s.IOTimeout)
	}
	return nil
}

// EventConfig converts the engine section, validating it the way the
// engine will.
func (c *Config) EventConfig() (event.Config, error) {
	kind, err := event.ParseBackend(c.Engine.Backend)
	if err != nil {
		return event.Config{}, err
	}
	ec := event.Config{
		Backend:    kind,
		MaxEvents:  c.Engine.MaxEvents,
		Timeout:    time.Duration(c.Engine.Timeout) * time.Second,
		Keepalive:  time.Duration(c.Engine.Keepalive) * time.Second,
		SendBuffer: c.Engine.SendBuffer,
		RecvBuffer: c.Engine.RecvBuffer,
		TCPNoDelay: c.Engine.TCPNoDelay,
		TCPNoPush:  c.Engine.TCPNoPush,
	}
	return ec, ec.Validate()
}
