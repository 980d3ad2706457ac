// Package config loads relay and agent configuration from YAML, the
// way the teacher's services load theirs: an env var with a sane
// default path, unmarshalled with yaml.v3, validated and defaulted in
// one pass.
package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// HTTP configures the relay's listen address.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// Public configures the host/port advertised in invite URIs, which
// may differ from the listen address behind a proxy or NAT.
type Public struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Admin configures the bcrypt-hashed bearer token gating /metrics and
// /rooms. An empty hash disables the admin surface's auth check.
type Admin struct {
	TokenHash string `yaml:"tokenHash"`
}

// Logging mirrors the teacher's env/service/version/backend knobs.
type Logging struct {
	Env       string `yaml:"env"`
	Service   string `yaml:"service"`
	Version   string `yaml:"version"`
	Backend   string `yaml:"backend"`
	AddSource bool   `yaml:"addSource"`
	Debug     bool   `yaml:"debug"`
}

// Persistence selects and configures the room-metadata backend.
type Persistence struct {
	Backend  string        `yaml:"backend"` // "file" | "postgres" | "none"
	Path     string        `yaml:"path"`    // file backend
	DSN      string        `yaml:"dsn"`     // postgres backend
	Interval time.Duration `yaml:"interval"`
}

// Timeouts mirrors the relay's liveness/expiry sweep cadence.
type Timeouts struct {
	HeartbeatInterval  time.Duration `yaml:"heartbeatInterval"`
	HeartbeatTimeout   time.Duration `yaml:"heartbeatTimeout"`
	RoomExpiryCheckInt time.Duration `yaml:"roomExpiryCheckInterval"`
}

// RelayConfig is the relay binary's full configuration.
type RelayConfig struct {
	HTTP        HTTP        `yaml:"http"`
	Public      Public      `yaml:"public"`
	Admin       Admin       `yaml:"admin"`
	Logging     Logging     `yaml:"logging"`
	Persistence Persistence `yaml:"persistence"`
	Timeouts    Timeouts    `yaml:"timeouts"`
}

// LoadRelayConfig reads and validates the relay config from
// CODEHIVE_RELAY_CONFIG (default "./config/relay.yaml").
func LoadRelayConfig() (*RelayConfig, error) {
	path := os.Getenv("CODEHIVE_RELAY_CONFIG")
	if path == "" {
		path = "./config/relay.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg RelayConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *RelayConfig) setDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = "127.0.0.1:4819"
	}
	if c.Public.Host == "" {
		c.Public.Host = "127.0.0.1"
	}
	if c.Public.Port == 0 {
		c.Public.Port = 4819
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "codehive-relay"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Persistence.Backend == "" {
		c.Persistence.Backend = "file"
	}
	if c.Persistence.Path == "" {
		c.Persistence.Path = "./data/rooms.json"
	}
	if c.Persistence.Interval == 0 {
		c.Persistence.Interval = 60 * time.Second
	}
}

func (c *RelayConfig) validate() error {
	switch c.Persistence.Backend {
	case "file", "none":
	case "postgres":
		if c.Persistence.DSN == "" {
			return errors.New("persistence.dsn is required when persistence.backend is postgres")
		}
	default:
		return errors.New("persistence.backend must be one of file, postgres, none")
	}
	return nil
}

// AgentConfig is the agent binary's full configuration.
type AgentConfig struct {
	RelayURL string  `yaml:"relayUrl"`
	Logging  Logging `yaml:"logging"`
}

// LoadAgentConfig reads the agent config from CODEHIVE_AGENT_CONFIG
// (default "./config/agent.yaml"). A missing file is not an error; the
// caller gets zero-value defaults filled in.
func LoadAgentConfig() (*AgentConfig, error) {
	path := os.Getenv("CODEHIVE_AGENT_CONFIG")
	if path == "" {
		path = "./config/agent.yaml"
	}

	var cfg AgentConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.setDefaults()
			return &cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *AgentConfig) setDefaults() {
	if c.RelayURL == "" {
		c.RelayURL = "ws://127.0.0.1:4819/ws"
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "codehive-agent"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
}
