package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/codehive-dev/codehive/internal/agent"
	"github.com/codehive-dev/codehive/internal/config"
	"github.com/codehive-dev/codehive/internal/ids"
	"github.com/codehive-dev/codehive/internal/logging"
	"github.com/codehive-dev/codehive/internal/protocol"
)

// newClient loads agent configuration, applies flag overrides, and
// connects a client under a freshly generated device id.
func newClient(ctx context.Context) (*agent.Client, error) {
	cfg, err := config.LoadAgentConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Env:     logging.Env(cfg.Logging.Env),
		Service: cfg.Logging.Service,
		Backend: logging.Backend(cfg.Logging.Backend),
		Debug:   cfg.Logging.Debug,
	})

	relayURL := cfg.RelayURL
	if relayURLFlag != "" {
		relayURL = relayURLFlag
	}

	deviceID, err := ids.GenerateDeviceID()
	if err != nil {
		return nil, fmt.Errorf("generate device id: %w", err)
	}

	c := agent.New(relayURL, deviceID)
	if err := c.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", relayURL, err)
	}
	return c, nil
}

func displayName() string {
	if deviceName != "" {
		return deviceName
	}
	return "anonymous"
}

func awaitRoomEntry(c *agent.Client) (*protocol.Envelope, error) {
	env := c.OnceMessage(func(e *protocol.Envelope) bool {
		return e.Type == protocol.TypeRoomCreated || e.Type == protocol.TypeRoomJoined || e.Type == protocol.TypeError
	}, 5*time.Second)
	if env == nil {
		return nil, fmt.Errorf("timed out waiting for the relay to respond")
	}
	if env.Type == protocol.TypeError {
		var em protocol.ErrorMsg
		if err := env.Unmarshal(&em); err == nil {
			return nil, fmt.Errorf("relay rejected request: %s", em.Message)
		}
		return nil, fmt.Errorf("relay rejected request")
	}
	return env, nil
}
