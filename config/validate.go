package config

import (
	"fmt"
	"strings"
)

// MinSecretBytes is the shortest accepted JWT HMAC key.
const MinSecretBytes = 16

// Validate checks the configuration for values the node cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("ListenAddress required")
	}
	switch c.Backend {
	case "leveldb", "bolt":
		if strings.TrimSpace(c.DataDir) == "" {
			return fmt.Errorf("DataDir required for backend %s", c.Backend)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown Backend %q", c.Backend)
	}
	if len(c.JWTSecret()) < MinSecretBytes {
		return fmt.Errorf("Auth.Secret must be at least %d bytes", MinSecretBytes)
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("RateLimit values must be non-negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst == 0 {
		return fmt.Errorf("RateLimit.Burst required when RequestsPerSecond is set")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("Telemetry.SampleRatio must be within [0, 1]")
	}
	if _, err := c.EngineConfig(); err != nil {
		return err
	}
	return nil
}
