package config

import (
	"fmt"
	"path/filepath"

	"casechain/core"
	"casechain/crypto"
	"casechain/native/reward"
	"casechain/native/staking"
	"casechain/observability/logging"
	"casechain/observability/otel"
)

// StakingParams parses the [Staking] section.
func (c *Config) StakingParams() (staking.Params, error) {
	params := staking.Params{Interest: c.Staking.Interest}
	limit, err := ParseAmount(c.Staking.MintCap)
	if err != nil {
		return params, fmt.Errorf("Staking.MintCap: %w", err)
	}
	if limit.Sign() > 0 {
		params.MintCap = limit
	}
	return params, nil
}

// RewardParams parses the [Reward] section.
func (c *Config) RewardParams() (reward.Params, error) {
	var params reward.Params
	var err error
	if params.ReferredBonusRate, err = parseRate(c.Reward.ReferredBonus); err != nil {
		return params, fmt.Errorf("Reward.ReferredBonus: %w", err)
	}
	if len(c.Reward.LevelRates) > reward.MaxLevels {
		return params, fmt.Errorf("Reward.LevelRates: at most %d levels", reward.MaxLevels)
	}
	for i, raw := range c.Reward.LevelRates {
		if params.LevelRates[i], err = parseRate(raw); err != nil {
			return params, fmt.Errorf("Reward.LevelRates[%d]: %w", i, err)
		}
	}
	if params.CvThresholds, err = parseAmounts("Reward.CvThresholds", c.Reward.CvThresholds); err != nil {
		return params, err
	}
	if params.RankRewards, err = parseAmounts("Reward.RankRewards", c.Reward.RankRewards); err != nil {
		return params, err
	}
	params.DownlineRequirement = c.Reward.DownlineRequirement
	limit, err := ParseAmount(c.Reward.MintCap)
	if err != nil {
		return params, fmt.Errorf("Reward.MintCap: %w", err)
	}
	if limit.Sign() > 0 {
		params.MintCap = limit
	}
	return params, params.Validate()
}

// EngineConfig assembles the core engine configuration.
func (c *Config) EngineConfig() (core.Config, error) {
	var out core.Config
	var err error
	if out.TokenAddress, err = crypto.ParseAddress(c.Token.Address); err != nil {
		return out, fmt.Errorf("Token.Address: %w", err)
	}
	if out.TokenAdmin, err = crypto.ParseAddress(c.Token.Admin); err != nil {
		return out, fmt.Errorf("Token.Admin: %w", err)
	}
	if out.StakeModule, err = crypto.ParseAddress(c.Staking.ModuleAddress); err != nil {
		return out, fmt.Errorf("Staking.ModuleAddress: %w", err)
	}
	if out.RewardModule, err = crypto.ParseAddress(c.Reward.ModuleAddress); err != nil {
		return out, fmt.Errorf("Reward.ModuleAddress: %w", err)
	}
	if out.Staking, err = c.StakingParams(); err != nil {
		return out, err
	}
	if out.Reward, err = c.RewardParams(); err != nil {
		return out, err
	}
	return out, out.Validate()
}

// LoggingOptions maps the [Log] section onto the logging package.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// TelemetryConfig maps the [Telemetry] section onto the otel package.
func (c *Config) TelemetryConfig(service, version string) otel.Config {
	return otel.Config{
		ServiceName:    service,
		ServiceVersion: version,
		Environment:    c.Network,
		Endpoint:       c.Telemetry.Endpoint,
		Insecure:       c.Telemetry.Insecure,
		Traces:         c.Telemetry.Traces,
		Metrics:        c.Telemetry.Metrics,
		SampleRatio:    c.Telemetry.SampleRatio,
		Headers:        otel.ParseHeaders(c.Telemetry.Headers),
	}
}

// StatePath returns the storage location for the configured backend: a
// directory for leveldb, a single file for bolt.
func (c *Config) StatePath() string {
	switch c.Backend {
	case "bolt":
		return filepath.Join(c.DataDir, "state.db")
	case "memory":
		return ""
	default:
		return filepath.Join(c.DataDir, "state")
	}
}
