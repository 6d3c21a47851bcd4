package config

import "casechain/native/staking"

// Token configures the CASE ledger.
type Token struct {
	// Address identifies the ledger in events and queries. Derived from the
	// network name when empty.
	Address string `toml:"Address"`
	// Admin holds the minter-management capability. Filled from the admin
	// keystore when empty.
	Admin string `toml:"Admin"`
}

// Staking configures the stake ledger.
type Staking struct {
	ModuleAddress string                 `toml:"ModuleAddress"`
	Interest      staking.InterestParams `toml:"Interest"`
	// MintCap bounds the aggregate mint counter, in CASE. Empty or "0"
	// disables the cap.
	MintCap string `toml:"MintCap"`
}

// Reward configures the commission distributor and the rank engine. Rates are
// decimal percentages ("2.5" is 2.5%); amounts are decimal CASE.
type Reward struct {
	ModuleAddress       string   `toml:"ModuleAddress"`
	ReferredBonus       string   `toml:"ReferredBonus"`
	LevelRates          []string `toml:"LevelRates"`
	CvThresholds        []string `toml:"CvThresholds"`
	RankRewards         []string `toml:"RankRewards"`
	DownlineRequirement uint64   `toml:"DownlineRequirement"`
	MintCap             string   `toml:"MintCap"`
}

// Auth configures bearer authentication of the HTTP API.
type Auth struct {
	// Secret is the HMAC key for HS256 tokens. SecretEnv, when set, names an
	// environment variable that overrides it.
	Secret    string `toml:"Secret"`
	SecretEnv string `toml:"SecretEnv"`
	Issuer    string `toml:"Issuer"`
	// TokenTTLSeconds bounds tokens minted by casectl.
	TokenTTLSeconds int `toml:"TokenTTLSeconds"`
}

// RateLimit throttles API clients by remote address.
type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
}

// Explorer configures the event index. An empty DSN disables it.
type Explorer struct {
	DSN string `toml:"DSN"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint    string  `toml:"Endpoint"`
	Insecure    bool    `toml:"Insecure"`
	Traces      bool    `toml:"Traces"`
	Metrics     bool    `toml:"Metrics"`
	SampleRatio float64 `toml:"SampleRatio"`
	// Headers are sent with every export, as comma-separated key=value
	// pairs in the OTEL_EXPORTER_OTLP_HEADERS format.
	Headers string `toml:"Headers"`
}

// Log configures structured logging.
type Log struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}
