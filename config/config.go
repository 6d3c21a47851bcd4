package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"casechain/crypto"
	"casechain/native/reward"
	"casechain/native/staking"
)

const (
	DefaultNetwork       = "case-local"
	DefaultPassphraseEnv = "CASE_ADMIN_PASSPHRASE"
)

type Config struct {
	ListenAddress      string `toml:"ListenAddress"`
	DataDir            string `toml:"DataDir"`
	Backend            string `toml:"Backend"`
	Network            string `toml:"Network"`
	AdminKeystorePath  string `toml:"AdminKeystorePath"`
	AdminPassphraseEnv string `toml:"AdminPassphraseEnv"`
	// AutoDeploy runs the idempotent deployment wiring on every start.
	AutoDeploy          bool `toml:"AutoDeploy"`
	ReadTimeoutSeconds  int  `toml:"ReadTimeoutSeconds"`
	WriteTimeoutSeconds int  `toml:"WriteTimeoutSeconds"`

	Log       Log       `toml:"Log"`
	Token     Token     `toml:"Token"`
	Staking   Staking   `toml:"Staking"`
	Reward    Reward    `toml:"Reward"`
	Auth      Auth      `toml:"Auth"`
	RateLimit RateLimit `toml:"RateLimit"`
	Explorer  Explorer  `toml:"Explorer"`
	Telemetry Telemetry `toml:"Telemetry"`
}

// Load loads the configuration from the given path, creating a default file
// and admin keystore when it does not exist yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := ensureKeystore(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns a configuration populated with the production economics and
// local-development endpoints. Token.Admin and Auth.Secret are left empty.
func Default() *Config {
	cfg := &Config{
		ListenAddress:       "127.0.0.1:8645",
		DataDir:             "./case-data",
		Backend:             "leveldb",
		Network:             DefaultNetwork,
		AdminPassphraseEnv:  DefaultPassphraseEnv,
		AutoDeploy:          true,
		ReadTimeoutSeconds:  15,
		WriteTimeoutSeconds: 15,
		Log:                 Log{Level: "info"},
		Auth:                Auth{Issuer: "cased", TokenTTLSeconds: 86400},
		RateLimit:           RateLimit{RequestsPerSecond: 20, Burst: 40},
		Telemetry:           Telemetry{Endpoint: "localhost:4318", Insecure: true, SampleRatio: 1},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Network) == "" {
		c.Network = DefaultNetwork
	}
	if c.Backend == "" {
		c.Backend = "leveldb"
	}
	if c.AdminPassphraseEnv == "" {
		c.AdminPassphraseEnv = DefaultPassphraseEnv
	}
	if c.Token.Address == "" {
		c.Token.Address = crypto.FormatAddress(ModuleAddress(c.Network, "token"))
	}
	if c.Staking.ModuleAddress == "" {
		c.Staking.ModuleAddress = crypto.FormatAddress(ModuleAddress(c.Network, "staking"))
	}
	if c.Reward.ModuleAddress == "" {
		c.Reward.ModuleAddress = crypto.FormatAddress(ModuleAddress(c.Network, "reward"))
	}
	if c.Staking.Interest == (staking.InterestParams{}) {
		c.Staking.Interest = staking.DefaultInterestParams()
	}

	defaults := reward.DefaultParams()
	if c.Reward.ReferredBonus == "" {
		c.Reward.ReferredBonus = formatRate(defaults.ReferredBonusRate)
	}
	if c.Reward.LevelRates == nil {
		c.Reward.LevelRates = make([]string, 0, reward.MaxLevels)
		for _, rate := range defaults.LevelRates {
			c.Reward.LevelRates = append(c.Reward.LevelRates, formatRate(rate))
		}
	}
	if c.Reward.CvThresholds == nil {
		for _, threshold := range defaults.CvThresholds {
			c.Reward.CvThresholds = append(c.Reward.CvThresholds, FormatAmount(threshold))
		}
	}
	if c.Reward.RankRewards == nil {
		for _, amount := range defaults.RankRewards {
			c.Reward.RankRewards = append(c.Reward.RankRewards, FormatAmount(amount))
		}
	}
	if c.Reward.DownlineRequirement == 0 {
		c.Reward.DownlineRequirement = defaults.DownlineRequirement
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "cased"
	}
	if c.Auth.TokenTTLSeconds <= 0 {
		c.Auth.TokenTTLSeconds = 86400
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ModuleAddress derives the well-known address of a module on network.
func ModuleAddress(network, module string) common.Address {
	hash := ethcrypto.Keccak256([]byte(network + "/" + module))
	return common.BytesToAddress(hash[12:])
}

// Passphrase returns the admin keystore passphrase from the environment.
func (c *Config) Passphrase() string {
	if c.AdminPassphraseEnv == "" {
		return ""
	}
	return os.Getenv(c.AdminPassphraseEnv)
}

// JWTSecret resolves the HMAC secret, preferring the environment override.
func (c *Config) JWTSecret() []byte {
	if c.Auth.SecretEnv != "" {
		if value := strings.TrimSpace(os.Getenv(c.Auth.SecretEnv)); value != "" {
			return []byte(value)
		}
	}
	return []byte(c.Auth.Secret)
}

// AdminKeystore returns the keystore holding the token admin key.
func (c *Config) AdminKeystore() *crypto.AdminKeystore {
	return crypto.NewAdminKeystore(c.AdminKeystorePath)
}

// LoadAdminKey decrypts the admin keystore.
func (c *Config) LoadAdminKey() (*crypto.PrivateKey, error) {
	return c.AdminKeystore().Unlock(c.Passphrase())
}

// createAdminKey writes a fresh admin keystore under the configured
// passphrase and returns the admin address.
func (c *Config) createAdminKey() (string, error) {
	passphrase := c.Passphrase()
	if strings.TrimSpace(passphrase) == "" {
		slog.Warn("admin keystore written without a passphrase",
			slog.String("path", c.AdminKeystorePath),
			slog.String("env", c.AdminPassphraseEnv))
	}
	key, err := c.AdminKeystore().Create(passphrase)
	if err != nil {
		return "", err
	}
	return crypto.FormatAddress(key.Address()), nil
}

func ensureKeystore(configPath string, cfg *Config) error {
	keystorePath := cfg.AdminKeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}
	changed := cfg.AdminKeystorePath != keystorePath
	cfg.AdminKeystorePath = keystorePath

	exists, err := cfg.AdminKeystore().Exists()
	if err != nil {
		return err
	}
	switch {
	case !exists:
		admin, err := cfg.createAdminKey()
		if err != nil {
			return err
		}
		if cfg.Token.Admin == "" {
			cfg.Token.Admin = admin
			changed = true
		}
	case cfg.Token.Admin == "":
		addr, err := cfg.AdminKeystore().Address()
		if err != nil {
			return fmt.Errorf("derive token admin: %w", err)
		}
		cfg.Token.Admin = crypto.FormatAddress(addr)
		changed = true
	}

	if changed {
		return persist(configPath, cfg)
	}
	return nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	cfg.AdminKeystorePath = defaultKeystorePath(path)
	admin, err := cfg.createAdminKey()
	if err != nil {
		return nil, err
	}
	cfg.Token.Admin = admin

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	cfg.Auth.Secret = hex.EncodeToString(secret)

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "admin.keystore")
}
