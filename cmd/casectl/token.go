package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"casechain/cmd/internal/passphrase"
	"casechain/config"
	"casechain/crypto"
	"casechain/rpc/middleware"
)

func runTokenAddress(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(tokenAddressCommand, flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the casechain config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, crypto.FormatAddress(engineCfg.TokenAddress))
	return nil
}

func runToken(args []string, stdout io.Writer) error {
	if len(args) < 1 || args[0] != "issue" {
		return fmt.Errorf("usage: casectl token issue [-config path] [-address addr] [-ttl d] [-read-only]")
	}
	fs := flag.NewFlagSet("token issue", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the casechain config file")
	address := fs.String("address", "", "Subject address; the admin key is unlocked when empty")
	ttl := fs.Duration("ttl", 0, "Token lifetime; defaults to Auth.TokenTTLSeconds")
	readOnly := fs.Bool("read-only", false, "Omit the write scope")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var subject common.Address
	if *address != "" {
		if subject, err = crypto.ParseAddress(*address); err != nil {
			return err
		}
	} else {
		// Admin tokens require proving control of the keystore.
		source := passphrase.NewSource(cfg.AdminPassphraseEnv, "admin keystore")
		pass, err := source.Get()
		if err != nil {
			return err
		}
		key, err := cfg.AdminKeystore().Unlock(pass)
		if err != nil {
			return fmt.Errorf("unlock admin keystore: %w", err)
		}
		subject = key.Address()
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = time.Duration(cfg.Auth.TokenTTLSeconds) * time.Second
	}
	var scopes []string
	if !*readOnly {
		scopes = append(scopes, middleware.ScopeWrite)
	}
	token, err := middleware.IssueToken(cfg.JWTSecret(), cfg.Auth.Issuer, subject, lifetime, scopes...)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	return nil
}
