package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"casechain/config"
	"casechain/core"
	"casechain/crypto"
	"casechain/native/hierarchy"
	"casechain/native/reward"
)

// seedPlan describes a binary referral tree to stake. Participants are placed
// in level order: the first is the root and the referrer of entry i is entry
// (i-1)/2.
type seedPlan struct {
	Participants []string `yaml:"participants"`
	// Generate appends this many derived addresses after the listed ones.
	Generate int `yaml:"generate"`
	// Amount is the decimal CASE each participant is funded with and stakes.
	Amount string `yaml:"amount"`
	Days   uint64 `yaml:"days"`
	RankUp bool   `yaml:"rankUp"`
}

type seedSummary struct {
	Participants int
	Height       int
	Staked       int64
	RankUps      int64
}

func loadSeedPlan(path string) (*seedPlan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var plan seedPlan
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if plan.Days == 0 {
		return nil, errors.New("plan: days must be positive")
	}
	if plan.Generate < 0 {
		return nil, errors.New("plan: generate must not be negative")
	}
	if len(plan.Participants)+plan.Generate == 0 {
		return nil, errors.New("plan: no participants")
	}
	return &plan, nil
}

// addresses resolves listed participants and appends derived ones.
func (p *seedPlan) addresses(network string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(p.Participants)+p.Generate)
	seen := make(map[common.Address]struct{}, cap(out))
	add := func(addr common.Address) error {
		if addr == (common.Address{}) {
			return errors.New("plan: zero address participant")
		}
		if _, dup := seen[addr]; dup {
			return fmt.Errorf("plan: duplicate participant %s", crypto.FormatAddress(addr))
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
		return nil
	}
	for _, raw := range p.Participants {
		addr, err := crypto.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
		if err := add(addr); err != nil {
			return nil, err
		}
	}
	for i := 0; i < p.Generate; i++ {
		if err := add(config.ModuleAddress(network, fmt.Sprintf("seed/%d", i))); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func runSeed(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(seedCommand, flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the casechain config file")
	dataDir := fs.String("datadir", "", "Override the config DataDir")
	planPath := fs.String("plan", "", "YAML seed plan")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *planPath == "" {
		return errors.New("usage: casectl seed -plan plan.yaml [-config path] [-datadir dir]")
	}
	plan, err := loadSeedPlan(*planPath)
	if err != nil {
		return err
	}

	engine, cfg, closeFn, err := offlineEngine(*configPath, *dataDir)
	if err != nil {
		return err
	}
	defer closeFn()
	if err := engine.Deploy(); err != nil {
		return fmt.Errorf("deploy: %w", err)
	}
	participants, err := plan.addresses(cfg.Network)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	summary, err := seed(ctx, engine, plan, participants)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "seeded %d participants (height %d): %d stakes, %d rank-ups\n",
		summary.Participants, summary.Height, summary.Staked, summary.RankUps)
	return nil
}

// seed funds and stakes every participant root-first, so each referrer is
// registered before its referrals, then optionally settles ranks leaves-first.
func seed(ctx context.Context, engine *core.Engine, plan *seedPlan, participants []common.Address) (*seedSummary, error) {
	amount, err := config.ParseAmount(plan.Amount)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	if amount.Sign() <= 0 {
		return nil, errors.New("plan: amount must be positive")
	}
	root := hierarchy.Build(participants)
	summary := &seedSummary{Participants: len(participants), Height: hierarchy.Height(root)}
	engineCfg := engine.Config()

	var staked atomic.Int64
	err = hierarchy.TraverseTopDown(ctx, root, func(ctx context.Context, node *hierarchy.Node[common.Address]) error {
		addr := node.Value
		var referrer common.Address
		if node.Parent != nil {
			referrer = *node.Parent
		}
		if err := engine.Mint(engineCfg.TokenAdmin, addr, amount); err != nil {
			return fmt.Errorf("fund %s: %w", crypto.FormatAddress(addr), err)
		}
		if err := engine.Approve(addr, engineCfg.StakeModule, amount); err != nil {
			return fmt.Errorf("approve %s: %w", crypto.FormatAddress(addr), err)
		}
		if _, err := engine.Stake(addr, new(big.Int).Set(amount), plan.Days, referrer); err != nil {
			return fmt.Errorf("stake %s: %w", crypto.FormatAddress(addr), err)
		}
		staked.Add(1)
		return nil
	})
	summary.Staked = staked.Load()
	if err != nil {
		return summary, err
	}
	if !plan.RankUp {
		return summary, nil
	}

	var ranked atomic.Int64
	err = hierarchy.TraverseBottomUp(ctx, root, func(ctx context.Context, node *hierarchy.Node[common.Address]) error {
		for {
			if _, _, err := engine.RankUp(node.Value); err != nil {
				if reward.IsRankBlocked(err) {
					return nil
				}
				return fmt.Errorf("rank up %s: %w", crypto.FormatAddress(node.Value), err)
			}
			ranked.Add(1)
		}
	}, hierarchy.WithConcurrency(1))
	summary.RankUps = ranked.Load()
	return summary, err
}
