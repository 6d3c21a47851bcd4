package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"casechain/core/events"
	"casechain/core/state"
	"casechain/native/hierarchy"
	"casechain/native/reward"
	"casechain/native/staking"
	"casechain/native/token"
	"casechain/observability"
	"casechain/observability/metrics"
	"casechain/storage"
)

// Config wires the module addresses and economic parameters of the engine.
type Config struct {
	TokenAddress common.Address
	TokenAdmin   common.Address
	StakeModule  common.Address
	RewardModule common.Address
	Staking      staking.Params
	Reward       reward.Params
}

// Validate performs static validation of the configuration.
func (c Config) Validate() error {
	zero := common.Address{}
	switch {
	case c.TokenAddress == zero:
		return fmt.Errorf("token address required")
	case c.TokenAdmin == zero:
		return fmt.Errorf("token admin required")
	case c.StakeModule == zero:
		return fmt.Errorf("stake module address required")
	case c.RewardModule == zero:
		return fmt.Errorf("reward module address required")
	case c.StakeModule == c.RewardModule:
		return fmt.Errorf("stake and reward modules must differ")
	}
	if err := c.Staking.Interest.Validate(); err != nil {
		return fmt.Errorf("staking: %w", err)
	}
	if err := c.Reward.Validate(); err != nil {
		return fmt.Errorf("reward: %w", err)
	}
	return nil
}

// Engine is the transactional facade over the token, staking and reward
// modules. Every state-changing call runs alone, against a fresh journal, and
// either commits in one storage batch or leaves no trace. Events are
// published only after the commit succeeds.
type Engine struct {
	mu      sync.RWMutex
	db      storage.Database
	cfg     Config
	emitter events.Emitter
	logger  *slog.Logger
	metrics *metrics.EngineMetrics
	nowFn   func() int64
}

// NewEngine constructs an engine over db.
func NewEngine(db storage.Database, cfg Config) (*Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	return &Engine{
		db:      db,
		cfg:     cfg,
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
		nowFn:   func() int64 { return time.Now().Unix() },
	}, nil
}

// SetEmitter configures where committed events are published.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetLogger overrides the structured logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger
}

// SetMetrics enables Prometheus instrumentation.
func (e *Engine) SetMetrics(m *metrics.EngineMetrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = m
}

// SetNowFunc overrides the clock used for maturity checks and event stamps.
func (e *Engine) SetNowFunc(now func() int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	e.nowFn = now
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Now returns the engine clock in unix seconds.
func (e *Engine) Now() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nowFn()
}

// session binds freshly constructed module engines to one journal.
type session struct {
	state   *state.Manager
	events  *events.Buffer
	token   *token.Ledger
	staking *staking.Engine
	reward  *reward.Engine
}

func (e *Engine) newSession() *session {
	manager := state.NewManager(e.db)
	buffer := &events.Buffer{}

	ledger := token.NewLedger(e.cfg.TokenAddress, e.cfg.TokenAdmin)
	ledger.SetState(manager)
	ledger.SetEmitter(buffer)

	rewards := reward.NewEngine(e.cfg.RewardModule, e.cfg.Reward)
	rewards.SetState(manager)
	rewards.SetToken(ledger)
	rewards.SetStakeModule(e.cfg.StakeModule)
	rewards.SetEmitter(buffer)
	rewards.SetLogger(e.logger)

	stakes := staking.NewEngine(e.cfg.StakeModule, e.cfg.Staking)
	stakes.SetState(manager)
	stakes.SetToken(ledger)
	stakes.SetRewardModule(rewards)
	stakes.SetEmitter(buffer)
	stakes.SetLogger(e.logger)
	stakes.SetNowFunc(e.nowFn)

	return &session{state: manager, events: buffer, token: ledger, staking: stakes, reward: rewards}
}

// update runs fn as one atomic transaction.
func (e *Engine) update(operation string, fn func(*session) error) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	started := time.Now()
	defer func() {
		outcome := "ok"
		switch {
		case err == nil:
		case IsClientError(err):
			outcome = "rejected"
		default:
			outcome = "error"
			e.logger.Warn("engine transaction failed",
				slog.String("operation", operation),
				slog.Any("error", err))
		}
		e.metrics.ObserveOperation(operation, outcome, time.Since(started))
	}()

	s := e.newSession()
	if err := fn(s); err != nil {
		s.state.Discard()
		return err
	}
	pending := s.events.Events()
	stamped := make([]events.Stamped, 0, len(pending))
	if len(pending) > 0 {
		seq, err := s.state.EventSequence()
		if err != nil {
			s.state.Discard()
			return err
		}
		now := e.nowFn()
		for _, evt := range pending {
			seq++
			stamped = append(stamped, events.Stamp(evt, seq, now))
		}
		if err := s.state.SetEventSequence(seq); err != nil {
			s.state.Discard()
			return err
		}
	}
	if err := s.state.Commit(); err != nil {
		return fmt.Errorf("core: %s: %w", operation, err)
	}
	for _, evt := range stamped {
		observability.Events().Record(evt.EventType())
		e.emitter.Emit(evt)
	}
	if e.metrics != nil {
		if minted, err := s.state.MintedTokens(); err == nil {
			e.metrics.SetMinted(observability.BigToFloat(minted))
		}
	}
	return nil
}

// view runs fn against committed state. Views may run concurrently with each
// other but never with an update.
func (e *Engine) view(fn func(*session) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.newSession())
}

// Init links the stake ledger to the reward module. It succeeds once.
func (e *Engine) Init() error {
	return e.update("init", func(s *session) error {
		return s.staking.Init(e.cfg.RewardModule)
	})
}

// Deploy performs the one-time wiring a fresh deployment needs: the schema
// stamp, Init and the minter grants for both modules. Steps already applied
// are skipped, so it is safe to call on every start.
func (e *Engine) Deploy() error {
	return e.update("deploy", func(s *session) error {
		if err := s.state.EnsureStateVersion(); err != nil {
			return err
		}
		initialized, err := s.staking.Initialized()
		if err != nil {
			return err
		}
		if !initialized {
			if err := s.staking.Init(e.cfg.RewardModule); err != nil {
				return err
			}
		}
		for _, module := range []common.Address{e.cfg.StakeModule, e.cfg.RewardModule} {
			ok, err := s.token.IsMinter(module)
			if err != nil {
				return err
			}
			if ok {
				continue
			}
			if err := s.token.GrantMinter(e.cfg.TokenAdmin, module); err != nil {
				return err
			}
		}
		return nil
	})
}

// GrantMinter gives account the mint capability. Only the token admin may call.
func (e *Engine) GrantMinter(caller, account common.Address) error {
	return e.update("grantMinter", func(s *session) error {
		return s.token.GrantMinter(caller, account)
	})
}

// RevokeMinter withdraws the mint capability from account.
func (e *Engine) RevokeMinter(caller, account common.Address) error {
	return e.update("revokeMinter", func(s *session) error {
		return s.token.RevokeMinter(caller, account)
	})
}

// Mint issues new tokens on behalf of a minter, typically the admin funding
// accounts.
func (e *Engine) Mint(minter, to common.Address, amount *big.Int) error {
	return e.update("mint", func(s *session) error {
		return s.token.Mint(minter, to, amount)
	})
}

// Approve sets the allowance owner grants spender.
func (e *Engine) Approve(owner, spender common.Address, amount *big.Int) error {
	return e.update("approve", func(s *session) error {
		return s.token.Approve(owner, spender, amount)
	})
}

// Transfer moves tokens between accounts.
func (e *Engine) Transfer(from, to common.Address, amount *big.Int) error {
	return e.update("transfer", func(s *session) error {
		return s.token.Transfer(from, to, amount)
	})
}

// Stake opens a stake for staker. The principal must be approved to the stake
// module beforehand.
func (e *Engine) Stake(staker common.Address, amount *big.Int, days uint64, referrer common.Address) (*staking.Receipt, error) {
	var receipt *staking.Receipt
	err := e.update("stake", func(s *session) error {
		var err error
		receipt, err = s.staking.Stake(staker, amount, days, referrer)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.metrics.AddStaked(observability.BigToFloat(receipt.Principal))
	return receipt, nil
}

// Withdraw releases a matured stake.
func (e *Engine) Withdraw(owner common.Address, index uint64) (*staking.Payout, error) {
	var payout *staking.Payout
	err := e.update("withdraw", func(s *session) error {
		var err error
		payout, err = s.staking.Withdraw(owner, index)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.metrics.AddWithdrawn(observability.BigToFloat(payout.Total))
	return payout, nil
}

// RankUp advances addr by one rank when eligible.
func (e *Engine) RankUp(addr common.Address) (uint64, *big.Int, error) {
	var (
		rank uint64
		paid *big.Int
	)
	err := e.update("rankUp", func(s *session) error {
		var err error
		rank, paid, err = s.reward.RankUp(addr)
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	return rank, paid, nil
}

// AuditRanks evaluates rank eligibility across the referral forest,
// leaves first. With settle set every eligible participant is ranked up and
// the result commits atomically; otherwise the audit is read-only.
func (e *Engine) AuditRanks(ctx context.Context, settle bool, opts ...hierarchy.Option) (*reward.AuditReport, error) {
	var report *reward.AuditReport
	run := func(s *session) error {
		var err error
		report, err = s.reward.AuditRanks(ctx, settle, opts...)
		return err
	}
	var err error
	if settle {
		err = e.update("auditRanks", run)
	} else {
		err = e.view(run)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// IsClientError reports whether err is a caller mistake rather than an
// engine failure.
func IsClientError(err error) bool {
	for _, target := range []error{
		staking.ErrInvalidAmount, staking.ErrSelfReferral, staking.ErrNoSuchStake,
		staking.ErrNotMatured, staking.ErrAlreadyWithdrawn, staking.ErrNotInitialized,
		staking.ErrAlreadyInitialized, staking.ErrMintCapExceeded,
		token.ErrInvalidAmount, token.ErrInsufficientBalance, token.ErrInsufficientAllowance,
		token.ErrNotMinter, token.ErrNotAdmin, token.ErrZeroAddress,
		reward.ErrUnauthorized, reward.ErrCareerValueInsufficient,
		reward.ErrDownlineQualificationUnmet, reward.ErrZeroAddress,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
