package staking

import (
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"casechain/core/events"
)

// Token is the slice of the CASE ledger the staking engine depends on.
type Token interface {
	Address() common.Address
	Mint(minter, to common.Address, amount *big.Int) error
	Transfer(from, to common.Address, amount *big.Int) error
	TransferFrom(spender, from, to common.Address, amount *big.Int) error
}

// RewardModule receives referral registrations and commission requests.
type RewardModule interface {
	Address() common.Address
	Refer(caller, referred, referrer common.Address) error
	PayCommission(caller, staker common.Address, interest *big.Int) error
}

type engineState interface {
	StakingStakeCount(owner common.Address) (uint64, error)
	StakingStakeGet(owner common.Address, index uint64) (*Stake, bool, error)
	StakingStakePut(stake *Stake) error
	StakingRewardModule() (common.Address, error)
	SetStakingRewardModule(addr common.Address) error
	MintedTokens() (*big.Int, error)
	SetMintedTokens(amount *big.Int) error
}

// Params configures the staking engine.
type Params struct {
	Interest InterestParams
	// MintCap bounds the aggregate mint counter when positive.
	MintCap *big.Int
}

// DefaultParams returns the production staking configuration.
func DefaultParams() Params {
	return Params{Interest: DefaultInterestParams()}
}

// Engine is the stake ledger: it escrows principal, mints interest into
// custody, records stakes and releases them once matured.
type Engine struct {
	address common.Address
	params  Params
	state   engineState
	token   Token
	reward  RewardModule
	emitter events.Emitter
	logger  *slog.Logger
	nowFn   func() int64
}

// NewEngine constructs a staking engine whose custody account is address.
func NewEngine(address common.Address, params Params) *Engine {
	return &Engine{
		address: address,
		params:  params,
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetToken configures the ledger used for escrow and minting.
func (e *Engine) SetToken(token Token) { e.token = token }

// SetRewardModule links the commission distributor. The link is only honoured
// once Init has recorded the module's address.
func (e *Engine) SetRewardModule(reward RewardModule) { e.reward = reward }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger overrides the structured logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// Address returns the custody account of the stake ledger.
func (e *Engine) Address() common.Address { return e.address }

// Params returns the engine configuration.
func (e *Engine) Params() Params { return e.params }

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.token == nil {
		return errNilToken
	}
	return nil
}

// Init records the reward module address. It succeeds exactly once.
func (e *Engine) Init(rewardModule common.Address) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if rewardModule == (common.Address{}) {
		return fmt.Errorf("staking: reward module address required")
	}
	current, err := e.state.StakingRewardModule()
	if err != nil {
		return err
	}
	if current != (common.Address{}) {
		return ErrAlreadyInitialized
	}
	return e.state.SetStakingRewardModule(rewardModule)
}

// Initialized reports whether Init has run.
func (e *Engine) Initialized() (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	current, err := e.state.StakingRewardModule()
	if err != nil {
		return false, err
	}
	return current != (common.Address{}), nil
}

func (e *Engine) rewardModule() (RewardModule, error) {
	recorded, err := e.state.StakingRewardModule()
	if err != nil {
		return nil, err
	}
	if recorded == (common.Address{}) || e.reward == nil || e.reward.Address() != recorded {
		return nil, ErrNotInitialized
	}
	return e.reward, nil
}

// InterestAmount estimates the interest for a prospective stake.
func (e *Engine) InterestAmount(amount *big.Int, days uint64) (*big.Int, error) {
	return e.params.Interest.Interest(amount, days)
}

// MintedTokens returns the aggregate mint counter.
func (e *Engine) MintedTokens() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.MintedTokens()
}

// Token returns the address of the ledger in use.
func (e *Engine) Token() common.Address {
	if e == nil || e.token == nil {
		return common.Address{}
	}
	return e.token.Address()
}

// Stake escrows amount from staker for days, mints the interest into custody,
// records the referrer on the first stake and fans out commissions.
func (e *Engine) Stake(staker common.Address, amount *big.Int, days uint64, referrer common.Address) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 || days == 0 {
		return nil, ErrInvalidAmount
	}
	if referrer == staker {
		return nil, ErrSelfReferral
	}
	reward, err := e.rewardModule()
	if err != nil {
		return nil, err
	}
	interest, err := e.InterestAmount(amount, days)
	if err != nil {
		return nil, err
	}
	if err := e.checkMintCap(interest); err != nil {
		return nil, err
	}

	if err := e.token.TransferFrom(e.address, staker, e.address, amount); err != nil {
		return nil, fmt.Errorf("escrow: %w", err)
	}
	if interest.Sign() > 0 {
		if err := e.token.Mint(e.address, e.address, interest); err != nil {
			return nil, fmt.Errorf("mint interest: %w", err)
		}
		if err := e.addMinted(interest); err != nil {
			return nil, err
		}
	}

	index, err := e.state.StakingStakeCount(staker)
	if err != nil {
		return nil, err
	}
	stake := &Stake{
		Owner:     staker,
		Index:     index,
		Principal: new(big.Int).Set(amount),
		Days:      days,
		CreatedAt: e.now(),
		Interest:  new(big.Int).Set(interest),
	}
	if err := e.state.StakingStakePut(stake); err != nil {
		return nil, err
	}

	if err := reward.Refer(e.address, staker, referrer); err != nil {
		return nil, fmt.Errorf("refer: %w", err)
	}
	if err := reward.PayCommission(e.address, staker, interest); err != nil {
		return nil, fmt.Errorf("commission: %w", err)
	}

	e.emit(events.StakeOpened{
		Owner:     staker,
		Index:     index,
		Principal: stake.Principal,
		Days:      days,
		Interest:  interest,
		Referrer:  referrer,
		MaturesAt: stake.MaturesAt(),
	})
	e.logger.Debug("stake opened",
		slog.String("owner", staker.Hex()),
		slog.Uint64("index", index),
		slog.String("principal", amount.String()),
		slog.Uint64("days", days),
		slog.String("interest", interest.String()))
	return &Receipt{
		Index:     index,
		Principal: new(big.Int).Set(amount),
		Days:      days,
		Interest:  interest,
		MaturesAt: stake.MaturesAt(),
	}, nil
}

// Withdraw releases a matured stake: principal plus the interest minted when
// it opened.
func (e *Engine) Withdraw(owner common.Address, index uint64) (*Payout, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	stake, ok, err := e.state.StakingStakeGet(owner, index)
	if err != nil {
		return nil, err
	}
	if !ok || stake == nil || stake.Owner != owner {
		return nil, ErrNoSuchStake
	}
	if stake.Withdrawn {
		return nil, ErrAlreadyWithdrawn
	}
	if !stake.Matured(e.now()) {
		return nil, ErrNotMatured
	}
	interest, err := e.stakeInterest(stake)
	if err != nil {
		return nil, err
	}
	total := new(big.Int).Add(stake.Principal, interest)
	stake.Withdrawn = true
	if err := e.state.StakingStakePut(stake); err != nil {
		return nil, err
	}
	if err := e.token.Transfer(e.address, owner, total); err != nil {
		return nil, fmt.Errorf("release: %w", err)
	}
	e.emit(events.StakeWithdrawn{Owner: owner, Index: index, Principal: stake.Principal, Interest: interest})
	return &Payout{
		Index:     index,
		Principal: new(big.Int).Set(stake.Principal),
		Interest:  interest,
		Total:     total,
	}, nil
}

// Stakes returns every stake recorded for owner in index order.
func (e *Engine) Stakes(owner common.Address) ([]*Stake, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	count, err := e.state.StakingStakeCount(owner)
	if err != nil {
		return nil, err
	}
	out := make([]*Stake, 0, count)
	for i := uint64(0); i < count; i++ {
		stake, ok, err := e.state.StakingStakeGet(owner, i)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, stake)
		}
	}
	return out, nil
}

// StakeAt returns a single stake or ErrNoSuchStake.
func (e *Engine) StakeAt(owner common.Address, index uint64) (*Stake, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	stake, ok, err := e.state.StakingStakeGet(owner, index)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSuchStake
	}
	return stake, nil
}

// StakeCount returns the number of stakes ever opened by owner.
func (e *Engine) StakeCount(owner common.Address) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.StakingStakeCount(owner)
}

// stakeInterest returns the interest recorded on stake. Records without one
// fall back to the current curve.
func (e *Engine) stakeInterest(stake *Stake) (*big.Int, error) {
	if stake.Interest != nil {
		return new(big.Int).Set(stake.Interest), nil
	}
	return e.InterestAmount(stake.Principal, stake.Days)
}

func (e *Engine) checkMintCap(amount *big.Int) error {
	if e.params.MintCap == nil || e.params.MintCap.Sign() <= 0 {
		return nil
	}
	minted, err := e.state.MintedTokens()
	if err != nil {
		return err
	}
	if new(big.Int).Add(minted, amount).Cmp(e.params.MintCap) > 0 {
		return ErrMintCapExceeded
	}
	return nil
}

func (e *Engine) addMinted(amount *big.Int) error {
	minted, err := e.state.MintedTokens()
	if err != nil {
		return err
	}
	return e.state.SetMintedTokens(new(big.Int).Add(minted, amount))
}
