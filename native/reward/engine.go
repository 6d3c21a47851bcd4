package reward

import (
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"casechain/core/events"
)

// Token is the mint capability the reward module needs from the ledger.
type Token interface {
	Mint(minter, to common.Address, amount *big.Int) error
}

type engineState interface {
	RewardRegistered(addr common.Address) (bool, error)
	RegisterRewardUser(addr common.Address) error
	RewardUserCount() (uint64, error)
	RewardUserAt(i uint64) (common.Address, error)
	RewardReferrer(addr common.Address) (common.Address, error)
	SetRewardReferrer(referred, referrer common.Address) error
	RewardReferrals(addr common.Address) ([]common.Address, error)
	RewardCareerValue(addr common.Address) (*big.Int, error)
	SetRewardCareerValue(addr common.Address, amount *big.Int) error
	RewardRank(addr common.Address) (uint64, error)
	SetRewardRank(addr common.Address, rank uint64) error
	MintedTokens() (*big.Int, error)
	SetMintedTokens(amount *big.Int) error
}

// Engine owns the referral graph, the commission distributor and the rank
// engine. Refer and PayCommission only accept calls from the stake module.
type Engine struct {
	address     common.Address
	stakeModule common.Address
	params      Params
	state       engineState
	token       Token
	emitter     events.Emitter
	logger      *slog.Logger
}

// NewEngine constructs the reward module deployed at address.
func NewEngine(address common.Address, params Params) *Engine {
	return &Engine{
		address: address,
		params:  params,
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetToken configures the ledger used to mint credits.
func (e *Engine) SetToken(token Token) { e.token = token }

// SetStakeModule records the only caller allowed into Refer and PayCommission.
func (e *Engine) SetStakeModule(addr common.Address) { e.stakeModule = addr }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
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

// Address returns the reward module's minting identity.
func (e *Engine) Address() common.Address { return e.address }

// Params returns the engine configuration.
func (e *Engine) Params() Params { return e.params }

func (e *Engine) emit(evt events.Event) {
	if e.emitter != nil && evt != nil {
		e.emitter.Emit(evt)
	}
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

func (e *Engine) authorize(caller common.Address) error {
	if e.stakeModule == (common.Address{}) || caller != e.stakeModule {
		return ErrUnauthorized
	}
	return nil
}

// MintedTokens returns the aggregate mint counter.
func (e *Engine) MintedTokens() (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.MintedTokens()
}

// mint credits amount to recipient and bumps the aggregate counter. It
// reports false when the mint cap forced the credit to be skipped.
func (e *Engine) mint(recipient common.Address, amount *big.Int, source string) (bool, error) {
	if e.token == nil {
		return false, errNilToken
	}
	minted, err := e.state.MintedTokens()
	if err != nil {
		return false, err
	}
	total := new(big.Int).Add(minted, amount)
	if limit := e.params.MintCap; limit != nil && limit.Sign() > 0 && total.Cmp(limit) > 0 {
		e.emit(events.MintCapSkipped{Recipient: recipient, Amount: new(big.Int).Set(amount), Source: source})
		e.logger.Warn("mint cap reached, credit skipped",
			slog.String("recipient", recipient.Hex()),
			slog.String("amount", amount.String()),
			slog.String("source", source))
		return false, nil
	}
	if err := e.token.Mint(e.address, recipient, amount); err != nil {
		return false, err
	}
	if err := e.state.SetMintedTokens(total); err != nil {
		return false, err
	}
	return true, nil
}
