package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"casechain/core/events"
)

const (
	Name     = "Case"
	Symbol   = "CASE"
	Decimals = 8
)

// Unit is one whole CASE in base units.
var Unit = big.NewInt(100_000_000)

type ledgerState interface {
	TokenBalance(addr common.Address) (*big.Int, error)
	SetTokenBalance(addr common.Address, amount *big.Int) error
	TokenAllowance(owner, spender common.Address) (*big.Int, error)
	SetTokenAllowance(owner, spender common.Address, amount *big.Int) error
	TokenSupply() (*big.Int, error)
	SetTokenSupply(amount *big.Int) error
	TokenMinter(addr common.Address) (bool, error)
	SetTokenMinter(addr common.Address, granted bool) error
}

// Ledger is the in-process CASE token. Mint authority is an explicit
// capability set administered by a single admin account, which is always
// allowed to mint.
type Ledger struct {
	address common.Address
	admin   common.Address
	state   ledgerState
	emitter events.Emitter
}

// NewLedger constructs a ledger deployed at address and administered by admin.
func NewLedger(address, admin common.Address) *Ledger {
	return &Ledger{address: address, admin: admin, emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

// SetEmitter configures the event emitter used by the ledger.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	l.emitter = emitter
}

func (l *Ledger) emit(evt events.Event) {
	if l.emitter != nil {
		l.emitter.Emit(evt)
	}
}

// Address returns the ledger's own address.
func (l *Ledger) Address() common.Address { return l.address }

// Admin returns the account allowed to grant and revoke minters.
func (l *Ledger) Admin() common.Address { return l.admin }

func (l *Ledger) Decimals() uint8 { return Decimals }

func (l *Ledger) BalanceOf(addr common.Address) (*big.Int, error) {
	if l.state == nil {
		return nil, errNilState
	}
	return l.state.TokenBalance(addr)
}

func (l *Ledger) Allowance(owner, spender common.Address) (*big.Int, error) {
	if l.state == nil {
		return nil, errNilState
	}
	return l.state.TokenAllowance(owner, spender)
}

func (l *Ledger) TotalSupply() (*big.Int, error) {
	if l.state == nil {
		return nil, errNilState
	}
	return l.state.TokenSupply()
}

// IsMinter reports whether addr may mint.
func (l *Ledger) IsMinter(addr common.Address) (bool, error) {
	if l.state == nil {
		return false, errNilState
	}
	if addr == l.admin {
		return true, nil
	}
	return l.state.TokenMinter(addr)
}

// GrantMinter gives account the mint capability.
func (l *Ledger) GrantMinter(caller, account common.Address) error {
	return l.setMinter(caller, account, true)
}

// RevokeMinter withdraws the mint capability from account.
func (l *Ledger) RevokeMinter(caller, account common.Address) error {
	return l.setMinter(caller, account, false)
}

func (l *Ledger) setMinter(caller, account common.Address, granted bool) error {
	if l.state == nil {
		return errNilState
	}
	if caller != l.admin {
		return ErrNotAdmin
	}
	if account == (common.Address{}) {
		return ErrZeroAddress
	}
	if err := l.state.SetTokenMinter(account, granted); err != nil {
		return err
	}
	l.emit(events.MinterChanged{Admin: caller, Account: account, Granted: granted})
	return nil
}

// Mint creates amount new tokens for to. Only holders of the mint capability
// may call it.
func (l *Ledger) Mint(minter, to common.Address, amount *big.Int) error {
	if l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	allowed, err := l.IsMinter(minter)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotMinter
	}
	balance, err := l.state.TokenBalance(to)
	if err != nil {
		return err
	}
	supply, err := l.state.TokenSupply()
	if err != nil {
		return err
	}
	supply = new(big.Int).Add(supply, amount)
	if err := l.state.SetTokenBalance(to, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	if err := l.state.SetTokenSupply(supply); err != nil {
		return err
	}
	l.emit(events.TokenMinted{Minter: minter, To: to, Amount: new(big.Int).Set(amount), Supply: supply})
	return nil
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	fromBalance, err := l.state.TokenBalance(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if from != to {
		toBalance, err := l.state.TokenBalance(to)
		if err != nil {
			return err
		}
		if err := l.state.SetTokenBalance(from, new(big.Int).Sub(fromBalance, amount)); err != nil {
			return err
		}
		if err := l.state.SetTokenBalance(to, new(big.Int).Add(toBalance, amount)); err != nil {
			return err
		}
	}
	l.emit(events.TokenTransfer{From: from, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}

// TransferFrom moves amount out of from on behalf of spender, consuming the
// allowance from granted to spender.
func (l *Ledger) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	if l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	allowance, err := l.state.TokenAllowance(from, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.Transfer(from, to, amount); err != nil {
		return err
	}
	return l.state.SetTokenAllowance(from, spender, new(big.Int).Sub(allowance, amount))
}

// Approve overwrites the allowance owner grants to spender.
func (l *Ledger) Approve(owner, spender common.Address, amount *big.Int) error {
	if l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if spender == (common.Address{}) {
		return ErrZeroAddress
	}
	if err := l.state.SetTokenAllowance(owner, spender, amount); err != nil {
		return err
	}
	l.emit(events.TokenApproval{Owner: owner, Spender: spender, Amount: new(big.Int).Set(amount)})
	return nil
}
