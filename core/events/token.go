package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"casechain/core/types"
)

const (
	TypeTokenTransfer      = "token.transfer"
	TypeTokenMint          = "token.mint"
	TypeTokenApproval      = "token.approval"
	TypeTokenMinterGranted = "token.minterGranted"
	TypeTokenMinterRevoked = "token.minterRevoked"
)

// TokenTransfer mirrors an ERC-20 style Transfer log.
type TokenTransfer struct {
	From   common.Address
	To     common.Address
	Amount *big.Int
}

func (TokenTransfer) EventType() string { return TypeTokenTransfer }

func (e TokenTransfer) Event() *types.Event {
	return &types.Event{Type: TypeTokenTransfer, Attributes: map[string]string{
		"account": formatAddress(e.From),
		"to":      formatAddress(e.To),
		"amount":  formatAmount(e.Amount),
	}}
}

// TokenMinted records supply created by a minter.
type TokenMinted struct {
	Minter common.Address
	To     common.Address
	Amount *big.Int
	Supply *big.Int
}

func (TokenMinted) EventType() string { return TypeTokenMint }

func (e TokenMinted) Event() *types.Event {
	return &types.Event{Type: TypeTokenMint, Attributes: map[string]string{
		"account": formatAddress(e.To),
		"minter":  formatAddress(e.Minter),
		"amount":  formatAmount(e.Amount),
		"supply":  formatAmount(e.Supply),
	}}
}

// TokenApproval records an allowance update.
type TokenApproval struct {
	Owner   common.Address
	Spender common.Address
	Amount  *big.Int
}

func (TokenApproval) EventType() string { return TypeTokenApproval }

func (e TokenApproval) Event() *types.Event {
	return &types.Event{Type: TypeTokenApproval, Attributes: map[string]string{
		"account": formatAddress(e.Owner),
		"spender": formatAddress(e.Spender),
		"amount":  formatAmount(e.Amount),
	}}
}

// MinterChanged records a grant or revocation of the mint capability.
type MinterChanged struct {
	Admin   common.Address
	Account common.Address
	Granted bool
}

func (e MinterChanged) EventType() string {
	if e.Granted {
		return TypeTokenMinterGranted
	}
	return TypeTokenMinterRevoked
}

func (e MinterChanged) Event() *types.Event {
	return &types.Event{Type: e.EventType(), Attributes: map[string]string{
		"account": formatAddress(e.Account),
		"admin":   formatAddress(e.Admin),
	}}
}
