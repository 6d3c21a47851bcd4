package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenBalance returns the CASE balance of addr. Missing entries default to zero.
func (m *Manager) TokenBalance(addr common.Address) (*big.Int, error) {
	return m.getBig(addrKey(tokenBalancePrefix, addr))
}

// SetTokenBalance overwrites the CASE balance of addr.
func (m *Manager) SetTokenBalance(addr common.Address, amount *big.Int) error {
	return m.putBig(addrKey(tokenBalancePrefix, addr), amount)
}

// TokenAllowance returns how much spender may move on behalf of owner.
func (m *Manager) TokenAllowance(owner, spender common.Address) (*big.Int, error) {
	return m.getBig(pairKey(tokenAllowancePrefix, owner, spender))
}

// SetTokenAllowance overwrites the allowance granted by owner to spender.
func (m *Manager) SetTokenAllowance(owner, spender common.Address, amount *big.Int) error {
	return m.putBig(pairKey(tokenAllowancePrefix, owner, spender), amount)
}

// TokenSupply returns the persisted total supply.
func (m *Manager) TokenSupply() (*big.Int, error) {
	return m.getBig(tokenSupplyKeyBytes)
}

// SetTokenSupply overwrites the total supply.
func (m *Manager) SetTokenSupply(amount *big.Int) error {
	return m.putBig(tokenSupplyKeyBytes, amount)
}

// TokenMinter reports whether addr holds the mint capability.
func (m *Manager) TokenMinter(addr common.Address) (bool, error) {
	var granted bool
	if _, err := m.getRLP(addrKey(tokenMinterPrefix, addr), &granted); err != nil {
		return false, err
	}
	return granted, nil
}

// SetTokenMinter grants or revokes the mint capability.
func (m *Manager) SetTokenMinter(addr common.Address, granted bool) error {
	key := addrKey(tokenMinterPrefix, addr)
	if !granted {
		return m.remove(key)
	}
	return m.putRLP(key, true)
}

// MintedTokens returns the aggregate amount minted through the staking and
// reward modules.
func (m *Manager) MintedTokens() (*big.Int, error) {
	return m.getBig(mintedTokensKeyBytes)
}

// SetMintedTokens overwrites the aggregate mint counter.
func (m *Manager) SetMintedTokens(amount *big.Int) error {
	return m.putBig(mintedTokensKeyBytes, amount)
}
