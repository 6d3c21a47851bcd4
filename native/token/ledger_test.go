package token

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"casechain/core/events"
	"casechain/core/state"
	"casechain/storage"
)

var (
	ledgerAddr = common.HexToAddress("0x70")
	adminAddr  = common.HexToAddress("0x71")
	alice      = common.HexToAddress("0xa1")
	bob        = common.HexToAddress("0xb0")
	stakeMod   = common.HexToAddress("0x5a")
)

func newTestLedger(t *testing.T) (*Ledger, *events.Buffer) {
	t.Helper()
	ledger := NewLedger(ledgerAddr, adminAddr)
	ledger.SetState(state.NewManager(storage.NewMemDB()))
	buffer := &events.Buffer{}
	ledger.SetEmitter(buffer)
	return ledger, buffer
}

func TestMintRequiresCapability(t *testing.T) {
	ledger, buffer := newTestLedger(t)

	require.ErrorIs(t, ledger.Mint(stakeMod, alice, big.NewInt(10)), ErrNotMinter)
	require.ErrorIs(t, ledger.GrantMinter(alice, stakeMod), ErrNotAdmin)

	require.NoError(t, ledger.Mint(adminAddr, alice, big.NewInt(10)))
	require.NoError(t, ledger.GrantMinter(adminAddr, stakeMod))
	require.NoError(t, ledger.Mint(stakeMod, alice, big.NewInt(5)))

	balance, err := ledger.BalanceOf(alice)
	require.NoError(t, err)
	require.Equal(t, int64(15), balance.Int64())
	supply, err := ledger.TotalSupply()
	require.NoError(t, err)
	require.Equal(t, int64(15), supply.Int64())

	require.NoError(t, ledger.RevokeMinter(adminAddr, stakeMod))
	require.ErrorIs(t, ledger.Mint(stakeMod, alice, big.NewInt(1)), ErrNotMinter)

	require.Equal(t, []string{
		events.TypeTokenMint,
		events.TypeTokenMinterGranted,
		events.TypeTokenMint,
		events.TypeTokenMinterRevoked,
	}, buffer.Types())
}

func TestTransfer(t *testing.T) {
	ledger, _ := newTestLedger(t)
	require.NoError(t, ledger.Mint(adminAddr, alice, big.NewInt(100)))

	require.ErrorIs(t, ledger.Transfer(alice, bob, big.NewInt(101)), ErrInsufficientBalance)
	require.ErrorIs(t, ledger.Transfer(alice, bob, big.NewInt(0)), ErrInvalidAmount)
	require.ErrorIs(t, ledger.Transfer(alice, common.Address{}, big.NewInt(1)), ErrZeroAddress)
	require.NoError(t, ledger.Transfer(alice, bob, big.NewInt(40)))
	require.NoError(t, ledger.Transfer(bob, bob, big.NewInt(40)))

	a, _ := ledger.BalanceOf(alice)
	b, _ := ledger.BalanceOf(bob)
	require.Equal(t, int64(60), a.Int64())
	require.Equal(t, int64(40), b.Int64())
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	ledger, _ := newTestLedger(t)
	require.NoError(t, ledger.Mint(adminAddr, alice, big.NewInt(100)))

	require.ErrorIs(t, ledger.TransferFrom(stakeMod, alice, stakeMod, big.NewInt(10)), ErrInsufficientAllowance)
	require.NoError(t, ledger.Approve(alice, stakeMod, big.NewInt(30)))
	require.NoError(t, ledger.TransferFrom(stakeMod, alice, stakeMod, big.NewInt(10)))

	remaining, err := ledger.Allowance(alice, stakeMod)
	require.NoError(t, err)
	require.Equal(t, int64(20), remaining.Int64())

	// Allowance suffices but the balance does not.
	require.NoError(t, ledger.Approve(alice, stakeMod, big.NewInt(1_000)))
	require.ErrorIs(t, ledger.TransferFrom(stakeMod, alice, stakeMod, big.NewInt(500)), ErrInsufficientBalance)
	remaining, _ = ledger.Allowance(alice, stakeMod)
	require.Equal(t, int64(1_000), remaining.Int64())
}

func TestDecimals(t *testing.T) {
	ledger, _ := newTestLedger(t)
	require.Equal(t, uint8(8), ledger.Decimals())
	require.Equal(t, "100000000", Unit.String())
}
