package state

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"casechain/native/staking"
	"casechain/storage"
)

func TestManagerJournalCommit(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	addr := common.HexToAddress("0x01")

	if err := manager.SetTokenBalance(addr, big.NewInt(42)); err != nil {
		t.Fatalf("set balance: %v", err)
	}
	balance, err := manager.TokenBalance(addr)
	if err != nil || balance.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("expected journaled read of 42, got %v (%v)", balance, err)
	}

	// Nothing reaches the database before Commit.
	fresh := NewManager(db)
	balance, err = fresh.TokenBalance(addr)
	if err != nil || balance.Sign() != 0 {
		t.Fatalf("expected zero before commit, got %v (%v)", balance, err)
	}

	if err := manager.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if manager.Pending() != 0 {
		t.Fatalf("expected empty journal after commit, got %d", manager.Pending())
	}
	balance, err = fresh.TokenBalance(addr)
	if err != nil || balance.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("expected 42 after commit, got %v (%v)", balance, err)
	}
}

func TestManagerDiscard(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	if err := manager.SetMintedTokens(big.NewInt(7)); err != nil {
		t.Fatalf("set minted: %v", err)
	}
	manager.Discard()
	if err := manager.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	minted, err := NewManager(db).MintedTokens()
	if err != nil || minted.Sign() != 0 {
		t.Fatalf("expected discarded write, got %v (%v)", minted, err)
	}
}

func TestManagerRejectsNegativeAmounts(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	if err := manager.SetTokenSupply(big.NewInt(-1)); err == nil {
		t.Fatalf("expected negative supply to be rejected")
	}
}

func TestMinterRevokeRemovesKey(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	addr := common.HexToAddress("0x02")
	if err := manager.SetTokenMinter(addr, true); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if ok, _ := manager.TokenMinter(addr); !ok {
		t.Fatalf("expected minter")
	}
	if err := manager.SetTokenMinter(addr, false); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := manager.TokenMinter(addr); ok {
		t.Fatalf("expected revoked minter")
	}
}

func TestStakingRecords(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	owner := common.HexToAddress("0x03")

	for i := uint64(0); i < 2; i++ {
		stake := &staking.Stake{Owner: owner, Index: i, Principal: big.NewInt(int64(100 * (i + 1))), Days: 10, CreatedAt: 1_700_000_000, Interest: big.NewInt(int64(7 * (i + 1)))}
		if err := manager.StakingStakePut(stake); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	count, err := manager.StakingStakeCount(owner)
	if err != nil || count != 2 {
		t.Fatalf("expected count 2, got %d (%v)", count, err)
	}
	if err := manager.StakingStakePut(&staking.Stake{Owner: owner, Index: 5}); err == nil {
		t.Fatalf("expected gap index to be rejected")
	}

	stake, ok, err := manager.StakingStakeGet(owner, 1)
	if err != nil || !ok {
		t.Fatalf("get: %v ok=%v", err, ok)
	}
	if stake.Principal.Cmp(big.NewInt(200)) != 0 || stake.CreatedAt != 1_700_000_000 || stake.Interest.Cmp(big.NewInt(14)) != 0 {
		t.Fatalf("unexpected stake: %+v", stake)
	}
	stake.Withdrawn = true
	if err := manager.StakingStakePut(stake); err != nil {
		t.Fatalf("update: %v", err)
	}
	count, _ = manager.StakingStakeCount(owner)
	if count != 2 {
		t.Fatalf("update must not bump count, got %d", count)
	}
	stake, _, _ = manager.StakingStakeGet(owner, 1)
	if !stake.Withdrawn {
		t.Fatalf("expected withdrawn flag persisted")
	}
	if _, ok, _ := manager.StakingStakeGet(owner, 2); ok {
		t.Fatalf("expected missing stake")
	}
}

func TestStakingRewardModule(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	addr, err := manager.StakingRewardModule()
	if err != nil || addr != (common.Address{}) {
		t.Fatalf("expected zero module, got %s (%v)", addr.Hex(), err)
	}
	module := common.HexToAddress("0xfeed")
	if err := manager.SetStakingRewardModule(module); err != nil {
		t.Fatalf("set module: %v", err)
	}
	if addr, _ := manager.StakingRewardModule(); addr != module {
		t.Fatalf("expected %s, got %s", module.Hex(), addr.Hex())
	}
}

func TestRewardGraphRecords(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	root := common.HexToAddress("0x10")
	a := common.HexToAddress("0x11")
	b := common.HexToAddress("0x12")

	for _, addr := range []common.Address{root, a, b, a} {
		if err := manager.RegisterRewardUser(addr); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	count, err := manager.RewardUserCount()
	if err != nil || count != 3 {
		t.Fatalf("expected 3 users, got %d (%v)", count, err)
	}
	if got, _ := manager.RewardUserAt(1); got != a {
		t.Fatalf("expected registration order preserved, got %s", got.Hex())
	}

	if err := manager.SetRewardReferrer(a, root); err != nil {
		t.Fatalf("refer a: %v", err)
	}
	if err := manager.SetRewardReferrer(b, root); err != nil {
		t.Fatalf("refer b: %v", err)
	}
	referrals, err := manager.RewardReferrals(root)
	if err != nil || len(referrals) != 2 || referrals[0] != a || referrals[1] != b {
		t.Fatalf("unexpected referrals %v (%v)", referrals, err)
	}
	if ref, _ := manager.RewardReferrer(a); ref != root {
		t.Fatalf("expected referrer %s, got %s", root.Hex(), ref.Hex())
	}
	if ref, _ := manager.RewardReferrer(root); ref != (common.Address{}) {
		t.Fatalf("expected root without referrer")
	}

	if err := manager.SetRewardCareerValue(a, big.NewInt(99)); err != nil {
		t.Fatalf("cv: %v", err)
	}
	if cv, _ := manager.RewardCareerValue(a); cv.Cmp(big.NewInt(99)) != 0 {
		t.Fatalf("expected cv 99, got %v", cv)
	}
	if err := manager.SetRewardRank(a, 2); err != nil {
		t.Fatalf("rank: %v", err)
	}
	if rank, _ := manager.RewardRank(a); rank != 2 {
		t.Fatalf("expected rank 2, got %d", rank)
	}
}

func TestEnsureStateVersion(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	if err := manager.EnsureStateVersion(); err != nil {
		t.Fatalf("stamp fresh state: %v", err)
	}
	if err := manager.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	version, ok, err := NewManager(db).StateVersion()
	if err != nil || !ok || version != StateVersion {
		t.Fatalf("expected stored version %d, got %d ok=%v err=%v", StateVersion, version, ok, err)
	}

	stale := NewManager(db)
	if err := stale.SetStateVersion(StateVersion + 1); err != nil {
		t.Fatalf("set version: %v", err)
	}
	if err := stale.EnsureStateVersion(); !errors.Is(err, ErrStateVersionMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}
