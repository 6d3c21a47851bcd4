package core

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"casechain/core/events"
	"casechain/core/state"
	"casechain/native/reward"
	"casechain/native/staking"
	"casechain/native/token"
	"casechain/storage"
)

var (
	tokenAddr  = common.HexToAddress("0x7000000000000000000000000000000000000001")
	adminAddr  = common.HexToAddress("0xad00000000000000000000000000000000000001")
	stakeAddr  = common.HexToAddress("0x5a00000000000000000000000000000000000001")
	rewardAddr = common.HexToAddress("0x8e00000000000000000000000000000000000001")
)

type testEnv struct {
	engine *Engine
	db     storage.Database
	events *events.Buffer
	now    int64
}

func testConfig() Config {
	return Config{
		TokenAddress: tokenAddr,
		TokenAdmin:   adminAddr,
		StakeModule:  stakeAddr,
		RewardModule: rewardAddr,
		Staking:      staking.DefaultParams(),
		Reward:       reward.DefaultParams(),
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{db: storage.NewMemDB(), events: &events.Buffer{}, now: 1_700_000_000}
	engine, err := NewEngine(env.db, testConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	engine.SetEmitter(env.events)
	engine.SetNowFunc(func() int64 { return env.now })
	if err := engine.Deploy(); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	env.engine = engine
	env.events.Reset()
	return env
}

func caseUnits(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), token.Unit)
}

func (env *testEnv) fund(t *testing.T, addr common.Address, amount *big.Int) {
	t.Helper()
	if err := env.engine.Mint(adminAddr, addr, amount); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if err := env.engine.Approve(addr, stakeAddr, amount); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func (env *testEnv) balance(t *testing.T, addr common.Address) *big.Int {
	t.Helper()
	balance, err := env.engine.BalanceOf(addr)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance
}

func (env *testEnv) supply(t *testing.T) *big.Int {
	t.Helper()
	supply, err := env.engine.TotalSupply()
	if err != nil {
		t.Fatalf("supply: %v", err)
	}
	return supply
}

func (env *testEnv) stake(t *testing.T, staker common.Address, amount *big.Int, days uint64, referrer common.Address) *staking.Receipt {
	t.Helper()
	receipt, err := env.engine.Stake(staker, amount, days, referrer)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	return receipt
}

// within reports whether got is within 0.1% of want.
func within(got, want *big.Int) bool {
	diff := new(big.Int).Sub(got, want)
	diff.Abs(diff)
	diff.Mul(diff, big.NewInt(1000))
	return diff.Cmp(want) <= 0
}

func share(amount *big.Int, percentTimes10 int64) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(percentTimes10))
	return out.Quo(out, big.NewInt(1000))
}

func TestStakeWithoutReferrerMintsExactInterest(t *testing.T) {
	env := newTestEnv(t)
	staker := common.HexToAddress("0xa1")
	principal := caseUnits(10_000)
	env.fund(t, staker, principal)
	supplyBefore := env.supply(t)

	receipt := env.stake(t, staker, principal, 100, common.Address{})
	if receipt.Interest.Cmp(big.NewInt(155_323_972_602)) != 0 {
		t.Fatalf("unexpected interest %s", receipt.Interest)
	}
	delta := new(big.Int).Sub(env.supply(t), supplyBefore)
	if delta.Cmp(big.NewInt(155_323_972_602)) != 0 {
		t.Fatalf("expected supply delta 155323972602, got %s", delta)
	}
	minted, err := env.engine.MintedTokens()
	if err != nil || minted.Cmp(big.NewInt(155_323_972_602)) != 0 {
		t.Fatalf("expected minted 155323972602, got %v (%v)", minted, err)
	}
	if ref, _ := env.engine.ReferrerOf(staker); ref != (common.Address{}) {
		t.Fatalf("expected no referrer")
	}

	if _, err := env.engine.Withdraw(staker, 0); !errors.Is(err, staking.ErrNotMatured) {
		t.Fatalf("expected ErrNotMatured, got %v", err)
	}
	env.now += 100 * staking.SecondsPerDay
	payout, err := env.engine.Withdraw(staker, 0)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if payout.Total.Cmp(big.NewInt(1_155_323_972_602)) != 0 {
		t.Fatalf("expected payout 1155323972602, got %s", payout.Total)
	}
	if balance := env.balance(t, staker); balance.Cmp(payout.Total) != 0 {
		t.Fatalf("expected staker balance %s, got %s", payout.Total, balance)
	}
	if custody := env.balance(t, stakeAddr); custody.Sign() != 0 {
		t.Fatalf("expected empty custody, got %s", custody)
	}
	if _, err := env.engine.Withdraw(staker, 0); !errors.Is(err, staking.ErrAlreadyWithdrawn) {
		t.Fatalf("expected ErrAlreadyWithdrawn, got %v", err)
	}
}

func TestStakeWithReferrerPaysBonusAndCommission(t *testing.T) {
	env := newTestEnv(t)
	staker := common.HexToAddress("0xa1")
	referrer := common.HexToAddress("0xb1")
	env.fund(t, staker, caseUnits(10_000))

	receipt := env.stake(t, staker, caseUnits(10_000), 10, referrer)
	if got := env.balance(t, staker); !within(got, share(receipt.Interest, 30)) {
		t.Fatalf("staker bonus %s not within 0.1%% of 3%% of %s", got, receipt.Interest)
	}
	if got := env.balance(t, referrer); !within(got, share(receipt.Interest, 80)) {
		t.Fatalf("referrer commission %s not within 0.1%% of 8%% of %s", got, receipt.Interest)
	}
	if ref, _ := env.engine.ReferrerOf(staker); ref != referrer {
		t.Fatalf("expected referrer recorded")
	}
	cv, _ := env.engine.CareerValue(referrer)
	if cv.Cmp(env.balance(t, referrer)) != 0 {
		t.Fatalf("career value %s must equal commissions received", cv)
	}
}

func TestReferrerIsSticky(t *testing.T) {
	env := newTestEnv(t)
	a := common.HexToAddress("0xa1")
	b := common.HexToAddress("0xb1")
	c := common.HexToAddress("0xc1")
	env.fund(t, a, caseUnits(20_000))

	env.stake(t, a, caseUnits(10_000), 10, b)
	bBefore := env.balance(t, b)
	env.stake(t, a, caseUnits(10_000), 10, c)

	if ref, _ := env.engine.ReferrerOf(a); ref != b {
		t.Fatalf("expected referrer to stay %s, got %s", b.Hex(), ref.Hex())
	}
	if env.balance(t, c).Sign() != 0 {
		t.Fatalf("ignored referrer must receive nothing")
	}
	if env.balance(t, b).Cmp(bBefore) <= 0 {
		t.Fatalf("original referrer must keep earning")
	}
	if _, err := env.engine.Stake(a, caseUnits(1), 10, a); !errors.Is(err, staking.ErrSelfReferral) {
		t.Fatalf("expected ErrSelfReferral, got %v", err)
	}
	if ok, _ := env.engine.CanRefer(a, a); ok {
		t.Fatalf("canRefer(x, x) must be false")
	}
}

func TestFourLevelChain(t *testing.T) {
	env := newTestEnv(t)
	d := common.HexToAddress("0xd1")
	s := common.HexToAddress("0x51")
	k := common.HexToAddress("0x61")
	h := common.HexToAddress("0x71")
	amount := caseUnits(10_000)
	for _, addr := range []common.Address{d, s, k, h} {
		env.fund(t, addr, amount)
	}

	var interest *big.Int
	gains := make(map[common.Address]*big.Int)
	for _, step := range []struct{ staker, referrer common.Address }{
		{d, common.Address{}}, {s, d}, {k, s}, {h, k},
	} {
		before := map[common.Address]*big.Int{}
		for _, addr := range []common.Address{d, s, k} {
			before[addr] = env.balance(t, addr)
		}
		receipt := env.stake(t, step.staker, amount, 10, step.referrer)
		interest = receipt.Interest
		if step.staker == h {
			for _, addr := range []common.Address{d, s, k} {
				gains[addr] = new(big.Int).Sub(env.balance(t, addr), before[addr])
			}
		}
	}

	// Gains from h's stake alone: k is level 1, s level 2, d level 3.
	if !within(gains[k], share(interest, 80)) {
		t.Fatalf("level 1 gain %s", gains[k])
	}
	if !within(gains[s], share(interest, 50)) {
		t.Fatalf("level 2 gain %s", gains[s])
	}
	if !within(gains[d], share(interest, 25)) {
		t.Fatalf("level 3 gain %s", gains[d])
	}

	// Cumulative: each ancestor collects every level it qualifies for.
	cvS, _ := env.engine.CareerValue(s)
	cvD, _ := env.engine.CareerValue(d)
	if !within(cvD, share(interest, 80+50+25)) {
		t.Fatalf("root career value %s", cvD)
	}
	wantS := new(big.Int).Add(share(interest, 80+50), share(interest, 30))
	if !within(cvS, wantS) {
		t.Fatalf("level 2 career value %s, want about %s", cvS, wantS)
	}
}

func TestRankUpSucceedsOnceThenFails(t *testing.T) {
	env := newTestEnv(t)
	leader := common.HexToAddress("0xe1")
	member := common.HexToAddress("0xe2")
	env.fund(t, member, caseUnits(100_000))
	env.stake(t, member, caseUnits(100_000), 365, leader)

	tier, _ := env.engine.CvRankOf(leader)
	if tier != 1 {
		t.Fatalf("expected cv tier 1, got %d", tier)
	}
	rank, paid, err := env.engine.RankUp(leader)
	if err != nil || rank != 1 {
		t.Fatalf("first rank up: rank=%d err=%v", rank, err)
	}
	if paid.Cmp(caseUnits(1_000)) != 0 {
		t.Fatalf("expected rank reward 1000 CASE, got %s", paid)
	}
	if _, _, err := env.engine.RankUp(leader); !errors.Is(err, reward.ErrCareerValueInsufficient) {
		t.Fatalf("expected ErrCareerValueInsufficient, got %v", err)
	}
	if rank, _ := env.engine.RankOf(leader); rank != 1 {
		t.Fatalf("expected rank 1, got %d", rank)
	}
}

func TestFailedStakeLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	staker := common.HexToAddress("0xa1")
	if err := env.engine.Mint(adminAddr, staker, caseUnits(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	supply := env.supply(t)
	env.events.Reset()

	_, err := env.engine.Stake(staker, caseUnits(100), 10, common.HexToAddress("0xb1"))
	if !errors.Is(err, token.ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
	if err := env.engine.Approve(staker, stakeAddr, caseUnits(1_000)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := env.engine.Stake(staker, caseUnits(1_000), 10, common.Address{}); !errors.Is(err, token.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	if env.supply(t).Cmp(supply) != 0 {
		t.Fatalf("failed stakes must not mint")
	}
	if minted, _ := env.engine.MintedTokens(); minted.Sign() != 0 {
		t.Fatalf("failed stakes must not move the mint counter")
	}
	if stakes, _ := env.engine.Stakes(staker); len(stakes) != 0 {
		t.Fatalf("failed stakes must not be recorded")
	}
	summary, err := env.engine.Account(staker)
	if err != nil || summary.Registered {
		t.Fatalf("failed stakes must not register the staker (%v)", err)
	}
	if types := env.events.Types(); len(types) != 1 || types[0] != events.TypeTokenApproval {
		t.Fatalf("expected only the approval event, got %v", types)
	}
}

func TestEventsStampedInCommitOrder(t *testing.T) {
	env := newTestEnv(t)
	staker := common.HexToAddress("0xa1")
	env.fund(t, staker, caseUnits(10))
	env.stake(t, staker, caseUnits(10), 5, common.HexToAddress("0xb1"))

	var last uint64
	for i, evt := range env.events.Events() {
		payload := evt.Event()
		if payload.Sequence == 0 || (i > 0 && payload.Sequence != last+1) {
			t.Fatalf("event %d (%s) has sequence %d after %d", i, payload.Type, payload.Sequence, last)
		}
		if payload.Timestamp != env.now {
			t.Fatalf("expected commit timestamp %d, got %d", env.now, payload.Timestamp)
		}
		last = payload.Sequence
	}
	types := env.events.Types()
	if types[len(types)-1] != events.TypeStakeOpened {
		t.Fatalf("expected stake.opened last, got %v", types)
	}
}

func TestDeployIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	if err := env.engine.Deploy(); err != nil {
		t.Fatalf("second deploy: %v", err)
	}
	if err := env.engine.Init(); !errors.Is(err, staking.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
	for _, module := range []common.Address{stakeAddr, rewardAddr} {
		if ok, _ := env.engine.IsMinter(module); !ok {
			t.Fatalf("expected %s to hold the mint capability", module.Hex())
		}
	}
}

func TestStakeRequiresMintCapability(t *testing.T) {
	env := newTestEnv(t)
	staker := common.HexToAddress("0xa1")
	env.fund(t, staker, caseUnits(10))
	if err := env.engine.RevokeMinter(adminAddr, stakeAddr); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := env.engine.Stake(staker, caseUnits(10), 10, common.Address{}); !errors.Is(err, token.ErrNotMinter) {
		t.Fatalf("expected ErrNotMinter, got %v", err)
	}
	if balance := env.balance(t, staker); balance.Cmp(caseUnits(10)) != 0 {
		t.Fatalf("escrow must roll back, balance %s", balance)
	}
}

func TestStakeBeforeInit(t *testing.T) {
	engine, err := NewEngine(storage.NewMemDB(), testConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := engine.Stake(common.HexToAddress("0xa1"), big.NewInt(1), 1, common.Address{}); !errors.Is(err, staking.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestStatePersistsAcrossEngines(t *testing.T) {
	env := newTestEnv(t)
	staker := common.HexToAddress("0xa1")
	env.fund(t, staker, caseUnits(10))
	env.stake(t, staker, caseUnits(10), 10, common.Address{})

	reopened, err := NewEngine(env.db, testConfig())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	stakes, err := reopened.Stakes(staker)
	if err != nil || len(stakes) != 1 {
		t.Fatalf("expected persisted stake, got %d (%v)", len(stakes), err)
	}
	if ok, _ := reopened.Initialized(); !ok {
		t.Fatalf("expected persisted initialisation")
	}
}

func TestWithdrawPaysInterestMintedAtStake(t *testing.T) {
	env := newTestEnv(t)
	alice := common.HexToAddress("0xa1")
	bob := common.HexToAddress("0xb1")
	principal := caseUnits(10_000)
	minted := big.NewInt(155_323_972_602)
	for _, staker := range []common.Address{alice, bob} {
		env.fund(t, staker, principal)
		if receipt := env.stake(t, staker, principal, 100, common.Address{}); receipt.Interest.Cmp(minted) != 0 {
			t.Fatalf("unexpected interest %s", receipt.Interest)
		}
	}

	// the operator doubles the base rate and restarts on the same database
	cfg := testConfig()
	cfg.Staking.Interest.DailyBaseReward *= 2
	reopened, err := NewEngine(env.db, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.SetNowFunc(func() int64 { return env.now + 100*staking.SecondsPerDay })

	want := new(big.Int).Add(principal, minted)
	for _, staker := range []common.Address{alice, bob} {
		payout, err := reopened.Withdraw(staker, 0)
		if err != nil {
			t.Fatalf("withdraw %s: %v", staker.Hex(), err)
		}
		if payout.Interest.Cmp(minted) != 0 || payout.Total.Cmp(want) != 0 {
			t.Fatalf("expected payout %s, got %s (interest %s)", want, payout.Total, payout.Interest)
		}
	}
	custody, err := reopened.BalanceOf(stakeAddr)
	if err != nil || custody.Sign() != 0 {
		t.Fatalf("expected empty custody, got %s (%v)", custody, err)
	}
}

func TestAuditRanksSettle(t *testing.T) {
	env := newTestEnv(t)
	leader := common.HexToAddress("0xe1")
	member := common.HexToAddress("0xe2")
	env.fund(t, member, caseUnits(100_000))
	env.stake(t, member, caseUnits(100_000), 365, leader)

	// Only the member is registered; its referred bonus alone reaches tier 1.
	dry, err := env.engine.AuditRanks(context.Background(), false)
	if err != nil {
		t.Fatalf("dry audit: %v", err)
	}
	if dry.Participants != 1 || dry.Eligible != 1 || dry.Advanced != 0 {
		t.Fatalf("unexpected dry report %+v", dry)
	}
	if rank, _ := env.engine.RankOf(member); rank != 0 {
		t.Fatalf("dry audit must not change ranks")
	}

	// The leader joins as a root; settling ranks the member first, then the
	// leader.
	env.fund(t, leader, caseUnits(1))
	env.stake(t, leader, caseUnits(1), 1, common.Address{})
	report, err := env.engine.AuditRanks(context.Background(), true)
	if err != nil {
		t.Fatalf("settle audit: %v", err)
	}
	if report.Participants != 2 || report.Roots != 1 || report.Advanced != 2 {
		t.Fatalf("unexpected settle report %+v", report)
	}
	for _, addr := range []common.Address{leader, member} {
		if rank, _ := env.engine.RankOf(addr); rank != 1 {
			t.Fatalf("expected %s at rank 1, got %d", addr.Hex(), rank)
		}
	}
}

func TestIsClientError(t *testing.T) {
	wrapped := fmt.Errorf("refer: %w", reward.ErrUnauthorized)
	if !IsClientError(wrapped) {
		t.Fatalf("expected wrapped reward sentinel to be a client error")
	}
	if !IsClientError(staking.ErrNotMatured) || !IsClientError(token.ErrInsufficientAllowance) {
		t.Fatalf("expected engine sentinels to be client errors")
	}
	if IsClientError(errors.New("disk full")) || IsClientError(nil) {
		t.Fatalf("infrastructure errors must not be client errors")
	}
}

func TestDeployRejectsForeignSchema(t *testing.T) {
	db := storage.NewMemDB()
	manager := state.NewManager(db)
	if err := manager.SetStateVersion(state.StateVersion + 1); err != nil {
		t.Fatalf("set version: %v", err)
	}
	if err := manager.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	engine, err := NewEngine(db, testConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.Deploy(); !errors.Is(err, state.ErrStateVersionMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	initialized, err := engine.Initialized()
	if err != nil || initialized {
		t.Fatalf("failed deploy must not initialize: %v %v", initialized, err)
	}
}
