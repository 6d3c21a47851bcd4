package reward

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"casechain/native/hierarchy"
)

func hierarchyConcurrency(n int) []hierarchy.Option {
	return []hierarchy.Option{hierarchy.WithConcurrency(n)}
}

func TestCvRankStepFunction(t *testing.T) {
	h := newHarness(t, DefaultParams())
	a := addr(1)
	tests := []struct {
		cv   *big.Int
		want uint64
	}{
		{big.NewInt(0), 0},
		{new(big.Int).Sub(cases(1_000), big.NewInt(1)), 0},
		{cases(1_000), 1},
		{cases(49_999), 2},
		{cases(250_000), 5},
		{cases(9_000_000), 5},
	}
	for _, tc := range tests {
		if err := h.state.SetRewardCareerValue(a, tc.cv); err != nil {
			t.Fatalf("set cv: %v", err)
		}
		if got, _ := h.engine.CvRankOf(a); got != tc.want {
			t.Fatalf("cv %s: tier %d, want %d", tc.cv, got, tc.want)
		}
	}
}

func TestRankUpOnceThenInsufficient(t *testing.T) {
	h := newHarness(t, DefaultParams())
	a := addr(1)
	if _, _, err := h.engine.RankUp(a); !errors.Is(err, ErrCareerValueInsufficient) {
		t.Fatalf("expected ErrCareerValueInsufficient, got %v", err)
	}
	if err := h.state.SetRewardCareerValue(a, cases(1_500)); err != nil {
		t.Fatalf("set cv: %v", err)
	}
	rank, reward, err := h.engine.RankUp(a)
	if err != nil {
		t.Fatalf("rank up: %v", err)
	}
	if rank != 1 || reward.Cmp(cases(1_000)) != 0 {
		t.Fatalf("unexpected rank %d reward %s", rank, reward)
	}
	if _, _, err := h.engine.RankUp(a); !errors.Is(err, ErrCareerValueInsufficient) {
		t.Fatalf("expected second rank up to fail, got %v", err)
	}
	if got, _ := h.engine.RankOf(a); got != 1 {
		t.Fatalf("expected rank 1, got %d", got)
	}
	if balance := h.balance(t, a); balance.Cmp(cases(1_000)) != 0 {
		t.Fatalf("expected rank reward minted, got %s", balance)
	}
	minted, _ := h.engine.MintedTokens()
	if minted.Cmp(cases(1_000)) != 0 {
		t.Fatalf("expected mint counter to include rank reward, got %s", minted)
	}
	if cv, _ := h.engine.CareerValue(a); cv.Cmp(cases(1_500)) != 0 {
		t.Fatalf("rank rewards must not change career value, got %s", cv)
	}
}

func TestRankUpDownlineGate(t *testing.T) {
	h := newHarness(t, DefaultParams())
	leader, first, second := addr(1), addr(2), addr(3)
	h.refer(t, leader, common.Address{})
	h.refer(t, first, leader)
	h.refer(t, second, leader)
	if err := h.state.SetRewardCareerValue(leader, cases(20_000)); err != nil {
		t.Fatalf("set cv: %v", err)
	}
	if _, _, err := h.engine.RankUp(leader); err != nil {
		t.Fatalf("rank 1: %v", err)
	}
	if _, _, err := h.engine.RankUp(leader); !errors.Is(err, ErrDownlineQualificationUnmet) {
		t.Fatalf("expected ErrDownlineQualificationUnmet, got %v", err)
	}

	for _, member := range []common.Address{first, second} {
		if err := h.state.SetRewardCareerValue(member, cases(1_000)); err != nil {
			t.Fatalf("set cv: %v", err)
		}
		if _, _, err := h.engine.RankUp(member); err != nil {
			t.Fatalf("member rank up: %v", err)
		}
	}
	next, err := h.engine.RankEligibility(leader)
	if err != nil || next != 2 {
		t.Fatalf("expected leader eligible for rank 2, got %d (%v)", next, err)
	}
	rank, reward, err := h.engine.RankUp(leader)
	if err != nil || rank != 2 || reward.Cmp(cases(5_000)) != 0 {
		t.Fatalf("unexpected rank %d reward %v (%v)", rank, reward, err)
	}
}

func TestRankUpWithoutConfiguredReward(t *testing.T) {
	params := DefaultParams()
	params.RankRewards = params.RankRewards[:1]
	params.DownlineRequirement = 0
	h := newHarness(t, params)
	a := addr(1)
	if err := h.state.SetRewardCareerValue(a, cases(10_000)); err != nil {
		t.Fatalf("set cv: %v", err)
	}
	if _, _, err := h.engine.RankUp(a); err != nil {
		t.Fatalf("rank 1: %v", err)
	}
	rank, reward, err := h.engine.RankUp(a)
	if err != nil || rank != 2 || reward.Sign() != 0 {
		t.Fatalf("unexpected rank %d reward %v (%v)", rank, reward, err)
	}
	if balance := h.balance(t, a); balance.Cmp(cases(1_000)) != 0 {
		t.Fatalf("expected only the rank 1 reward, got %s", balance)
	}
}
