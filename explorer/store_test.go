package explorer

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"casechain/core/events"
	"casechain/crypto"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreIndexesBySubjectAndCounterparty(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	alice := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob := common.HexToAddress("0x00000000000000000000000000000000000000b0")
	carol := common.HexToAddress("0x00000000000000000000000000000000000000c0")

	emitted := []events.Event{
		events.ReferralRegistered{Referred: bob, Referrer: alice},
		events.StakeOpened{Owner: bob, Principal: big.NewInt(1_000), Days: 30, Interest: big.NewInt(45), Referrer: alice, MaturesAt: 99},
		events.CommissionPaid{Recipient: alice, Staker: bob, Level: 1, Amount: big.NewInt(3), CareerValue: big.NewInt(3)},
		events.TokenTransfer{From: carol, To: carol, Amount: big.NewInt(1)},
	}
	for i, evt := range emitted {
		store.Emit(events.Stamp(evt, uint64(i+1), 1_700_000_000))
	}

	aliceEvents, err := store.ByAddress(ctx, crypto.FormatAddress(alice), Query{})
	if err != nil {
		t.Fatalf("by address: %v", err)
	}
	if len(aliceEvents) != 3 {
		t.Fatalf("expected 3 events touching alice, got %d", len(aliceEvents))
	}
	for i, want := range []uint64{1, 2, 3} {
		if aliceEvents[i].Sequence != want {
			t.Fatalf("event %d: expected sequence %d, got %d", i, want, aliceEvents[i].Sequence)
		}
	}
	if aliceEvents[2].Amount != "3" || aliceEvents[2].Counterparty != crypto.FormatAddress(bob) {
		t.Fatalf("unexpected commission record %+v", aliceEvents[2])
	}
	if got := Label(aliceEvents[0], crypto.FormatAddress(alice)); got != "New referral" {
		t.Fatalf("label: got %q", got)
	}
	if got := Label(aliceEvents[2], ""); got != "Commission L1" {
		t.Fatalf("label: got %q", got)
	}

	filtered, err := store.ByAddress(ctx, crypto.FormatAddress(alice), Query{Types: []string{events.TypeCommissionPaid}})
	if err != nil {
		t.Fatalf("filtered: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("expected one commission, got %d", len(filtered))
	}

	paged, err := store.ByAddress(ctx, crypto.FormatAddress(alice), Query{AfterSequence: 1, Limit: 1})
	if err != nil {
		t.Fatalf("paged: %v", err)
	}
	if len(paged) != 1 || paged[0].Sequence != 2 {
		t.Fatalf("unexpected page %+v", paged)
	}
}

func TestStoreRecordIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	owner := common.HexToAddress("0x00000000000000000000000000000000000000d0")
	evt := events.Stamp(events.StakeWithdrawn{Owner: owner, Index: 0, Principal: big.NewInt(10), Interest: big.NewInt(1)}, 7, 1)

	for i := 0; i < 2; i++ {
		if err := store.Record(ctx, evt.Event()); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected a single record, got %d", len(recent))
	}
	if recent[0].Attrs()["payout"] != "11" {
		t.Fatalf("attributes not preserved: %v", recent[0].Attrs())
	}
	last, err := store.LastSequence(ctx)
	if err != nil {
		t.Fatalf("last sequence: %v", err)
	}
	if last != 7 {
		t.Fatalf("expected last sequence 7, got %d", last)
	}
}

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
