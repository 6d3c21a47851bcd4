package events

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"casechain/crypto"
)

func TestBufferPreservesOrder(t *testing.T) {
	buf := &Buffer{}
	owner := common.HexToAddress("0x01")
	buf.Emit(StakeOpened{Owner: owner, Principal: big.NewInt(10), Interest: big.NewInt(1), Days: 3})
	buf.Emit(CommissionPaid{Recipient: owner, Amount: big.NewInt(2)})
	got := buf.Types()
	if len(got) != 2 || got[0] != TypeStakeOpened || got[1] != TypeCommissionPaid {
		t.Fatalf("unexpected types %v", got)
	}
	buf.Reset()
	if len(buf.Events()) != 0 {
		t.Fatalf("expected empty buffer after reset")
	}
}

func TestStakeOpenedAttributes(t *testing.T) {
	owner := common.HexToAddress("0x0a")
	referrer := common.HexToAddress("0x0b")
	evt := StakeOpened{Owner: owner, Index: 2, Principal: big.NewInt(100), Days: 10, Interest: big.NewInt(7), Referrer: referrer, MaturesAt: 864000}.Event()
	if evt.Attr("account") != crypto.FormatAddress(owner) {
		t.Fatalf("unexpected account %s", evt.Attr("account"))
	}
	if evt.Attr("referrer") != crypto.FormatAddress(referrer) {
		t.Fatalf("unexpected referrer %s", evt.Attr("referrer"))
	}
	if evt.Attr("index") != "2" || evt.Attr("interest") != "7" || evt.Attr("maturesAt") != "864000" {
		t.Fatalf("unexpected attributes %v", evt.Attributes)
	}
	noRef := StakeOpened{Owner: owner}.Event()
	if _, ok := noRef.Attributes["referrer"]; ok {
		t.Fatalf("zero referrer must be omitted")
	}
}

func TestWithdrawnPayout(t *testing.T) {
	evt := StakeWithdrawn{Principal: big.NewInt(1000), Interest: big.NewInt(15)}.Event()
	if evt.Attr("payout") != "1015" {
		t.Fatalf("expected payout 1015, got %s", evt.Attr("payout"))
	}
}

func TestBroadcasterDropsForSlowSubscribers(t *testing.T) {
	b := NewBroadcaster(1)
	ch, cancel := b.Subscribe()
	b.Emit(TokenTransfer{Amount: big.NewInt(1)})
	b.Emit(TokenTransfer{Amount: big.NewInt(2)})
	first := <-ch
	if first.Attr("amount") != "1" {
		t.Fatalf("expected first event, got %v", first.Attributes)
	}
	select {
	case evt := <-ch:
		t.Fatalf("expected second event to be dropped, got %v", evt)
	default:
	}
	cancel()
	cancel()
	if b.Subscribers() != 0 {
		t.Fatalf("expected no subscribers")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
}

func TestMultiSkipsNil(t *testing.T) {
	a, c := &Buffer{}, &Buffer{}
	Multi{a, nil, c}.Emit(RankAdvanced{To: 1})
	if len(a.Events()) != 1 || len(c.Events()) != 1 {
		t.Fatalf("expected both buffers to receive the event")
	}
}
