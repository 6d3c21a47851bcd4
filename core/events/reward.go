package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"casechain/core/types"
)

const (
	// TypeReferralRegistered is emitted when a participant's referrer edge is recorded.
	TypeReferralRegistered = "referral.registered"
	// TypeReferralSkipped is emitted when a referrer argument is ignored.
	TypeReferralSkipped = "referral.skipped"
	// TypeCommissionPaid is emitted for every commission credit.
	TypeCommissionPaid = "commission.paid"
	// TypeRankAdvanced is emitted when a participant's staged rank moves up one step.
	TypeRankAdvanced = "rank.advanced"
)

// ReferralRegistered captures a write-once referral edge.
type ReferralRegistered struct {
	Referred common.Address
	Referrer common.Address
}

// EventType satisfies the Event interface.
func (ReferralRegistered) EventType() string { return TypeReferralRegistered }

// Event converts the structured payload into a broadcastable event.
func (e ReferralRegistered) Event() *types.Event {
	attrs := map[string]string{"account": formatAddress(e.Referred)}
	if !zeroAddress(e.Referrer) {
		attrs["referrer"] = formatAddress(e.Referrer)
	}
	return &types.Event{Type: TypeReferralRegistered, Attributes: attrs}
}

// ReferralSkipped captures a referrer argument that was not recorded.
type ReferralSkipped struct {
	Referred common.Address
	Referrer common.Address
	Reason   string
}

// EventType satisfies the Event interface.
func (ReferralSkipped) EventType() string { return TypeReferralSkipped }

// Event converts the structured payload into a broadcastable event.
func (e ReferralSkipped) Event() *types.Event {
	return &types.Event{Type: TypeReferralSkipped, Attributes: map[string]string{
		"account":  formatAddress(e.Referred),
		"referrer": formatAddress(e.Referrer),
		"reason":   e.Reason,
	}}
}

// CommissionPaid captures a single credit of the commission fan-out. Level 0
// denotes the staker's own referred bonus; levels 1..8 are ancestors.
type CommissionPaid struct {
	Recipient   common.Address
	Staker      common.Address
	Level       uint64
	Amount      *big.Int
	CareerValue *big.Int
}

// EventType satisfies the Event interface.
func (CommissionPaid) EventType() string { return TypeCommissionPaid }

// Event converts the structured payload into a broadcastable event.
func (e CommissionPaid) Event() *types.Event {
	return &types.Event{Type: TypeCommissionPaid, Attributes: map[string]string{
		"account":     formatAddress(e.Recipient),
		"staker":      formatAddress(e.Staker),
		"level":       formatUint(e.Level),
		"amount":      formatAmount(e.Amount),
		"careerValue": formatAmount(e.CareerValue),
	}}
}

// RankAdvanced captures a successful rank-up.
type RankAdvanced struct {
	Account common.Address
	From    uint64
	To      uint64
	Reward  *big.Int
}

// EventType satisfies the Event interface.
func (RankAdvanced) EventType() string { return TypeRankAdvanced }

// Event converts the structured payload into a broadcastable event.
func (e RankAdvanced) Event() *types.Event {
	return &types.Event{Type: TypeRankAdvanced, Attributes: map[string]string{
		"account": formatAddress(e.Account),
		"from":    formatUint(e.From),
		"to":      formatUint(e.To),
		"reward":  formatAmount(e.Reward),
	}}
}
