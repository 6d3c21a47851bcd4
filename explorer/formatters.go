package explorer

import (
	"fmt"
	"strings"

	"casechain/core/events"
)

// Label returns the human readable explorer label for a record, written from
// the point of view of viewer.
func Label(record EventRecord, viewer string) string {
	attrs := record.Attrs()
	switch record.Type {
	case events.TypeStakeOpened:
		return fmt.Sprintf("Staked for %s days", attrs["days"])
	case events.TypeStakeWithdrawn:
		return "Withdrew stake #" + attrs["index"]
	case events.TypeReferralRegistered:
		if viewer != "" && viewer == attrs["referrer"] {
			return "New referral"
		}
		if attrs["referrer"] == "" {
			return "Joined without referrer"
		}
		return "Joined via referral"
	case events.TypeReferralSkipped:
		return "Referral ignored (" + attrs["reason"] + ")"
	case events.TypeCommissionPaid:
		if attrs["level"] == "0" {
			return "Referred bonus"
		}
		return "Commission L" + attrs["level"]
	case events.TypeRankAdvanced:
		return "Reached rank " + attrs["to"]
	case events.TypeMintCapSkipped:
		return "Reward skipped (mint cap)"
	case events.TypeTokenTransfer:
		if viewer != "" && viewer == attrs["to"] {
			return "Received CASE"
		}
		return "Sent CASE"
	case events.TypeTokenMint:
		return "Minted CASE"
	case events.TypeTokenApproval:
		return "Approved spender"
	case events.TypeTokenMinterGranted:
		return "Minter granted"
	case events.TypeTokenMinterRevoked:
		return "Minter revoked"
	default:
		return strings.ReplaceAll(record.Type, ".", " ")
	}
}
