package rpc

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"casechain/core"
	"casechain/crypto"
	"casechain/explorer"
	"casechain/native/staking"
)

// Amounts travel as decimal strings of base units (1 CASE = 1e8).

type StakeRequest struct {
	Amount   string `json:"amount"`
	Days     uint64 `json:"days"`
	Referrer string `json:"referrer,omitempty"`
}

type AmountRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type TokenResponse struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"totalSupply"`
	Minted      string `json:"minted"`
	StakeModule string `json:"stakeModule"`
	Initialized bool   `json:"initialized"`
}

type StakeResponse struct {
	Owner     string `json:"owner"`
	Index     uint64 `json:"index"`
	Principal string `json:"principal"`
	Days      uint64 `json:"days"`
	Interest  string `json:"interest"`
	CreatedAt int64  `json:"createdAt"`
	MaturesAt int64  `json:"maturesAt"`
	Matured   bool   `json:"matured"`
	Withdrawn bool   `json:"withdrawn"`
}

type ReceiptResponse struct {
	Index     uint64 `json:"index"`
	Principal string `json:"principal"`
	Days      uint64 `json:"days"`
	Interest  string `json:"interest"`
	MaturesAt int64  `json:"maturesAt"`
}

type PayoutResponse struct {
	Index     uint64 `json:"index"`
	Principal string `json:"principal"`
	Interest  string `json:"interest"`
	Total     string `json:"total"`
}

type AccountResponse struct {
	Address     string          `json:"address"`
	Balance     string          `json:"balance"`
	Registered  bool            `json:"registered"`
	Referrer    string          `json:"referrer,omitempty"`
	Referrals   []string        `json:"referrals"`
	CareerValue string          `json:"careerValue"`
	CvRank      uint64          `json:"cvRank"`
	Rank        uint64          `json:"rank"`
	Stakes      []StakeResponse `json:"stakes"`
}

type RankResponse struct {
	Address     string `json:"address"`
	Rank        uint64 `json:"rank"`
	CvRank      uint64 `json:"cvRank"`
	CareerValue string `json:"careerValue"`
	NextRank    uint64 `json:"nextRank"`
	Eligible    bool   `json:"eligible"`
	Blocker     string `json:"blocker,omitempty"`
}

type RankUpResponse struct {
	Rank   uint64 `json:"rank"`
	Reward string `json:"reward"`
}

type EventResponse struct {
	Sequence     uint64            `json:"sequence"`
	Type         string            `json:"type"`
	Label        string            `json:"label"`
	Subject      string            `json:"subject"`
	Counterparty string            `json:"counterparty,omitempty"`
	Amount       string            `json:"amount,omitempty"`
	Timestamp    int64             `json:"timestamp"`
	Attributes   map[string]string `json:"attributes"`
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseAmount(raw string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, invalid("amount must be a base-10 integer of base units")
	}
	return value, nil
}

func parseAddress(field, raw string) (common.Address, error) {
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		return common.Address{}, invalid(field + ": " + err.Error())
	}
	return addr, nil
}

// parseOptionalAddress treats an empty value as the zero address.
func parseOptionalAddress(field, raw string) (common.Address, error) {
	if strings.TrimSpace(raw) == "" {
		return common.Address{}, nil
	}
	return parseAddress(field, raw)
}

func stakeResponse(s *staking.Stake, params staking.InterestParams, now int64) StakeResponse {
	interest := s.Interest
	if interest == nil {
		var err error
		if interest, err = params.Interest(s.Principal, s.Days); err != nil {
			interest = nil
		}
	}
	return StakeResponse{
		Owner:     crypto.FormatAddress(s.Owner),
		Index:     s.Index,
		Principal: amountString(s.Principal),
		Days:      s.Days,
		Interest:  amountString(interest),
		CreatedAt: s.CreatedAt,
		MaturesAt: s.MaturesAt(),
		Matured:   s.Matured(now),
		Withdrawn: s.Withdrawn,
	}
}

func stakesResponse(stakes []*staking.Stake, params staking.InterestParams, now int64) []StakeResponse {
	out := make([]StakeResponse, 0, len(stakes))
	for _, s := range stakes {
		out = append(out, stakeResponse(s, params, now))
	}
	return out
}

func formatAddresses(addrs []common.Address) []string {
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, crypto.FormatAddress(addr))
	}
	return out
}

func accountResponse(summary *core.AccountSummary, params staking.InterestParams, now int64) AccountResponse {
	return AccountResponse{
		Address:     crypto.FormatAddress(summary.Address),
		Balance:     amountString(summary.Balance),
		Registered:  summary.Registered,
		Referrer:    crypto.FormatAddress(summary.Referrer),
		Referrals:   formatAddresses(summary.Referrals),
		CareerValue: amountString(summary.CareerValue),
		CvRank:      summary.CvRank,
		Rank:        summary.Rank,
		Stakes:      stakesResponse(summary.Stakes, params, now),
	}
}

func eventResponse(record explorer.EventRecord, viewer string) EventResponse {
	return EventResponse{
		Sequence:     record.Sequence,
		Type:         record.Type,
		Label:        explorer.Label(record, viewer),
		Subject:      record.Subject,
		Counterparty: record.Counterparty,
		Amount:       record.Amount,
		Timestamp:    record.Timestamp,
		Attributes:   record.Attrs(),
	}
}
