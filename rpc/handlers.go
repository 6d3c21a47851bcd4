package rpc

import (
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"casechain/crypto"
	"casechain/explorer"
	"casechain/native/reward"
	"casechain/native/token"
	"casechain/rpc/middleware"
)

func (s *Server) pathAddress(r *http.Request) (common.Address, error) {
	return parseAddress("address", chi.URLParam(r, "address"))
}

func pathIndex(r *http.Request) (uint64, error) {
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		return 0, invalid("index must be an unsigned integer")
	}
	return index, nil
}

// caller is guaranteed by the auth middleware on write routes.
func caller(r *http.Request) common.Address {
	addr, _ := middleware.Caller(r.Context())
	return addr
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	supply, err := s.engine.TotalSupply()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	minted, err := s.engine.MintedTokens()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	initialized, err := s.engine.Initialized()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{
		Address:     crypto.FormatAddress(s.engine.CaseToken()),
		Name:        token.Name,
		Symbol:      token.Symbol,
		Decimals:    token.Decimals,
		TotalSupply: amountString(supply),
		Minted:      amountString(minted),
		StakeModule: crypto.FormatAddress(s.engine.Config().StakeModule),
		Initialized: initialized,
	})
}

func (s *Server) handleInterest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	amount, err := parseAmount(query.Get("amount"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	days, err := strconv.ParseUint(query.Get("days"), 10, 64)
	if err != nil {
		s.writeError(w, r, invalid("days must be an unsigned integer"))
		return
	}
	interest, err := s.engine.InterestAmount(amount, days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"interest": interest.String()})
}

func (s *Server) handleCanRefer(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	referred, err := parseAddress("referred", query.Get("referred"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	referrer, err := parseAddress("referrer", query.Get("referrer"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok, err := s.engine.CanRefer(referred, referrer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"canRefer": ok})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := s.pathAddress(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := s.engine.Account(addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse(summary, s.engine.Config().Staking.Interest, s.engine.Now()))
}

func (s *Server) handleStakes(w http.ResponseWriter, r *http.Request) {
	addr, err := s.pathAddress(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stakes, err := s.engine.Stakes(addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stakesResponse(stakes, s.engine.Config().Staking.Interest, s.engine.Now()))
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	addr, err := s.pathAddress(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	index, err := pathIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stake, err := s.engine.StakeAt(addr, index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stakeResponse(stake, s.engine.Config().Staking.Interest, s.engine.Now()))
}

func (s *Server) handleReferrals(w http.ResponseWriter, r *http.Request) {
	addr, err := s.pathAddress(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	referrals, err := s.engine.Referrals(addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	referrer, err := s.engine.ReferrerOf(addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"referrer":  crypto.FormatAddress(referrer),
		"referrals": formatAddresses(referrals),
	})
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	addr, err := s.pathAddress(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := RankResponse{Address: crypto.FormatAddress(addr)}
	if resp.Rank, err = s.engine.RankOf(addr); err != nil {
		s.writeError(w, r, err)
		return
	}
	if resp.CvRank, err = s.engine.CvRankOf(addr); err != nil {
		s.writeError(w, r, err)
		return
	}
	cv, err := s.engine.CareerValue(addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp.CareerValue = amountString(cv)
	next, blocker := s.engine.RankEligibility(addr)
	switch {
	case blocker == nil:
		resp.Eligible = true
	case reward.IsRankBlocked(blocker):
		resp.Blocker = blocker.Error()
	default:
		s.writeError(w, r, blocker)
		return
	}
	resp.NextRank = next
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request) {
	owner, err := s.pathAddress(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	spender, err := parseAddress("spender", chi.URLParam(r, "spender"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	allowance, err := s.engine.Allowance(owner, spender)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"allowance": amountString(allowance)})
}

func (s *Server) indexDisabled(w http.ResponseWriter) bool {
	if s.index != nil {
		return false
	}
	writeJSON(w, http.StatusNotFound, errorBody{Error: APIError{Code: "explorer_disabled", Message: "event index not configured"}})
	return true
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	if s.indexDisabled(w) {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var err error
		if limit, err = strconv.Atoi(raw); err != nil {
			s.writeError(w, r, invalid("limit must be an integer"))
			return
		}
	}
	records, err := s.index.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]EventResponse, 0, len(records))
	for _, record := range records {
		out = append(out, eventResponse(record, ""))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAccountEvents(w http.ResponseWriter, r *http.Request) {
	if s.indexDisabled(w) {
		return
	}
	addr, err := s.pathAddress(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	query := r.URL.Query()
	q := explorer.Query{}
	if raw := query.Get("after"); raw != "" {
		if q.AfterSequence, err = strconv.ParseUint(raw, 10, 64); err != nil {
			s.writeError(w, r, invalid("after must be an unsigned integer"))
			return
		}
	}
	if raw := query.Get("limit"); raw != "" {
		if q.Limit, err = strconv.Atoi(raw); err != nil {
			s.writeError(w, r, invalid("limit must be an integer"))
			return
		}
	}
	if raw := strings.TrimSpace(query.Get("types")); raw != "" {
		q.Types = strings.Split(raw, ",")
	}
	viewer := crypto.FormatAddress(addr)
	records, err := s.index.ByAddress(r.Context(), viewer, q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]EventResponse, 0, len(records))
	for _, record := range records {
		out = append(out, eventResponse(record, viewer))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStakeOpen(w http.ResponseWriter, r *http.Request) {
	var req StakeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	referrer, err := parseOptionalAddress("referrer", req.Referrer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	receipt, err := s.engine.Stake(caller(r), amount, req.Days, referrer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ReceiptResponse{
		Index:     receipt.Index,
		Principal: amountString(receipt.Principal),
		Days:      receipt.Days,
		Interest:  amountString(receipt.Interest),
		MaturesAt: receipt.MaturesAt,
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	payout, err := s.engine.Withdraw(caller(r), index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PayoutResponse{
		Index:     payout.Index,
		Principal: amountString(payout.Principal),
		Interest:  amountString(payout.Interest),
		Total:     amountString(payout.Total),
	})
}

func (s *Server) handleRankUp(w http.ResponseWriter, r *http.Request) {
	rank, paid, err := s.engine.RankUp(caller(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RankUpResponse{Rank: rank, Reward: amountString(paid)})
}

func (s *Server) decodeAmountRequest(r *http.Request) (common.Address, *AmountRequest, error) {
	var req AmountRequest
	if err := decodeJSON(r, &req); err != nil {
		return common.Address{}, nil, err
	}
	account, err := parseAddress("account", req.Account)
	if err != nil {
		return common.Address{}, nil, err
	}
	return account, &req, nil
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.amountOperation(w, r, s.engine.Approve)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	s.amountOperation(w, r, s.engine.Transfer)
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	s.amountOperation(w, r, s.engine.Mint)
}

// amountOperation runs op(caller, account, amount) for the simple token
// writes that share one request shape.
func (s *Server) amountOperation(w http.ResponseWriter, r *http.Request, op func(from, account common.Address, amount *big.Int) error) {
	account, req, err := s.decodeAmountRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := op(caller(r), account, amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGrantMinter(w http.ResponseWriter, r *http.Request) {
	s.minterOperation(w, r, s.engine.GrantMinter)
}

func (s *Server) handleRevokeMinter(w http.ResponseWriter, r *http.Request) {
	s.minterOperation(w, r, s.engine.RevokeMinter)
}

func (s *Server) minterOperation(w http.ResponseWriter, r *http.Request, op func(caller, account common.Address) error) {
	account, err := s.pathAddress(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := op(caller(r), account); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
