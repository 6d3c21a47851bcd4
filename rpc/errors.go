package rpc

import (
	"errors"
	"net/http"

	"casechain/native/reward"
	"casechain/native/staking"
	"casechain/native/token"
)

// APIError is the error body returned by every endpoint.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error APIError `json:"error"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{staking.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{token.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{staking.ErrSelfReferral, http.StatusBadRequest, "self_referral"},
	{token.ErrZeroAddress, http.StatusBadRequest, "zero_address"},
	{reward.ErrZeroAddress, http.StatusBadRequest, "zero_address"},
	{token.ErrInsufficientBalance, http.StatusUnprocessableEntity, "insufficient_balance"},
	{token.ErrInsufficientAllowance, http.StatusUnprocessableEntity, "insufficient_allowance"},
	{staking.ErrNoSuchStake, http.StatusNotFound, "no_such_stake"},
	{staking.ErrNotMatured, http.StatusConflict, "not_matured"},
	{staking.ErrAlreadyWithdrawn, http.StatusConflict, "already_withdrawn"},
	{staking.ErrAlreadyInitialized, http.StatusConflict, "already_initialized"},
	{staking.ErrMintCapExceeded, http.StatusConflict, "mint_cap_exceeded"},
	{reward.ErrCareerValueInsufficient, http.StatusConflict, "career_value_insufficient"},
	{reward.ErrDownlineQualificationUnmet, http.StatusConflict, "downline_qualification_unmet"},
	{reward.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{token.ErrNotMinter, http.StatusForbidden, "not_minter"},
	{token.ErrNotAdmin, http.StatusForbidden, "not_admin"},
	{staking.ErrNotInitialized, http.StatusServiceUnavailable, "not_initialized"},
}

// classify maps an engine error onto an HTTP status and a stable code.
// Unknown errors are internal and their message is not exposed.
func classify(err error) (int, APIError) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, APIError{Code: m.code, Message: err.Error()}
		}
	}
	var bad badRequest
	if errors.As(err, &bad) {
		return http.StatusBadRequest, APIError{Code: "bad_request", Message: bad.Error()}
	}
	return http.StatusInternalServerError, APIError{Code: "internal", Message: "internal error"}
}

// badRequest marks request decoding failures.
type badRequest struct{ msg string }

func (b badRequest) Error() string { return b.msg }

func invalid(msg string) error { return badRequest{msg: msg} }
