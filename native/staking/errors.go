package staking

import "errors"

var (
	ErrInvalidAmount      = errors.New("staking: amount and duration must be positive")
	ErrSelfReferral       = errors.New("staking: cannot refer yourself")
	ErrNoSuchStake        = errors.New("staking: stake not found")
	ErrNotMatured         = errors.New("staking: stake has not matured")
	ErrAlreadyWithdrawn   = errors.New("staking: stake already withdrawn")
	ErrNotInitialized     = errors.New("staking: reward module not initialised")
	ErrAlreadyInitialized = errors.New("staking: reward module already initialised")
	ErrMintCapExceeded    = errors.New("staking: mint cap exceeded")
	errNilState           = errors.New("staking: state not configured")
	errNilToken           = errors.New("staking: token not configured")
)
