package token

import "errors"

var (
	ErrInvalidAmount         = errors.New("token: amount must be positive")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrNotMinter             = errors.New("token: caller lacks mint capability")
	ErrNotAdmin              = errors.New("token: caller is not the admin")
	ErrZeroAddress           = errors.New("token: zero address")
	errNilState              = errors.New("token: state not configured")
)
