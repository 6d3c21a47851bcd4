package reward

import "errors"

var (
	ErrUnauthorized               = errors.New("reward: caller not authorised")
	ErrCareerValueInsufficient    = errors.New("reward: career value insufficient for next rank")
	ErrDownlineQualificationUnmet = errors.New("reward: downline qualification unmet")
	ErrZeroAddress                = errors.New("reward: zero address")
	errNilState                   = errors.New("reward: state not configured")
	errNilToken                   = errors.New("reward: token not configured")
)
