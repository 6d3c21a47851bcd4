package reward

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"casechain/core/events"
)

const (
	skipAlreadyRegistered = "already registered"
	skipAlreadyReferred   = "already referred"
	skipSelfReferral      = "self referral"
	skipCycle             = "referrer descends from referred"
)

// ReferrerOf returns the recorded referrer of addr or the zero address.
func (e *Engine) ReferrerOf(addr common.Address) (common.Address, error) {
	if err := e.ready(); err != nil {
		return common.Address{}, err
	}
	return e.state.RewardReferrer(addr)
}

// Registered reports whether addr has staked at least once.
func (e *Engine) Registered(addr common.Address) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.state.RewardRegistered(addr)
}

// CanRefer reports whether referrer may be recorded for referred: referred
// has no edge yet and the edge would not close a loop. The zero referrer
// means "no referrer" and is always permitted. Refer additionally ignores
// referrers offered after the first stake.
func (e *Engine) CanRefer(referred, referrer common.Address) (bool, error) {
	reason, err := e.referralBlocker(referred, referrer)
	if err != nil {
		return false, err
	}
	return reason == "", nil
}

func (e *Engine) referralBlocker(referred, referrer common.Address) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	zero := common.Address{}
	if referred == zero {
		return "zero address", nil
	}
	if referrer == zero {
		return "", nil
	}
	if referred == referrer {
		return skipSelfReferral, nil
	}
	existing, err := e.state.RewardReferrer(referred)
	if err != nil {
		return "", err
	}
	if existing != zero {
		return skipAlreadyReferred, nil
	}
	limit, err := e.walkLimit()
	if err != nil {
		return "", err
	}
	// Walk referrer's chain; finding referred there would close a cycle.
	current := referrer
	for i := uint64(0); i < limit; i++ {
		next, err := e.state.RewardReferrer(current)
		if err != nil {
			return "", err
		}
		if next == zero {
			return "", nil
		}
		if next == referred {
			return skipCycle, nil
		}
		current = next
	}
	return "", nil
}

// walkLimit bounds a full ancestor walk. Every edge belongs to a registered
// user, so no acyclic chain is longer than the user count.
func (e *Engine) walkLimit() (uint64, error) {
	count, err := e.state.RewardUserCount()
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}

// Refer registers referred on its first stake and records referrer when
// eligible. An ineligible referrer is ignored; the call still succeeds.
func (e *Engine) Refer(caller, referred, referrer common.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.authorize(caller); err != nil {
		return err
	}
	if referred == (common.Address{}) {
		return ErrZeroAddress
	}
	registered, err := e.state.RewardRegistered(referred)
	if err != nil {
		return err
	}
	if registered {
		if referrer != (common.Address{}) {
			e.emit(events.ReferralSkipped{Referred: referred, Referrer: referrer, Reason: skipAlreadyRegistered})
		}
		return nil
	}
	reason, err := e.referralBlocker(referred, referrer)
	if err != nil {
		return err
	}
	if err := e.state.RegisterRewardUser(referred); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if referrer == (common.Address{}) {
		e.emit(events.ReferralRegistered{Referred: referred})
		return nil
	}
	if reason != "" {
		e.emit(events.ReferralSkipped{Referred: referred, Referrer: referrer, Reason: reason})
		e.emit(events.ReferralRegistered{Referred: referred})
		return nil
	}
	if err := e.state.SetRewardReferrer(referred, referrer); err != nil {
		return fmt.Errorf("record referrer: %w", err)
	}
	e.emit(events.ReferralRegistered{Referred: referred, Referrer: referrer})
	return nil
}

// Referrals returns the direct downline of addr in registration order.
func (e *Engine) Referrals(addr common.Address) ([]common.Address, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.RewardReferrals(addr)
}

// Ancestors walks the referrer chain of addr, nearest first, returning at
// most limit entries.
func (e *Engine) Ancestors(addr common.Address, limit int) ([]common.Address, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	out := make([]common.Address, 0, limit)
	current := addr
	for len(out) < limit {
		next, err := e.state.RewardReferrer(current)
		if err != nil {
			return nil, err
		}
		if next == (common.Address{}) {
			break
		}
		out = append(out, next)
		current = next
	}
	return out, nil
}

// Users returns every registered participant in registration order.
func (e *Engine) Users() ([]common.Address, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	count, err := e.state.RewardUserCount()
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, 0, count)
	for i := uint64(0); i < count; i++ {
		addr, err := e.state.RewardUserAt(i)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
