package reward

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"casechain/core/events"
)

// PayCommission fans the interest of a new stake out to the staker's own
// referred bonus and up to MaxLevels ancestors. A short chain pays fewer
// levels.
func (e *Engine) PayCommission(caller, staker common.Address, interest *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.authorize(caller); err != nil {
		return err
	}
	if interest == nil || interest.Sign() <= 0 {
		return nil
	}
	referrer, err := e.state.RewardReferrer(staker)
	if err != nil {
		return err
	}
	if referrer == (common.Address{}) {
		return nil
	}
	if err := e.credit(staker, staker, 0, applyRate(interest, e.params.ReferredBonusRate)); err != nil {
		return fmt.Errorf("referred bonus: %w", err)
	}
	ancestors, err := e.Ancestors(staker, MaxLevels)
	if err != nil {
		return err
	}
	for i, ancestor := range ancestors {
		level := uint64(i + 1)
		if err := e.credit(ancestor, staker, level, applyRate(interest, e.params.LevelRates[i])); err != nil {
			return fmt.Errorf("level %d: %w", level, err)
		}
	}
	return nil
}

func (e *Engine) credit(recipient, staker common.Address, level uint64, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	ok, err := e.mint(recipient, amount, "commission")
	if err != nil || !ok {
		return err
	}
	cv, err := e.state.RewardCareerValue(recipient)
	if err != nil {
		return err
	}
	cv = new(big.Int).Add(cv, amount)
	if err := e.state.SetRewardCareerValue(recipient, cv); err != nil {
		return err
	}
	e.emit(events.CommissionPaid{
		Recipient:   recipient,
		Staker:      staker,
		Level:       level,
		Amount:      amount,
		CareerValue: cv,
	})
	e.logger.Debug("commission paid",
		slog.String("recipient", recipient.Hex()),
		slog.Uint64("level", level),
		slog.String("amount", amount.String()))
	return nil
}
