package strategy

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/types"
	"github.com/elys-network/imbtc-strategy/internal/utils"
)

// Harvest action names recorded in types.HarvestReport.Actions.
const (
	ActionClaim            = "claim_rewards"
	ActionLiquidateRewards = "liquidate_rewards"
	ActionDeferRewards     = "defer_rewards"
	ActionDivest           = "divest"
	ActionExitPosition     = "exit_position"
	ActionReport           = "report"
	ActionInvest           = "invest"
)

// Keeper entry points, used to label metrics and logs.
const (
	ActionHarvest = "harvest"
	ActionTend    = "tend"
)

// Harvest realizes profit or loss, reports it to the vault and re-invests what the vault leaves.
// Under emergency exit it unwinds the whole position and returns everything to the vault.
func (s *Strategy) Harvest(caller chain.Address) (types.HarvestReport, error) {
	var report types.HarvestReport
	err := s.env.Atomic(func() error {
		if err := s.require(caller, harvesters, "harvest"); err != nil {
			return err
		}
		var err error
		report, err = s.harvest()
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Str("caller", string(caller)).Msg("Harvest failed, state rolled back")
		return types.HarvestReport{}, err
	}

	s.logger.Info().
		Str("harvestId", report.ID).
		Str("profit", report.Profit.String()).
		Str("loss", report.Loss.String()).
		Str("debtPayment", report.DebtPayment.String()).
		Str("debtOutstanding", report.DebtOutstanding.String()).
		Bool("rewardsDeferred", report.RewardsDeferred).
		Str("totalAssets", report.TotalAssetsAfter.String()).
		Msg("Harvest completed")
	return report, nil
}

func (s *Strategy) harvest() (types.HarvestReport, error) {
	report := types.NewHarvestReport(uuid.New().String(), string(s.address), s.env.Now())
	report.EmergencyExit = s.state.emergencyExit
	report.TotalAssetsBefore = s.EstimatedTotalAssets()

	if err := s.collectRewards(&report); err != nil {
		return report, err
	}

	debtOutstanding := s.vault.DebtOutstanding(s.address)

	var (
		msg types.Report
		err error
	)
	if s.state.emergencyExit {
		msg, err = s.prepareEmergencyReturn(debtOutstanding, &report)
	} else {
		msg, err = s.prepareReturn(debtOutstanding, &report)
	}
	if err != nil {
		return report, err
	}

	result, err := s.vault.Report(s.address, msg)
	if err != nil {
		return report, fmt.Errorf("vault rejected report: %w", err)
	}
	report.Actions = append(report.Actions, ActionReport)
	report.Profit = msg.Profit
	report.Loss = msg.Loss
	report.DebtPayment = msg.DebtPayment
	report.Credit = result.Credit
	report.DebtOutstanding = result.DebtOutstanding

	invested, divested, err := s.adjustPosition(result.DebtOutstanding)
	if err != nil {
		return report, err
	}
	if invested.IsPositive() {
		report.Actions = append(report.Actions, ActionInvest)
	}
	if divested.IsPositive() {
		report.Actions = append(report.Actions, ActionDivest)
	}
	report.Invested = invested
	report.Divested = report.Divested.Add(divested)
	report.TotalAssetsAfter = s.EstimatedTotalAssets()
	return report, nil
}

// collectRewards claims every owed reward and, when enabled, sells the reward balance for want.
// A failed sale is rolled back on its own and leaves the rewards for a later harvest.
func (s *Strategy) collectRewards(report *types.HarvestReport) error {
	claimed, err := s.staking.ClaimRewards(s.address)
	if err != nil {
		return fmt.Errorf("failed to claim rewards: %w", err)
	}
	report.RewardsClaimed = claimed
	if claimed.IsPositive() {
		report.Actions = append(report.Actions, ActionClaim)
	}

	if !s.state.params.LiquidateRewards {
		return nil
	}
	rewards := s.RewardBalance()
	if !rewards.IsPositive() {
		return nil
	}

	proceeds := math.ZeroInt()
	err = s.env.Atomic(func() error {
		out, err := s.rewardsToWant(rewards)
		if err != nil {
			return err
		}
		proceeds = out
		return nil
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("kind", KindOf(err).String()).
			Str("rewards", rewards.String()).
			Msg("Reward liquidation deferred")
		report.RewardsDeferred = true
		report.Actions = append(report.Actions, ActionDeferRewards)
		return nil
	}
	if proceeds.IsPositive() {
		report.RewardsLiquidated = rewards
		report.RewardsProceeds = proceeds
		report.Actions = append(report.Actions, ActionLiquidateRewards)
	}
	return nil
}

// prepareReturn computes profit or loss against the vault's recorded debt and frees enough want
// to pay the profit and the debt outstanding. When freeing want exhausts the position, profit and
// loss are taken again so conversion fees are written off in the same report.
func (s *Strategy) prepareReturn(debtOutstanding math.Int, report *types.HarvestReport) (types.Report, error) {
	msg := types.NewReport()
	profit, loss := s.UnrealizedPnL()

	toFree := profit.Add(debtOutstanding)
	before := s.WantBalance()
	if before.LT(toFree) {
		if _, _, err := s.liquidatePosition(toFree); err != nil {
			return msg, err
		}
		if freed := utils.SubFloor(s.WantBalance(), before); freed.IsPositive() {
			report.Divested = report.Divested.Add(freed)
			report.Actions = append(report.Actions, ActionDivest)
		}
		if s.positionValue().IsZero() {
			profit, loss = s.UnrealizedPnL()
		}
	}

	wantBal := s.WantBalance()
	if wantBal.LT(profit) {
		msg.Profit = wantBal
	} else {
		msg.Profit = profit
		msg.DebtPayment = utils.MinInt(wantBal.Sub(profit), debtOutstanding)
	}
	msg.Loss = loss
	return msg, nil
}

// prepareEmergencyReturn unwinds everything. What was freed beyond the debt outstanding is profit,
// any shortfall is loss, and the rest repays debt.
func (s *Strategy) prepareEmergencyReturn(debtOutstanding math.Int, report *types.HarvestReport) (types.Report, error) {
	msg := types.NewReport()
	before := s.WantBalance()

	freed, err := s.liquidateAllPositions()
	if err != nil {
		return msg, err
	}
	report.Divested = report.Divested.Add(utils.SubFloor(freed, before))
	report.Actions = append(report.Actions, ActionExitPosition)

	if freed.LT(debtOutstanding) {
		msg.Loss = debtOutstanding.Sub(freed)
	} else {
		msg.Profit = freed.Sub(debtOutstanding)
	}
	msg.DebtPayment = debtOutstanding.Sub(msg.Loss)
	return msg, nil
}

// Withdraw is called by the vault to pull amount of want. It returns the loss realized doing so.
func (s *Strategy) Withdraw(caller chain.Address, amount math.Int) (math.Int, error) {
	loss := math.ZeroInt()
	err := s.env.Atomic(func() error {
		if err := s.require(caller, RoleVault, "withdraw"); err != nil {
			return err
		}
		if amount.IsNil() || amount.IsNegative() {
			return errInvalidConfigf("withdraw amount must be non-negative")
		}
		liquidated, realizedLoss, err := s.liquidatePosition(amount)
		if err != nil {
			return err
		}
		if err := s.ledger.Transfer(s.address, s.vault.Address(), s.want.Coin(liquidated)); err != nil {
			return fmt.Errorf("failed to return want to vault: %w", err)
		}
		loss = realizedLoss
		return nil
	})
	if err != nil {
		return math.ZeroInt(), err
	}

	s.logger.Info().
		Str("amount", amount.String()).
		Str("loss", loss.String()).
		Msg("Withdrawal for vault completed")
	return loss, nil
}
