/*

This file contains the messages exchanged between the strategy and its vault, and the record of each harvest.

*/

package types

import (
	"time"

	"cosmossdk.io/math"
)

// Report is sent by a strategy to its vault at the end of every harvest.
type Report struct {
	Profit      math.Int `json:"profit"`
	Loss        math.Int `json:"loss"`
	DebtPayment math.Int `json:"debt_payment"`
}

// NewReport returns a report with every amount set to zero.
func NewReport() Report {
	return Report{Profit: math.ZeroInt(), Loss: math.ZeroInt(), DebtPayment: math.ZeroInt()}
}

// ReportResult is the vault's answer to a Report.
type ReportResult struct {
	Credit          math.Int `json:"credit"`           // Want sent to the strategy during settlement.
	DebtOutstanding math.Int `json:"debt_outstanding"` // Want the vault still expects back.
}

// HarvestReport records one complete harvest.
type HarvestReport struct {
	ID              string    `json:"id"`
	Strategy        string    `json:"strategy"`
	Timestamp       time.Time `json:"timestamp"`
	EmergencyExit   bool      `json:"emergency_exit"`
	Profit          math.Int  `json:"profit"`
	Loss            math.Int  `json:"loss"`
	DebtPayment     math.Int  `json:"debt_payment"`
	DebtOutstanding math.Int  `json:"debt_outstanding"`
	Credit          math.Int  `json:"credit"`

	RewardsClaimed    math.Int `json:"rewards_claimed"`
	RewardsLiquidated math.Int `json:"rewards_liquidated"`
	RewardsDeferred   bool     `json:"rewards_deferred"`
	RewardsProceeds   math.Int `json:"rewards_proceeds"` // Want received for the liquidated rewards.

	TotalAssetsBefore math.Int `json:"total_assets_before"`
	TotalAssetsAfter  math.Int `json:"total_assets_after"`
	Invested          math.Int `json:"invested"`
	Divested          math.Int `json:"divested"`

	// Actions lists the steps taken, in order (e.g., "claim", "liquidate_rewards", "report", "invest").
	Actions []string `json:"actions"`
}

// NewHarvestReport returns a report with all amounts zeroed.
func NewHarvestReport(id, strategy string, at time.Time) HarvestReport {
	return HarvestReport{
		ID:                id,
		Strategy:          strategy,
		Timestamp:         at,
		Profit:            math.ZeroInt(),
		Loss:              math.ZeroInt(),
		DebtPayment:       math.ZeroInt(),
		DebtOutstanding:   math.ZeroInt(),
		Credit:            math.ZeroInt(),
		RewardsClaimed:    math.ZeroInt(),
		RewardsLiquidated: math.ZeroInt(),
		RewardsProceeds:   math.ZeroInt(),
		TotalAssetsBefore: math.ZeroInt(),
		TotalAssetsAfter:  math.ZeroInt(),
		Invested:          math.ZeroInt(),
		Divested:          math.ZeroInt(),
		Actions:           make([]string, 0),
	}
}

// ReportSummary aggregates stored harvest reports.
type ReportSummary struct {
	TotalHarvests     int        `json:"total_harvests"`
	TotalProfit       math.Int   `json:"total_profit"`
	TotalLoss         math.Int   `json:"total_loss"`
	TotalDebtPayment  math.Int   `json:"total_debt_payment"`
	DeferredHarvests  int        `json:"deferred_harvests"`
	EmergencyHarvests int        `json:"emergency_harvests"`
	LastHarvestAt     *time.Time `json:"last_harvest_at,omitempty"`
	LatestTotalAssets math.Int   `json:"latest_total_assets"`
}
