package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/elys-network/imbtc-strategy/internal/config"
	"github.com/elys-network/imbtc-strategy/internal/keeper"
	"github.com/elys-network/imbtc-strategy/internal/simulations"
	"github.com/elys-network/imbtc-strategy/internal/utils"
)

var (
	simulateDays     int
	simulateStep     time.Duration
	simulateDeposit  float64
	simulateRewards  int64
	simulateCallCost uint64
)

// simulateCmd replays keeper cycles over simulated time without waiting on the wall clock
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay keeper cycles over simulated days and print the result",
	Long: `Deploys the in-process market, deposits into the vault and runs one keeper cycle per
simulated step for the requested number of days. Nothing is persisted.

Example:
  strategyd simulate --days 90 --step 12h --deposit 250`,
	RunE: runSimulation,
}

func init() {
	simulateCmd.Flags().IntVar(&simulateDays, "days", 30, "simulated days to run")
	simulateCmd.Flags().DurationVar(&simulateStep, "step", 6*time.Hour, "simulated time between keeper cycles")
	simulateCmd.Flags().Float64Var(&simulateDeposit, "deposit", 100, "whole want tokens deposited before the first cycle")
	simulateCmd.Flags().Int64Var(&simulateRewards, "rewards", 10_000, "whole reward tokens streamed per reward period")
	simulateCmd.Flags().Uint64Var(&simulateCallCost, "call-cost", 0, "keeper call cost in want base units")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	if simulateDays <= 0 || simulateStep <= 0 {
		return fmt.Errorf("--days and --step must be positive")
	}

	d, err := newSimulation(config.DefaultStrategyParameters, simulateDeposit)
	if err != nil {
		return err
	}
	k, err := keeper.NewKeeper(keeper.Config{
		Executor: d.Chain,
		Strategy: d.Strategy,
		Caller:   simulations.Keeper,
		CallCost: math.NewIntFromUint64(simulateCallCost),
		BeforeCycle: func() error {
			return d.Step(simulateStep, simulateRewards)
		},
	})
	if err != nil {
		return err
	}

	start := d.Chain.Now()
	end := start.Add(time.Duration(simulateDays) * 24 * time.Hour)
	outcomes := make(map[keeper.Outcome]int)
	profit, loss := math.ZeroInt(), math.ZeroInt()
	for d.Chain.Now().Before(end) {
		result := k.RunCycle(cmd.Context())
		outcomes[result.Outcome]++
		if result.Report != nil {
			profit = profit.Add(result.Report.Profit)
			loss = loss.Add(result.Report.Loss)
		}
	}

	status := d.Strategy.Status()
	want := d.Strategy.Want()
	pps := d.Vault.PricePerShare()
	elapsed := d.Chain.Now().Sub(start)
	apr := pps.Sub(math.LegacyOneDec()).MulInt64(int64(365 * 24 * time.Hour)).QuoInt64(int64(elapsed))

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "strategy\t%s\n", status.Name)
	fmt.Fprintf(w, "simulated\t%s (%s to %s)\n", elapsed, start.Format(time.DateOnly), d.Chain.Now().Format(time.DateOnly))
	fmt.Fprintf(w, "cycles\tharvested %d, tended %d, idle %d, failed %d\n",
		outcomes[keeper.OutcomeHarvested], outcomes[keeper.OutcomeTended], outcomes[keeper.OutcomeIdle], outcomes[keeper.OutcomeFailed])
	fmt.Fprintf(w, "reported profit\t%s %s\n", utils.FormatUnits(profit, want.Decimals), want.Symbol)
	fmt.Fprintf(w, "reported loss\t%s %s\n", utils.FormatUnits(loss, want.Decimals), want.Symbol)
	fmt.Fprintf(w, "total assets\t%s %s\n", utils.FormatUnits(status.EstimatedTotalAssets, want.Decimals), want.Symbol)
	fmt.Fprintf(w, "vault debt\t%s %s\n", utils.FormatUnits(status.Debt, want.Decimals), want.Symbol)
	fmt.Fprintf(w, "strategy holdings\t%s\n", d.Chain.Ledger().Balances(d.Strategy.Address()))
	fmt.Fprintf(w, "price per share\t%s\n", pps.String())
	fmt.Fprintf(w, "annualized return\t%s%%\n", apr.MulInt64(100).String())
	return w.Flush()
}
