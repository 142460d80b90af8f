package main

import (
	"fmt"
	"time"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/elys-network/imbtc-strategy/internal/config"
	"github.com/elys-network/imbtc-strategy/internal/simulations"
)

var (
	triggersElapsed  time.Duration
	triggersDeposit  float64
	triggersCallCost string
)

// triggersCmd evaluates the keeper triggers for a fresh simulated position
var triggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "Evaluate the harvest and tend triggers for a simulated position",
	Long: `Deploys the in-process market, invests a deposit with one harvest, lets the given time
pass and prints what a keeper paying --call-cost would do.`,
	RunE: runTriggers,
}

func init() {
	triggersCmd.Flags().DurationVar(&triggersElapsed, "elapsed", 24*time.Hour, "simulated time since the investing harvest")
	triggersCmd.Flags().Float64Var(&triggersDeposit, "deposit", 100, "whole want tokens invested")
	triggersCmd.Flags().StringVar(&triggersCallCost, "call-cost", "0", "keeper call cost in want base units")
}

func runTriggers(cmd *cobra.Command, args []string) error {
	callCost, ok := math.NewIntFromString(triggersCallCost)
	if !ok || callCost.IsNegative() {
		return fmt.Errorf("--call-cost must be a non-negative integer, got %q", triggersCallCost)
	}

	d, err := newSimulation(config.DefaultStrategyParameters, triggersDeposit)
	if err != nil {
		return err
	}
	if _, err := d.Strategy.Harvest(simulations.Keeper); err != nil {
		return fmt.Errorf("initial harvest failed: %w", err)
	}
	if err := d.Step(triggersElapsed, int64(config.SimulationRewards)); err != nil {
		return err
	}

	status := d.Strategy.Status()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "block time:      %s\n", status.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(out, "total assets:    %s\n", status.EstimatedTotalAssets)
	fmt.Fprintf(out, "debt:            %s\n", status.Debt)
	fmt.Fprintf(out, "unclaimed:       %s\n", status.UnclaimedRewards)
	fmt.Fprintf(out, "harvest trigger: %t\n", d.Strategy.HarvestTrigger(callCost))
	fmt.Fprintf(out, "tend trigger:    %t\n", d.Strategy.TendTrigger(callCost))
	return nil
}
