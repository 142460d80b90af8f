package strategy

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/elys-network/imbtc-strategy/internal/types"
	"github.com/elys-network/imbtc-strategy/internal/utils"
)

// StakingAssetPeg is the want value of one staking-asset unit used for valuation.
// The staking asset is a basket token minted 1:1 against want, so positions are valued at par
// rather than at a market price.
var StakingAssetPeg = math.LegacyOneDec()

// MinimumOutput returns expected * (10_000 - toleranceBps) / 10_000, truncated.
func MinimumOutput(expected math.Int, toleranceBps uint64) (math.Int, error) {
	if toleranceBps > types.MaxBasisPoints {
		return math.ZeroInt(), errInvalidConfigf("tolerance %d exceeds %d bps", toleranceBps, types.MaxBasisPoints)
	}
	return utils.MinusBps(expected, toleranceBps)
}

// stakingToWant values an amount of staking asset in want at the peg, truncating.
func (s *Strategy) stakingToWant(amount math.Int) math.Int {
	if !amount.IsPositive() {
		return math.ZeroInt()
	}
	pegged := StakingAssetPeg.MulInt(amount).TruncateInt()
	return utils.ScaleDecimals(pegged, s.stakingAsset.Decimals, s.want.Decimals)
}

// wantToStaking is the staking-asset amount worth amount of want at the peg, rounded up.
func (s *Strategy) wantToStaking(amount math.Int) math.Int {
	if !amount.IsPositive() {
		return math.ZeroInt()
	}
	scaled := utils.ScaleDecimals(amount, s.want.Decimals, s.stakingAsset.Decimals)
	return math.LegacyNewDecFromInt(scaled).Quo(StakingAssetPeg).Ceil().TruncateInt()
}

// creditsToStaking values derivative credits in staking asset at the current exchange rate.
func (s *Strategy) creditsToStaking(credits math.Int) math.Int {
	if !credits.IsPositive() {
		return math.ZeroInt()
	}
	rate := s.savings.ExchangeRate()
	if rate.IsNil() || !rate.IsPositive() {
		return math.ZeroInt()
	}
	return rate.MulInt(credits).TruncateInt()
}

// stakingToCredits is the number of credits redeeming for at least amount of staking asset.
func (s *Strategy) stakingToCredits(amount math.Int) math.Int {
	if !amount.IsPositive() {
		return math.ZeroInt()
	}
	rate := s.savings.ExchangeRate()
	if rate.IsNil() || !rate.IsPositive() {
		return math.ZeroInt()
	}
	return math.LegacyNewDecFromInt(amount).Quo(rate).Ceil().TruncateInt()
}

// convert swaps in on venue, requiring at least the quote less toleranceBps unless enforce is false.
// A dust input that would pay out nothing, before or after venue fees, is left unconverted.
func (s *Strategy) convert(venue SwapVenue, in sdk.Coin, outDenom string, toleranceBps uint64, enforce bool) (sdk.Coin, error) {
	if !in.Amount.IsPositive() {
		return sdk.NewCoin(outDenom, math.ZeroInt()), nil
	}
	expected, err := venue.Quote(in, outDenom)
	if err != nil {
		return sdk.Coin{}, err
	}
	if !expected.IsPositive() {
		s.logger.Debug().Str("in", in.String()).Str("out", outDenom).Msg("Skipping dust conversion")
		return sdk.NewCoin(outDenom, math.ZeroInt()), nil
	}

	minOut := math.ZeroInt()
	if enforce {
		minOut, err = MinimumOutput(expected, toleranceBps)
		if err != nil {
			return sdk.Coin{}, err
		}
	}

	out, err := venue.Swap(s.address, in, outDenom, minOut)
	if err != nil {
		if errors.Is(err, types.ErrZeroOutput) {
			s.logger.Debug().Str("in", in.String()).Str("out", outDenom).Msg("Skipping dust conversion after fees")
			return sdk.NewCoin(outDenom, math.ZeroInt()), nil
		}
		if errors.Is(err, types.ErrMinimumNotMet) {
			return sdk.Coin{}, errorsmod.Wrapf(ErrSlippage, "%s to %s: expected %s, minimum %s: %s", in, outDenom, expected, minOut, err)
		}
		return sdk.Coin{}, err
	}

	s.logger.Debug().
		Str("in", in.String()).
		Str("out", out.String()).
		Str("expected", expected.String()).
		Str("minOut", minOut.String()).
		Msg("Converted asset")
	return out, nil
}

// wantToStakingAsset converts want into the staking asset under the want-to-stake tolerance.
func (s *Strategy) wantToStakingAsset(amount math.Int) (math.Int, error) {
	out, err := s.convert(s.minter, s.want.Coin(amount), s.stakingAsset.Denom, s.state.params.SlippageWantToStake, true)
	if err != nil {
		return math.ZeroInt(), err
	}
	return out.Amount, nil
}

// stakingAssetToWant converts the staking asset back into want under the same tolerance.
func (s *Strategy) stakingAssetToWant(amount math.Int) (math.Int, error) {
	out, err := s.convert(s.minter, s.stakingAsset.Coin(amount), s.want.Denom, s.state.params.SlippageWantToStake, true)
	if err != nil {
		return math.ZeroInt(), err
	}
	return out.Amount, nil
}

// rewardsToWant sells amount of reward for want.
func (s *Strategy) rewardsToWant(amount math.Int) (math.Int, error) {
	params := s.state.params
	out, err := s.convert(s.router, s.reward.Coin(amount), s.want.Denom, params.SlippageRewardToWant, params.CheckSlippageRewardToWant)
	if err != nil {
		return math.ZeroInt(), err
	}
	return out.Amount, nil
}
