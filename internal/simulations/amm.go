package simulations

import (
	"errors"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/rs/zerolog"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/logger"
	"github.com/elys-network/imbtc-strategy/internal/types"
	"github.com/elys-network/imbtc-strategy/internal/utils"
)

var (
	ErrUnknownDenom      = errors.New("denom not supported by venue")
	ErrEmptyReserves     = errors.New("pool has no liquidity")
	ErrZeroOutput        = types.ErrZeroOutput
	ErrInsufficientFunds = errors.New("venue cannot cover output")
)

// SwapEstimationResult is the outcome of a simulated swap.
type SwapEstimationResult struct {
	TokenOutAmount math.Int
	SpotAmount     math.Int // Output at the spot price, before fee and price impact.
	Slippage       float64  // 1 - TokenOutAmount / SpotAmount.
}

// Pool is a two-asset constant-product market. Its reserves are the pool account's ledger balances.
type Pool struct {
	logger  zerolog.Logger
	address chain.Address
	ledger  *chain.Ledger
	tokenA  types.Asset
	tokenB  types.Asset
	feeBps  uint64
}

func NewPool(address chain.Address, ledger *chain.Ledger, tokenA, tokenB types.Asset, feeBps uint64) (*Pool, error) {
	if feeBps >= types.MaxBasisPoints {
		return nil, fmt.Errorf("pool fee %d must be below %d bps", feeBps, types.MaxBasisPoints)
	}
	if tokenA.Denom == tokenB.Denom {
		return nil, fmt.Errorf("pool assets must differ")
	}
	return &Pool{
		logger:  logger.GetForComponent("simulation").With().Str("venue", "amm").Logger(),
		address: address,
		ledger:  ledger,
		tokenA:  tokenA,
		tokenB:  tokenB,
		feeBps:  feeBps,
	}, nil
}

func (p *Pool) Address() chain.Address { return p.address }

// Reserves returns the pool balances of its two assets.
func (p *Pool) Reserves() (math.Int, math.Int) {
	return p.ledger.BalanceOf(p.address, p.tokenA.Denom), p.ledger.BalanceOf(p.address, p.tokenB.Denom)
}

// AddLiquidity moves both amounts from provider into the pool.
func (p *Pool) AddLiquidity(provider chain.Address, amountA, amountB math.Int) error {
	if err := p.ledger.Transfer(provider, p.address, p.tokenA.Coin(amountA)); err != nil {
		return err
	}
	return p.ledger.Transfer(provider, p.address, p.tokenB.Coin(amountB))
}

func (p *Pool) reserves(inDenom, outDenom string) (math.Int, math.Int, error) {
	supported := func(d string) bool { return d == p.tokenA.Denom || d == p.tokenB.Denom }
	if inDenom == outDenom || !supported(inDenom) || !supported(outDenom) {
		return math.Int{}, math.Int{}, fmt.Errorf("%w: %s to %s", ErrUnknownDenom, inDenom, outDenom)
	}
	reserveIn := p.ledger.BalanceOf(p.address, inDenom)
	reserveOut := p.ledger.BalanceOf(p.address, outDenom)
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return math.Int{}, math.Int{}, ErrEmptyReserves
	}
	return reserveIn, reserveOut, nil
}

// spotPrice returns the amount of quote one base unit buys, before fees.
func (p *Pool) spotPrice(base, quote string) (math.LegacyDec, error) {
	reserveIn, reserveOut, err := p.reserves(base, quote)
	if err != nil {
		return math.LegacyDec{}, err
	}
	return math.LegacyNewDecFromInt(reserveOut).QuoInt(reserveIn), nil
}

// Quote returns the output at the spot price.
func (p *Pool) Quote(in sdk.Coin, outDenom string) (math.Int, error) {
	reserveIn, reserveOut, err := p.reserves(in.Denom, outDenom)
	if err != nil {
		return math.ZeroInt(), err
	}
	return in.Amount.Mul(reserveOut).Quo(reserveIn), nil
}

// EstimateSwap returns the output of a swap including fee and price impact.
func (p *Pool) EstimateSwap(in sdk.Coin, outDenom string) (SwapEstimationResult, error) {
	reserveIn, reserveOut, err := p.reserves(in.Denom, outDenom)
	if err != nil {
		return SwapEstimationResult{}, err
	}
	spot := in.Amount.Mul(reserveOut).Quo(reserveIn)
	inAfterFee := utils.ApplyBps(in.Amount, types.MaxBasisPoints-p.feeBps)
	out := inAfterFee.Mul(reserveOut).Quo(reserveIn.Add(inAfterFee))

	slippage := 0.0
	if spot.IsPositive() {
		ratio, err := math.LegacyOneDec().Sub(math.LegacyNewDecFromInt(out).QuoInt(spot)).Float64()
		if err == nil {
			slippage = ratio
		}
	}
	return SwapEstimationResult{TokenOutAmount: out, SpotAmount: spot, Slippage: slippage}, nil
}

// Swap sells in for outDenom. It fails with types.ErrMinimumNotMet when output is below minOut.
func (p *Pool) Swap(trader chain.Address, in sdk.Coin, outDenom string, minOut math.Int) (sdk.Coin, error) {
	estimate, err := p.EstimateSwap(in, outDenom)
	if err != nil {
		return sdk.Coin{}, err
	}
	if !estimate.TokenOutAmount.IsPositive() {
		return sdk.Coin{}, fmt.Errorf("%w: %s", ErrZeroOutput, in)
	}
	if !minOut.IsNil() && estimate.TokenOutAmount.LT(minOut) {
		return sdk.Coin{}, fmt.Errorf("%w: %s%s out, %s required", types.ErrMinimumNotMet, estimate.TokenOutAmount, outDenom, minOut)
	}

	out := sdk.NewCoin(outDenom, estimate.TokenOutAmount)
	if err := p.ledger.Transfer(trader, p.address, in); err != nil {
		return sdk.Coin{}, err
	}
	if err := p.ledger.Transfer(p.address, trader, out); err != nil {
		return sdk.Coin{}, err
	}

	p.logger.Debug().
		Str("trader", string(trader)).
		Str("in", in.String()).
		Str("out", out.String()).
		Float64("slippage", estimate.Slippage).
		Msg("Swap executed")
	return out, nil
}
