package simulations

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/rs/zerolog"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/logger"
	"github.com/elys-network/imbtc-strategy/internal/types"
	"github.com/elys-network/imbtc-strategy/internal/utils"
)

// Minter mints a basket asset 1:1 against a bAsset and redeems it back, charging fees.
// bAsset deposits stay in the minter account and back redemptions.
type Minter struct {
	logger       zerolog.Logger
	address      chain.Address
	ledger       *chain.Ledger
	basset       types.Asset
	masset       types.Asset
	mintFeeBps   uint64
	redeemFeeBps uint64
}

func NewMinter(address chain.Address, ledger *chain.Ledger, basset, masset types.Asset, mintFeeBps, redeemFeeBps uint64) (*Minter, error) {
	if mintFeeBps >= types.MaxBasisPoints || redeemFeeBps >= types.MaxBasisPoints {
		return nil, fmt.Errorf("minter fees must be below %d bps", types.MaxBasisPoints)
	}
	return &Minter{
		logger:       logger.GetForComponent("simulation").With().Str("venue", "minter").Logger(),
		address:      address,
		ledger:       ledger,
		basset:       basset,
		masset:       masset,
		mintFeeBps:   mintFeeBps,
		redeemFeeBps: redeemFeeBps,
	}, nil
}

func (m *Minter) Address() chain.Address { return m.address }

// Quote returns the output at par, before fees.
func (m *Minter) Quote(in sdk.Coin, outDenom string) (math.Int, error) {
	switch {
	case in.Denom == m.basset.Denom && outDenom == m.masset.Denom:
		return utils.ScaleDecimals(in.Amount, m.basset.Decimals, m.masset.Decimals), nil
	case in.Denom == m.masset.Denom && outDenom == m.basset.Denom:
		return utils.ScaleDecimals(in.Amount, m.masset.Decimals, m.basset.Decimals), nil
	default:
		return math.ZeroInt(), fmt.Errorf("%w: %s to %s", ErrUnknownDenom, in.Denom, outDenom)
	}
}

// Swap mints when in is the bAsset and redeems when in is the mAsset.
func (m *Minter) Swap(trader chain.Address, in sdk.Coin, outDenom string, minOut math.Int) (sdk.Coin, error) {
	par, err := m.Quote(in, outDenom)
	if err != nil {
		return sdk.Coin{}, err
	}
	minting := in.Denom == m.basset.Denom
	fee := m.redeemFeeBps
	if minting {
		fee = m.mintFeeBps
	}
	out := utils.ApplyBps(par, types.MaxBasisPoints-fee)
	if !out.IsPositive() {
		return sdk.Coin{}, fmt.Errorf("%w: %s", ErrZeroOutput, in)
	}
	if !minOut.IsNil() && out.LT(minOut) {
		return sdk.Coin{}, fmt.Errorf("%w: %s%s out, %s required", types.ErrMinimumNotMet, out, outDenom, minOut)
	}

	outCoin := sdk.NewCoin(outDenom, out)
	if minting {
		if err := m.ledger.Transfer(trader, m.address, in); err != nil {
			return sdk.Coin{}, err
		}
		if err := m.ledger.Mint(trader, outCoin); err != nil {
			return sdk.Coin{}, err
		}
	} else {
		if reserve := m.ledger.BalanceOf(m.address, outDenom); reserve.LT(out) {
			return sdk.Coin{}, fmt.Errorf("%w: reserve %s%s, redeeming %s", ErrInsufficientFunds, reserve, outDenom, outCoin)
		}
		if err := m.ledger.Burn(trader, in); err != nil {
			return sdk.Coin{}, err
		}
		if err := m.ledger.Transfer(m.address, trader, outCoin); err != nil {
			return sdk.Coin{}, err
		}
	}

	m.logger.Debug().
		Str("trader", string(trader)).
		Str("in", in.String()).
		Str("out", outCoin.String()).
		Bool("mint", minting).
		Msg("Minter swap executed")
	return outCoin, nil
}
