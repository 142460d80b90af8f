/*

This file contains the asset registry type shared by the strategy, the vault and the simulated venues.

*/

package types

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/elys-network/imbtc-strategy/internal/chain"
)

// MaxBasisPoints is 100% expressed in basis points.
const MaxBasisPoints uint64 = 10_000

// Asset describes a token known to the ledger.
type Asset struct {
	Symbol   string `json:"symbol"`   // e.g., "WBTC"
	Denom    string `json:"denom"`    // e.g., "wbtc"
	Decimals uint32 `json:"decimals"` // e.g., 8
}

// Coin wraps amount (in base units) into a coin of this asset.
func (a Asset) Coin(amount math.Int) sdk.Coin {
	return sdk.NewCoin(a.Denom, amount)
}

// One returns one whole token in base units.
func (a Asset) One() math.Int {
	return math.NewIntWithDecimal(1, int(a.Decimals))
}

// StrategyHandle identifies a strategy and the vault it is bound to.
type StrategyHandle interface {
	Address() chain.Address
	VaultAddress() chain.Address
}
