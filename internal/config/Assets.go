/*

This file contains the denom registry for the wBTC / mStable imBTC deployment.

The conversion chain is wbtc -> mbtc (basket mint) -> imbtc (savings credit) -> vimbtc (staked position),
with mta rewards sold back into wbtc.

*/

package config

import "github.com/elys-network/imbtc-strategy/internal/types"

var (
	// WantAsset is the asset users deposit into the vault.
	WantAsset = types.Asset{Symbol: "WBTC", Denom: "wbtc", Decimals: 8}
	// StakingAsset is the basket token minted 1:1 against want.
	StakingAsset = types.Asset{Symbol: "mBTC", Denom: "mbtc", Decimals: 18}
	// DerivativeAsset is the interest-bearing savings credit for the staking asset.
	DerivativeAsset = types.Asset{Symbol: "imBTC", Denom: "imbtc", Decimals: 18}
	// PositionAsset is the receipt for derivative staked in the rewards vault.
	PositionAsset = types.Asset{Symbol: "v-imBTC", Denom: "vimbtc", Decimals: 18}
	// RewardAsset is the token the rewards vault streams to stakers.
	RewardAsset = types.Asset{Symbol: "MTA", Denom: "mta", Decimals: 18}
	// VaultShareAsset is the vault's share token.
	VaultShareAsset = types.Asset{Symbol: "yvWBTC", Denom: "yvwbtc", Decimals: 8}
)

// DefaultAssets lists every asset by denom.
var DefaultAssets = map[string]types.Asset{
	WantAsset.Denom:       WantAsset,
	StakingAsset.Denom:    StakingAsset,
	DerivativeAsset.Denom: DerivativeAsset,
	PositionAsset.Denom:   PositionAsset,
	RewardAsset.Denom:     RewardAsset,
	VaultShareAsset.Denom: VaultShareAsset,
}
