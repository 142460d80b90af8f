package vault

import (
	"cosmossdk.io/math"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/types"
)

// Strategy is what the vault needs from a strategy it allocates to.
// The strategy side of the contract (Report, DebtOutstanding, ...) lives on *Vault itself.
type Strategy interface {
	Address() chain.Address
	VaultAddress() chain.Address
	Want() types.Asset

	// EstimatedTotalAssets is the strategy's own valuation of its holdings, in want.
	EstimatedTotalAssets() math.Int

	// Withdraw sends up to amount of want to the vault and returns the loss realized.
	Withdraw(caller chain.Address, amount math.Int) (math.Int, error)

	// Migrate moves every position to successor. Only the vault or governance may call it.
	Migrate(caller chain.Address, successor types.StrategyHandle) error
}
