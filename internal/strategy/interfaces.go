package strategy

import (
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/types"
)

// Environment runs calls atomically and tells the block time.
type Environment interface {
	// Atomic runs fn and rolls back every registered component if fn fails.
	Atomic(fn func() error) error
	Now() time.Time
}

// Ledger is the token ledger the strategy holds its balances on.
type Ledger interface {
	BalanceOf(addr chain.Address, denom string) math.Int
	Transfer(from, to chain.Address, coin sdk.Coin) error
}

// Vault is the pooled vault the strategy reports to. It owns debt ratios and share accounting.
type Vault interface {
	Address() chain.Address
	Want() types.Asset
	// ShareToken is the denom of the vault's share token.
	ShareToken() string
	Governance() chain.Address
	Management() chain.Address
	Guardian() chain.Address

	StrategyDebt(strategy chain.Address) math.Int
	StrategyDebtRatio(strategy chain.Address) uint64
	DebtOutstanding(strategy chain.Address) math.Int
	CreditAvailable(strategy chain.Address) math.Int
	LastReport(strategy chain.Address) time.Time

	// Report settles a harvest. The vault pulls profit and debt payment from, or sends credit to,
	// the strategy's want balance and returns what it still expects back.
	Report(strategy chain.Address, report types.Report) (types.ReportResult, error)
	// RevokeStrategy sets the calling strategy's debt ratio to zero.
	RevokeStrategy(strategy chain.Address) error
}

// StakingVenue is the reward-bearing staking contract for the derivative.
type StakingVenue interface {
	StakeToken() string
	PositionToken() string
	RewardToken() string

	Stake(owner chain.Address, amount math.Int) error
	Unstake(owner chain.Address, amount math.Int) error
	// ClaimRewards sends every owed reward to owner and returns the amount.
	ClaimRewards(owner chain.Address) (math.Int, error)

	UnclaimedRewards(owner chain.Address) math.Int
	StakedBalance(owner chain.Address) math.Int
	PeriodFinish() time.Time
	RewardRate() math.Int
}

// SavingsVenue turns the staking asset into the interest-bearing derivative and back.
type SavingsVenue interface {
	UnderlyingToken() string
	CreditToken() string
	// ExchangeRate is the amount of underlying one credit redeems for.
	ExchangeRate() math.LegacyDec
	Deposit(owner chain.Address, underlying math.Int) (math.Int, error)
	Redeem(owner chain.Address, credits math.Int) (math.Int, error)
}

// SwapVenue converts between two assets.
type SwapVenue interface {
	// Quote returns the output at the venue's reference price, before fees and price impact.
	Quote(in sdk.Coin, outDenom string) (math.Int, error)
	// Swap fails with a wrapped types.ErrMinimumNotMet when the output is below minOut.
	Swap(trader chain.Address, in sdk.Coin, outDenom string, minOut math.Int) (sdk.Coin, error)
}
