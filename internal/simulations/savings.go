package simulations

import (
	"fmt"
	"time"

	"cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/logger"
	"github.com/elys-network/imbtc-strategy/internal/types"
)

const secondsPerYear = 365 * 24 * 60 * 60

// InitialExchangeRate is the underlying one credit redeems for at launch.
var InitialExchangeRate = math.LegacyNewDecWithPrec(1, 1)

type savingsState struct {
	exchangeRate math.LegacyDec
	apr          math.LegacyDec
	lastAccrual  time.Time
}

// Savings issues interest-bearing credits against the underlying. The exchange rate grows at a
// simple APR with block time; interest is minted into the savings account so credits stay backed.
type Savings struct {
	logger     zerolog.Logger
	address    chain.Address
	ledger     *chain.Ledger
	clock      *chain.Clock
	underlying types.Asset
	credit     types.Asset

	state savingsState
}

func NewSavings(address chain.Address, c *chain.Chain, underlying, credit types.Asset, apr math.LegacyDec) (*Savings, error) {
	if apr.IsNil() || apr.IsNegative() {
		return nil, fmt.Errorf("savings apr must be non-negative")
	}
	return &Savings{
		logger:     logger.GetForComponent("simulation").With().Str("venue", "savings").Logger(),
		address:    address,
		ledger:     c.Ledger(),
		clock:      c.Clock(),
		underlying: underlying,
		credit:     credit,
		state: savingsState{
			exchangeRate: InitialExchangeRate,
			apr:          apr,
			lastAccrual:  c.Now(),
		},
	}, nil
}

func (s *Savings) Address() chain.Address { return s.address }
func (s *Savings) UnderlyingToken() string { return s.underlying.Denom }
func (s *Savings) CreditToken() string { return s.credit.Denom }

// Snapshot implements chain.Stateful.
func (s *Savings) Snapshot() any { return s.state }

// Restore implements chain.Stateful.
func (s *Savings) Restore(snapshot any) { s.state = snapshot.(savingsState) }

// ExchangeRate returns the rate as of the current block time.
func (s *Savings) ExchangeRate() math.LegacyDec {
	return s.rateAt(s.clock.Now())
}

func (s *Savings) rateAt(now time.Time) math.LegacyDec {
	elapsed := now.Sub(s.state.lastAccrual)
	if elapsed <= 0 || s.state.apr.IsZero() {
		return s.state.exchangeRate
	}
	growth := s.state.apr.MulInt64(int64(elapsed / time.Second)).QuoInt64(secondsPerYear)
	return s.state.exchangeRate.Mul(math.LegacyOneDec().Add(growth))
}

// SetAPR accrues at the old rate and switches to apr.
func (s *Savings) SetAPR(apr math.LegacyDec) error {
	if apr.IsNil() || apr.IsNegative() {
		return fmt.Errorf("savings apr must be non-negative")
	}
	if err := s.accrue(); err != nil {
		return err
	}
	s.state.apr = apr
	return nil
}

// accrue fixes the exchange rate at the current time and mints the interest owed to credit holders.
func (s *Savings) accrue() error {
	now := s.clock.Now()
	s.state.exchangeRate = s.rateAt(now)
	s.state.lastAccrual = now

	owed := s.state.exchangeRate.MulInt(s.ledger.Supply(s.credit.Denom)).Ceil().TruncateInt()
	held := s.ledger.BalanceOf(s.address, s.underlying.Denom)
	if owed.GT(held) {
		return s.ledger.Mint(s.address, s.underlying.Coin(owed.Sub(held)))
	}
	return nil
}

// Deposit takes underlying from owner and issues credits at the current rate, truncating.
func (s *Savings) Deposit(owner chain.Address, underlying math.Int) (math.Int, error) {
	if err := s.accrue(); err != nil {
		return math.ZeroInt(), err
	}
	credits := math.LegacyNewDecFromInt(underlying).Quo(s.state.exchangeRate).TruncateInt()
	if !credits.IsPositive() {
		return math.ZeroInt(), fmt.Errorf("%w: deposit of %s%s", ErrZeroOutput, underlying, s.underlying.Denom)
	}
	if err := s.ledger.Transfer(owner, s.address, s.underlying.Coin(underlying)); err != nil {
		return math.ZeroInt(), err
	}
	if err := s.ledger.Mint(owner, s.credit.Coin(credits)); err != nil {
		return math.ZeroInt(), err
	}
	s.logger.Debug().Str("owner", string(owner)).Str("underlying", underlying.String()).Str("credits", credits.String()).Msg("Savings deposit")
	return credits, nil
}

// Redeem burns credits from owner and pays out underlying at the current rate, truncating.
func (s *Savings) Redeem(owner chain.Address, credits math.Int) (math.Int, error) {
	if err := s.accrue(); err != nil {
		return math.ZeroInt(), err
	}
	underlying := s.state.exchangeRate.MulInt(credits).TruncateInt()
	if err := s.ledger.Burn(owner, s.credit.Coin(credits)); err != nil {
		return math.ZeroInt(), err
	}
	if err := s.ledger.Transfer(s.address, owner, s.underlying.Coin(underlying)); err != nil {
		return math.ZeroInt(), err
	}
	s.logger.Debug().Str("owner", string(owner)).Str("credits", credits.String()).Str("underlying", underlying.String()).Msg("Savings redemption")
	return underlying, nil
}
