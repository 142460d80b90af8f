package chain

import (
	"errors"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidCoin         = errors.New("invalid coin")
	ErrInvalidAddress      = errors.New("invalid address")
)

// Ledger holds every account balance and the total supply per denom.
type Ledger struct {
	balances map[Address]map[string]math.Int
	supply   map[string]math.Int
}

type ledgerSnapshot struct {
	balances map[Address]map[string]math.Int
	supply   map[string]math.Int
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[Address]map[string]math.Int),
		supply:   make(map[string]math.Int),
	}
}

func validateCoin(coin sdk.Coin) error {
	if coin.Amount.IsNil() {
		return fmt.Errorf("%w: nil amount for %s", ErrInvalidCoin, coin.Denom)
	}
	if err := coin.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCoin, err)
	}
	return nil
}

// BalanceOf returns the balance of denom held by addr, zero when absent.
func (l *Ledger) BalanceOf(addr Address, denom string) math.Int {
	if accounts, ok := l.balances[addr]; ok {
		if amount, ok := accounts[denom]; ok {
			return amount
		}
	}
	return math.ZeroInt()
}

// Balances returns every non-zero balance of addr.
func (l *Ledger) Balances(addr Address) sdk.Coins {
	coins := sdk.NewCoins()
	for denom, amount := range l.balances[addr] {
		if amount.IsPositive() {
			coins = coins.Add(sdk.NewCoin(denom, amount))
		}
	}
	return coins
}

// Supply returns the total minted minus burned amount of denom.
func (l *Ledger) Supply(denom string) math.Int {
	if amount, ok := l.supply[denom]; ok {
		return amount
	}
	return math.ZeroInt()
}

func (l *Ledger) set(addr Address, denom string, amount math.Int) {
	accounts, ok := l.balances[addr]
	if !ok {
		accounts = make(map[string]math.Int)
		l.balances[addr] = accounts
	}
	if amount.IsZero() {
		delete(accounts, denom)
		return
	}
	accounts[denom] = amount
}

// Mint creates coin out of nothing and credits it to addr.
func (l *Ledger) Mint(to Address, coin sdk.Coin) error {
	if to == "" {
		return ErrInvalidAddress
	}
	if err := validateCoin(coin); err != nil {
		return err
	}
	if coin.IsZero() {
		return nil
	}
	l.set(to, coin.Denom, l.BalanceOf(to, coin.Denom).Add(coin.Amount))
	l.supply[coin.Denom] = l.Supply(coin.Denom).Add(coin.Amount)
	return nil
}

// Burn destroys coin held by addr.
func (l *Ledger) Burn(from Address, coin sdk.Coin) error {
	if err := validateCoin(coin); err != nil {
		return err
	}
	if coin.IsZero() {
		return nil
	}
	balance := l.BalanceOf(from, coin.Denom)
	if balance.LT(coin.Amount) {
		return fmt.Errorf("%w: %s has %s%s, burning %s", ErrInsufficientBalance, from, balance, coin.Denom, coin)
	}
	l.set(from, coin.Denom, balance.Sub(coin.Amount))
	l.supply[coin.Denom] = l.Supply(coin.Denom).Sub(coin.Amount)
	return nil
}

// Transfer moves coin from one account to another. Zero amounts are a no-op.
func (l *Ledger) Transfer(from, to Address, coin sdk.Coin) error {
	if to == "" {
		return ErrInvalidAddress
	}
	if err := validateCoin(coin); err != nil {
		return err
	}
	if coin.IsZero() || from == to {
		return nil
	}
	balance := l.BalanceOf(from, coin.Denom)
	if balance.LT(coin.Amount) {
		return fmt.Errorf("%w: %s has %s%s, sending %s", ErrInsufficientBalance, from, balance, coin.Denom, coin)
	}
	l.set(from, coin.Denom, balance.Sub(coin.Amount))
	l.set(to, coin.Denom, l.BalanceOf(to, coin.Denom).Add(coin.Amount))
	return nil
}

func copyState(balances map[Address]map[string]math.Int, supply map[string]math.Int) ledgerSnapshot {
	snap := ledgerSnapshot{
		balances: make(map[Address]map[string]math.Int, len(balances)),
		supply:   make(map[string]math.Int, len(supply)),
	}
	for addr, accounts := range balances {
		copied := make(map[string]math.Int, len(accounts))
		for denom, amount := range accounts {
			copied[denom] = amount
		}
		snap.balances[addr] = copied
	}
	for denom, amount := range supply {
		snap.supply[denom] = amount
	}
	return snap
}

// Snapshot implements Stateful. math.Int values are immutable so copying the maps is enough.
func (l *Ledger) Snapshot() any {
	return copyState(l.balances, l.supply)
}

// Restore implements Stateful.
func (l *Ledger) Restore(snapshot any) {
	snap := snapshot.(ledgerSnapshot)
	restored := copyState(snap.balances, snap.supply)
	l.balances = restored.balances
	l.supply = restored.supply
}
