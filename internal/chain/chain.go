/*

This file contains the in-process execution environment that every strategy, vault and venue
call runs against. A call either completes or leaves every registered component untouched.

*/

package chain

import (
	"sync"
	"time"
)

// Address identifies an account on the ledger (users, vault, strategy, venues).
type Address string

func (a Address) String() string { return string(a) }

// Stateful is implemented by every component whose state must roll back when a call fails.
type Stateful interface {
	// Snapshot returns an opaque copy of the component state.
	Snapshot() any
	// Restore replaces the component state with a value previously returned by Snapshot.
	Restore(snapshot any)
}

// Chain owns the ledger, the clock and the set of stateful components.
type Chain struct {
	mu         sync.Mutex
	clock      *Clock
	ledger     *Ledger
	components []Stateful
}

// New creates an environment whose clock starts at genesis.
func New(genesis time.Time) *Chain {
	ledger := NewLedger()
	return &Chain{
		clock:      NewClock(genesis),
		ledger:     ledger,
		components: []Stateful{ledger},
	}
}

// Clock returns the simulated block clock.
func (c *Chain) Clock() *Clock { return c.clock }

// Now returns the current block time.
func (c *Chain) Now() time.Time { return c.clock.Now() }

// Ledger returns the token ledger.
func (c *Chain) Ledger() *Ledger { return c.ledger }

// Register adds components to the rollback set. Must not be called from inside Atomic.
func (c *Chain) Register(components ...Stateful) {
	c.components = append(c.components, components...)
}

// Atomic runs fn and restores every registered component if fn returns an error or panics.
// Calls nest: an inner failure only rolls back to the inner snapshot.
func (c *Chain) Atomic(fn func() error) (err error) {
	components := c.components
	snapshots := make([]any, len(components))
	for i, component := range components {
		snapshots[i] = component.Snapshot()
	}

	rollback := func() {
		for i, component := range components {
			component.Restore(snapshots[i])
		}
	}

	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err = fn(); err != nil {
		rollback()
		return err
	}
	return nil
}

// Do serializes fn against every other Do caller and runs it atomically.
func (c *Chain) Do(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Atomic(fn)
}
