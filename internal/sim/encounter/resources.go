package encounter

import (
	"errors"
	"fmt"
)

// ErrNoResource means a commit asked for more than is available.
var ErrNoResource = errors.New("insufficient resource")

// Pool is one two-phase resource balance. Commit reserves from Available
// without touching Current; Uncommit restores it; Spend collapses a
// reservation into Current once the action is irrevocable. Reset settles
// the tick: Current recovers by Refresh and Available snaps back to it.
type Pool struct {
	Current   float64
	Available float64
	Max       float64
	Refresh   float64
}

func NewPool(max, refresh float64) Pool {
	return Pool{Current: max, Available: max, Max: max, Refresh: refresh}
}

// Commit reserves amount. The pool is untouched on failure.
func (p *Pool) Commit(amount float64) error {
	if amount <= 0 {
		return nil
	}
	if amount > p.Available {
		return fmt.Errorf("commit %.1f with %.1f available: %w", amount, p.Available, ErrNoResource)
	}
	p.Available -= amount
	return nil
}

// Uncommit releases a reservation, never above Current.
func (p *Pool) Uncommit(amount float64) {
	p.Available += amount
	if p.Available > p.Current {
		p.Available = p.Current
	}
}

// Spend consumes a previously committed amount for real.
func (p *Pool) Spend(amount float64) {
	p.Current -= amount
	if p.Current < 0 {
		p.Current = 0
	}
	if p.Available > p.Current {
		p.Available = p.Current
	}
}

// Reset recovers Refresh and clears all reservations for the next tick.
func (p *Pool) Reset() {
	p.Current += p.Refresh
	if p.Current > p.Max {
		p.Current = p.Max
	}
	p.Available = p.Current
}
