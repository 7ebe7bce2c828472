package cell

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInsufficientFunds is returned by Withdraw when the amount exceeds the
// balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Account is a balance that only changes inside its critical section. The
// check (amount > balance) and the update happen under the same lock, so two
// withdrawals can never both pass the check against the same balance.
type Account struct {
	mu      sync.Mutex
	balance int
}

// NewAccount returns an account holding balance.
func NewAccount(balance int) *Account {
	return &Account{balance: balance}
}

// Withdraw takes amount from the balance and returns what is left. If the
// amount is larger than the balance nothing changes and the error wraps
// ErrInsufficientFunds.
func (a *Account) Withdraw(amount int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if amount > a.balance {
		return a.balance, fmt.Errorf("withdraw %d from %d: %w", amount, a.balance, ErrInsufficientFunds)
	}
	a.balance -= amount
	return a.balance, nil
}

// Balance returns the current balance.
func (a *Account) Balance() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// SeenSet records items the first time they are offered.
type SeenSet[T comparable] struct {
	mu   sync.Mutex
	seen map[T]struct{}
}

// AlreadySeen reports whether item was offered before, recording it if not.
// Test and insert happen under one lock; for any item exactly one caller
// gets false.
func (s *SeenSet[T]) AlreadySeen(item T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[item]; ok {
		return true
	}
	if s.seen == nil {
		s.seen = make(map[T]struct{})
	}
	s.seen[item] = struct{}{}
	return false
}

// Len returns the number of distinct items seen.
func (s *SeenSet[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
