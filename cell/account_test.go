package cell_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcodamonte/concurrency/sharedstate/cell"
)

// ── Account ──────────────────────────────────────────────────────────────────

func TestAccountWithdraw(t *testing.T) {
	t.Parallel()

	a := cell.NewAccount(10)

	left, err := a.Withdraw(8)
	require.NoError(t, err)
	assert.Equal(t, 2, left)

	left, err = a.Withdraw(7)
	require.ErrorIs(t, err, cell.ErrInsufficientFunds)
	assert.Equal(t, 2, left)
	assert.Equal(t, 2, a.Balance())
}

// TestAccountConcurrentWithdraw checks that concurrent withdrawals never
// overdraw: exactly balance/amount of them succeed.
func TestAccountConcurrentWithdraw(t *testing.T) {
	t.Parallel()

	const (
		balance = 100
		amount  = 7
		callers = 50
	)
	a := cell.NewAccount(balance)

	var (
		wg sync.WaitGroup
		ok atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Withdraw(amount); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, balance/amount, ok.Load())
	assert.Equal(t, balance%amount, a.Balance())
}

// ── SeenSet ──────────────────────────────────────────────────────────────────

func TestSeenSet(t *testing.T) {
	t.Parallel()

	var s cell.SeenSet[string]
	assert.False(t, s.AlreadySeen("a"))
	assert.True(t, s.AlreadySeen("a"))
	assert.False(t, s.AlreadySeen("b"))
	assert.Equal(t, 2, s.Len())
}

// TestSeenSetFirstCallerWins offers the same item from many goroutines; only
// one of them may be told it is new.
func TestSeenSetFirstCallerWins(t *testing.T) {
	t.Parallel()

	var (
		s     cell.SeenSet[int]
		wg    sync.WaitGroup
		fresh atomic.Int32
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !s.AlreadySeen(42) {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, fresh.Load())
}
