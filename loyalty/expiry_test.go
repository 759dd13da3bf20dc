package loyalty_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pos-engine/engine"
	"github.com/warp/pos-engine/loyalty"
	"github.com/warp/pos-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var sweepNow = time.Date(2025, time.August, 1, 10, 0, 0, 0, time.UTC)

func enabledSettings() engine.ExpirySettings {
	return engine.ExpirySettings{
		Enabled:          true,
		InactivityPeriod: engine.Window{Value: 12, Unit: engine.UnitMonths},
		PointsLifespan:   engine.Window{Value: 24, Unit: engine.UnitMonths},
	}
}

func newTestSweeper(store *memory.Store, settings engine.ExpirySettings) *loyalty.Sweeper {
	s := loyalty.NewSweeper(store, loyalty.NewLedger(), func() engine.ExpirySettings { return settings })
	s.Now = func() time.Time { return sweepNow }
	return s
}

// earnOn appends an earned entry dated in the past and syncs the customer.
func earnOn(t *testing.T, store *memory.Store, c *engine.Customer, points int64, monthsAgo int) {
	t.Helper()
	ledger := loyalty.NewLedger()
	on := engine.DateOf(sweepNow).AddMonths(-monthsAgo)
	err := store.WithTx(context.Background(), func(tx engine.Tx) error {
		if err := ledger.Earn(context.Background(), tx, c, points, "", on); err != nil {
			return err
		}
		return tx.PutCustomer(context.Background(), *c)
	})
	require.NoError(t, err)
}

func redeemOn(t *testing.T, store *memory.Store, c *engine.Customer, points int64, monthsAgo int) {
	t.Helper()
	ledger := loyalty.NewLedger()
	on := engine.DateOf(sweepNow).AddMonths(-monthsAgo)
	err := store.WithTx(context.Background(), func(tx engine.Tx) error {
		if err := ledger.Redeem(context.Background(), tx, c, points, "", on); err != nil {
			return err
		}
		return tx.PutCustomer(context.Background(), *c)
	})
	require.NoError(t, err)
}

func customerState(t *testing.T, store *memory.Store, id string) engine.Customer {
	t.Helper()
	c, err := store.Customer(context.Background(), id)
	require.NoError(t, err)
	return c
}

// =============================================================================
// SWEEP TESTS
// =============================================================================

func TestSweeper_Disabled_Skips(t *testing.T) {
	store := memory.New()
	sweeper := newTestSweeper(store, engine.ExpirySettings{Enabled: false})

	result, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
}

func TestSweeper_InactivityZeroesBalance(t *testing.T) {
	// GIVEN: A customer with 30 points last seen 13 months ago
	// WHEN: Sweeping with a 12-month inactivity period
	// THEN: The whole balance is forfeited in one entry

	store := memory.New()
	c := engine.Customer{ID: "KA01AB1234", LastSeen: sweepNow.AddDate(0, -13, 0)}
	seedCustomer(t, store, c)
	earnOn(t, store, &c, 30, 13)

	result, err := newTestSweeper(store, enabledSettings()).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, 1, result.InactiveZeroed)
	assert.Equal(t, int64(30), result.PointsExpired)
	assert.Equal(t, int64(0), customerState(t, store, "KA01AB1234").LoyaltyPoints)

	got := entries(t, store, "KA01AB1234")
	require.Len(t, got, 2)
	last := got[len(got)-1]
	assert.Equal(t, engine.EntryManualSubtract, last.Type)
	assert.Equal(t, loyalty.ReasonInactivity, last.Reason)
	assert.Equal(t, int64(30), last.Points)
}

func TestSweeper_RecentActivitySurvivesInactivityRule(t *testing.T) {
	// GIVEN: A customer seen 4 months ago with recent points
	// WHEN: Sweeping
	// THEN: Nothing expires

	store := memory.New()
	c := engine.Customer{ID: "KA01AB1234", LastSeen: sweepNow.AddDate(0, -4, 0)}
	seedCustomer(t, store, c)
	earnOn(t, store, &c, 30, 4)

	result, err := newTestSweeper(store, enabledSettings()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.InactiveZeroed)
	assert.Equal(t, int64(0), result.PointsExpired)
	assert.Equal(t, int64(30), customerState(t, store, "KA01AB1234").LoyaltyPoints)
}

func TestSweeper_FIFOLifespanExpiry(t *testing.T) {
	// GIVEN: 30 points earned 25 months ago, 20 earned 2 months ago,
	//        and 10 since redeemed
	// WHEN: Sweeping with a 24-month lifespan
	// THEN: The redemption consumes the oldest credit first, so only the
	//       old credit's unspent remainder of 20 expires

	store := memory.New()
	c := engine.Customer{ID: "KA01AB1234", LastSeen: sweepNow.AddDate(0, -2, 0)}
	seedCustomer(t, store, c)
	earnOn(t, store, &c, 30, 25)
	earnOn(t, store, &c, 20, 2)
	redeemOn(t, store, &c, 10, 1)

	result, err := newTestSweeper(store, enabledSettings()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(20), result.PointsExpired)
	assert.Equal(t, int64(20), customerState(t, store, "KA01AB1234").LoyaltyPoints)

	got := entries(t, store, "KA01AB1234")
	last := got[len(got)-1]
	assert.Equal(t, loyalty.ReasonExpired, last.Reason)
	assert.Equal(t, int64(20), last.Points)
}

func TestSweeper_YoungCreditsDoNotExpire(t *testing.T) {
	// GIVEN: All credits earned inside the lifespan
	// WHEN: Sweeping
	// THEN: Nothing expires

	store := memory.New()
	c := engine.Customer{ID: "KA01AB1234", LastSeen: sweepNow.AddDate(0, -1, 0)}
	seedCustomer(t, store, c)
	earnOn(t, store, &c, 50, 23)

	result, err := newTestSweeper(store, enabledSettings()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.PointsExpired)
	assert.Equal(t, int64(50), customerState(t, store, "KA01AB1234").LoyaltyPoints)
}

func TestSweeper_RunsOncePerDay(t *testing.T) {
	// GIVEN: A sweep already ran today
	// WHEN: Running again on the same day
	// THEN: The second run is a no-op

	store := memory.New()
	c := engine.Customer{ID: "KA01AB1234", LastSeen: sweepNow.AddDate(0, -13, 0)}
	seedCustomer(t, store, c)
	earnOn(t, store, &c, 30, 13)

	sweeper := newTestSweeper(store, enabledSettings())

	first, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, first.Skipped)

	second, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, int64(0), second.PointsExpired)
}

func TestSweeper_NextDayRunsAgain(t *testing.T) {
	// GIVEN: A sweep ran yesterday
	// WHEN: Running on the next calendar day
	// THEN: The guard does not block it

	store := memory.New()
	sweeper := newTestSweeper(store, enabledSettings())

	_, err := sweeper.Run(context.Background())
	require.NoError(t, err)

	sweeper.Now = func() time.Time { return sweepNow.AddDate(0, 0, 1) }
	result, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Skipped)
}
