package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushcampus-dev/hushcampus/internal/config"
	"github.com/hushcampus-dev/hushcampus/internal/domain"
	"github.com/hushcampus-dev/hushcampus/internal/errors"
)

func newTestLedger(t *testing.T) (*Ledger, *mockClock, *memSnapshots) {
	t.Helper()
	clock := newMockClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	storage := newMemSnapshots()
	cfg := config.Default()
	ledger := NewLedger(&cfg.Public, storage, AlwaysSettle{}, clock.Now)
	return ledger, clock, storage
}

func TestLedgerCredit(t *testing.T) {
	t.Run("credit increases balance, pending and category breakdown", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)

		tx := ledger.Credit("alice", 10, "first post bonus", domain.CategoryPosts, nil)
		require.NotNil(t, tx)

		snap := ledger.Snapshot()
		assert.Equal(t, domain.Points(10), snap.Balance)
		assert.Equal(t, domain.Points(10), snap.TotalEarned)
		assert.Equal(t, domain.Points(10), snap.Pending)
		assert.Equal(t, domain.Points(10), ledger.CategoryBreakdown()[domain.CategoryPosts])
	})

	t.Run("non-positive amounts are silent no-ops", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)

		assert.Nil(t, ledger.Credit("alice", 0, "zero", domain.CategoryPosts, nil))
		assert.Nil(t, ledger.Credit("alice", -5, "negative", domain.CategoryPosts, nil))
		assert.Equal(t, domain.Points(0), ledger.Snapshot().Balance)
		assert.Empty(t, ledger.Transactions())
	})

	t.Run("balance-changed observers fire after mutation", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)

		var observed []domain.BalanceSnapshot
		ledger.OnBalanceChanged(func(snap domain.BalanceSnapshot) {
			observed = append(observed, snap)
		})

		ledger.Credit("alice", 7, "comment posted", domain.CategoryComments, nil)
		require.Len(t, observed, 1)
		assert.Equal(t, domain.Points(7), observed[0].Balance)
	})
}

func TestLedgerIdempotency(t *testing.T) {
	t.Run("same logical event credits exactly once", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)

		tx, dup := ledger.CreditOnce("alice", 3, "comment posted", domain.CategoryComments, "comment:c1", "commenter")
		require.NotNil(t, tx)
		assert.False(t, dup)

		tx, dup = ledger.CreditOnce("alice", 3, "comment posted", domain.CategoryComments, "comment:c1", "commenter")
		assert.Nil(t, tx)
		assert.True(t, dup)

		assert.Equal(t, domain.Points(3), ledger.Snapshot().Balance)
		assert.Len(t, ledger.Transactions(), 1)
	})

	t.Run("same rewardId with different role credits separately", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)

		_, dup := ledger.CreditOnce("alice", 3, "comment posted", domain.CategoryComments, "comment:c1", "commenter")
		assert.False(t, dup)
		_, dup = ledger.CreditOnce("bob", 2, "comment received", domain.CategoryComments, "comment:c1", "author")
		assert.False(t, dup)

		assert.Equal(t, domain.Points(5), ledger.Snapshot().Balance)
	})

	t.Run("index survives reload", func(t *testing.T) {
		ledger, clock, storage := newTestLedger(t)

		_, dup := ledger.CreditOnce("alice", 3, "comment posted", domain.CategoryComments, "comment:c1", "commenter")
		require.False(t, dup)

		cfg := config.Default()
		reloaded := NewLedger(&cfg.Public, storage, AlwaysSettle{}, clock.Now)
		require.NoError(t, reloaded.Load())

		_, dup = reloaded.CreditOnce("alice", 3, "comment posted", domain.CategoryComments, "comment:c1", "commenter")
		assert.True(t, dup)
		assert.Equal(t, domain.Points(3), reloaded.Snapshot().Balance)
	})
}

func TestLedgerCooldown(t *testing.T) {
	t.Run("second credit within window is suppressed", func(t *testing.T) {
		ledger, clock, _ := newTestLedger(t)

		tx, suppressed := ledger.CreditWithCooldown("mod1", 5, "moderation: pin_post", domain.CategoryBonuses, "mod:pin_post:mod1", "moderator")
		require.NotNil(t, tx)
		assert.False(t, suppressed)

		clock.Advance(2 * time.Minute)
		tx, suppressed = ledger.CreditWithCooldown("mod1", 5, "moderation: pin_post", domain.CategoryBonuses, "mod:pin_post:mod1", "moderator")
		assert.Nil(t, tx)
		assert.True(t, suppressed)

		clock.Advance(4 * time.Minute)
		tx, suppressed = ledger.CreditWithCooldown("mod1", 5, "moderation: pin_post", domain.CategoryBonuses, "mod:pin_post:mod1", "moderator")
		assert.NotNil(t, tx)
		assert.False(t, suppressed)

		assert.Equal(t, domain.Points(10), ledger.Snapshot().Balance)
	})

	t.Run("cooldown state survives reload", func(t *testing.T) {
		ledger, clock, storage := newTestLedger(t)

		_, suppressed := ledger.CreditWithCooldown("mod1", 5, "moderation: pin_post", domain.CategoryBonuses, "mod:pin_post:mod1", "moderator")
		require.False(t, suppressed)

		cfg := config.Default()
		reloaded := NewLedger(&cfg.Public, storage, AlwaysSettle{}, clock.Now)
		require.NoError(t, reloaded.Load())

		clock.Advance(time.Minute)
		_, suppressed = reloaded.CreditWithCooldown("mod1", 5, "moderation: pin_post", domain.CategoryBonuses, "mod:pin_post:mod1", "moderator")
		assert.True(t, suppressed)
	})
}

func TestLedgerDebit(t *testing.T) {
	t.Run("debit decreases balance and records spend", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)
		ledger.Credit("alice", 30, "seed", domain.CategoryPosts, nil)

		tx, err := ledger.Debit(20, "lifetime extension", nil)
		require.NoError(t, err)
		assert.Equal(t, domain.TxSpend, tx.Type)

		snap := ledger.Snapshot()
		assert.Equal(t, domain.Points(10), snap.Balance)
		assert.Equal(t, domain.Points(20), snap.Spent)
	})

	t.Run("debit never drives balance negative", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)
		ledger.Credit("alice", 10, "seed", domain.CategoryPosts, nil)

		_, err := ledger.Debit(11, "too much", nil)
		assert.ErrorIs(t, err, errors.InsufficientBalance)
		assert.Equal(t, domain.Points(10), ledger.Snapshot().Balance)
		assert.Len(t, ledger.Transactions(), 1)
	})
}

func TestLedgerClaim(t *testing.T) {
	t.Run("claim moves whole pending to claimed", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)
		ledger.Credit("alice", 40, "seed", domain.CategoryPosts, nil)

		amount, err := ledger.Claim(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.Points(40), amount)

		snap := ledger.Snapshot()
		assert.Equal(t, domain.Points(0), snap.Pending)
		assert.Equal(t, domain.Points(40), snap.Claimed)
		// claim does not touch balance
		assert.Equal(t, domain.Points(40), snap.Balance)
	})

	t.Run("settlement failure leaves state untouched", func(t *testing.T) {
		clock := newMockClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
		cfg := config.Default()
		ledger := NewLedger(&cfg.Public, newMemSnapshots(), failingSettler{}, clock.Now)
		ledger.Credit("alice", 40, "seed", domain.CategoryPosts, nil)

		_, err := ledger.Claim(context.Background())
		assert.ErrorIs(t, err, errors.ClaimFailed)

		snap := ledger.Snapshot()
		assert.Equal(t, domain.Points(40), snap.Pending)
		assert.Equal(t, domain.Points(0), snap.Claimed)
	})
}

func TestLedgerStreak(t *testing.T) {
	t.Run("consecutive days increment", func(t *testing.T) {
		ledger, clock, _ := newTestLedger(t)

		assert.Equal(t, 1, ledger.TouchStreak("alice"))
		clock.Advance(24 * time.Hour)
		assert.Equal(t, 2, ledger.TouchStreak("alice"))
	})

	t.Run("same day is a no-op", func(t *testing.T) {
		ledger, clock, _ := newTestLedger(t)

		ledger.TouchStreak("alice")
		before := ledger.Snapshot().Balance
		clock.Advance(2 * time.Hour)
		assert.Equal(t, 1, ledger.TouchStreak("alice"))
		assert.Equal(t, before, ledger.Snapshot().Balance)
	})

	t.Run("a gap of 2+ days resets to 1, not 0", func(t *testing.T) {
		ledger, clock, _ := newTestLedger(t)

		ledger.TouchStreak("alice")
		clock.Advance(24 * time.Hour)
		ledger.TouchStreak("alice")
		clock.Advance(3 * 24 * time.Hour)
		assert.Equal(t, 1, ledger.TouchStreak("alice"))
	})

	t.Run("milestone grants one-time bonus in the same call", func(t *testing.T) {
		ledger, clock, _ := newTestLedger(t)
		cfg := config.Default()

		for day := 0; day < cfg.Public.Rewards.StreakMilestone; day++ {
			ledger.TouchStreak("alice")
			clock.Advance(24 * time.Hour)
		}

		expected := domain.Points(cfg.Public.Rewards.StreakMilestone)*cfg.Public.Rewards.DailyStreak +
			cfg.Public.Rewards.StreakBonus
		assert.Equal(t, expected, ledger.Snapshot().Balance)
		assert.Equal(t, cfg.Public.Rewards.StreakBonus, ledger.CategoryBreakdown()[domain.CategoryBonuses])
	})
}

func TestLedgerReplay(t *testing.T) {
	t.Run("transaction history fully determines the balance partitions", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)

		ledger.Credit("alice", 50, "seed", domain.CategoryPosts, nil)
		ledger.Credit("alice", 25, "helpful comment milestone", domain.CategoryHelpful, nil)
		_, err := ledger.Debit(30, "extension", nil)
		require.NoError(t, err)
		_, err = ledger.Claim(context.Background())
		require.NoError(t, err)
		ledger.Credit("alice", 10, "daily post", domain.CategoryPosts, nil)

		assert.Equal(t, ledger.Snapshot(), Replay(ledger.Transactions()))
	})
}

func TestLedgerAchievements(t *testing.T) {
	t.Run("predicates unlock exactly once", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)

		var unlocked []string
		ledger.OnAchievement(func(id string) { unlocked = append(unlocked, id) })

		ledger.Credit("alice", 5, "first", domain.CategoryPosts, nil)
		ledger.Credit("alice", 5, "second", domain.CategoryPosts, nil)

		count := 0
		for _, id := range unlocked {
			if id == domain.AchievementFirstSteps {
				count++
			}
		}
		assert.Equal(t, 1, count)
		assert.Contains(t, ledger.Achievements(), domain.AchievementFirstSteps)
	})

	t.Run("stats-driven predicates use the injected provider", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)

		stats := EngagementStats{}
		ledger.SetStatsProvider(func() EngagementStats { return stats })

		ledger.Credit("alice", 1, "reaction received", domain.CategoryReactions, nil)
		assert.NotContains(t, ledger.Achievements(), domain.AchievementViralVoice)

		stats.ViralPosts = 1
		ledger.Credit("alice", 150, "viral post bonus", domain.CategoryBonuses, nil)
		assert.Contains(t, ledger.Achievements(), domain.AchievementViralVoice)
	})

	t.Run("high earner unlocks at 500 total earned", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)

		ledger.Credit("alice", 499, "seed", domain.CategoryPosts, nil)
		assert.NotContains(t, ledger.Achievements(), domain.AchievementHighEarner)
		ledger.Credit("alice", 1, "seed", domain.CategoryPosts, nil)
		assert.Contains(t, ledger.Achievements(), domain.AchievementHighEarner)
	})
}

func TestLedgerSubscriptions(t *testing.T) {
	ledger, clock, storage := newTestLedger(t)
	require.NoError(t, ledger.Load())

	ledger.SetSubscription("weekly-digest", true)
	ledger.SetSubscription("streak-reminders", false)

	subs := ledger.Subscriptions()
	assert.True(t, subs["weekly-digest"])
	assert.False(t, subs["streak-reminders"])

	cfg := config.Default()
	reloaded := NewLedger(&cfg.Public, storage, AlwaysSettle{}, clock.Now)
	require.NoError(t, reloaded.Load())
	assert.True(t, reloaded.Subscriptions()["weekly-digest"])
}
