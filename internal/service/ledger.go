package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hushcampus-dev/hushcampus/internal/config"
	"github.com/hushcampus-dev/hushcampus/internal/domain"
	"github.com/hushcampus-dev/hushcampus/internal/errors"
	"github.com/hushcampus-dev/hushcampus/internal/logger"
	"github.com/hushcampus-dev/hushcampus/internal/storage/kv"
)

const dateLayout = "2006-01-02"

// EngagementStats is the reconciliation context the post store provides for
// achievement predicates.
type EngagementStats struct {
	TotalReactions int
	ViralPosts     int
}

// ledgerState is the persisted shape of the ledger. The idempotency index
// and cooldown map are rebuilt from the transaction history on load.
type ledgerState struct {
	Balance       domain.BalanceSnapshot                  `json:"balance"`
	ByCategory    map[domain.RewardCategory]domain.Points `json:"byCategory"`
	Transactions  []domain.Transaction                    `json:"transactions"`
	Streak        domain.Streak                           `json:"streak"`
	Achievements  map[string]time.Time                    `json:"achievements"`
	Subscriptions map[string]bool                         `json:"subscriptions"`
}

func newLedgerState() ledgerState {
	return ledgerState{
		ByCategory:    make(map[domain.RewardCategory]domain.Points),
		Achievements:  make(map[string]time.Time),
		Subscriptions: make(map[string]bool),
	}
}

type achievementContext struct {
	Stats      EngagementStats
	Snapshot   domain.BalanceSnapshot
	ByCategory map[domain.RewardCategory]domain.Points
	Streak     domain.Streak
	TxCount    int
}

// Fixed predicate table. A predicate transitioning unmet -> met unlocks the
// achievement exactly once.
var achievementChecks = []struct {
	id  string
	met func(c achievementContext) bool
}{
	{domain.AchievementFirstSteps, func(c achievementContext) bool { return c.TxCount > 0 }},
	{domain.AchievementCrowdFav, func(c achievementContext) bool { return c.Stats.TotalReactions >= 100 }},
	{domain.AchievementViralVoice, func(c achievementContext) bool { return c.Stats.ViralPosts >= 1 }},
	{domain.AchievementWeekStreak, func(c achievementContext) bool { return c.Streak.Count >= 7 }},
	{domain.AchievementHighEarner, func(c achievementContext) bool { return c.Snapshot.TotalEarned >= 500 }},
	{domain.AchievementGoodSamarite, func(c achievementContext) bool { return c.ByCategory[domain.CategoryHelpful] >= 100 }},
}

// Ledger owns balance state, streaks, subscriptions and achievement unlocks.
// Transactions are append-only; every balance-affecting mutation persists the
// whole snapshot and runs the achievement reconciliation pass.
type Ledger struct {
	mu      sync.Mutex
	cfg     *config.Public
	storage Snapshots
	settler Settler
	now     Clock

	state ledgerState

	// rewardId|role|userId -> matching earn transaction
	index map[string]*domain.Transaction
	// rewardId prefix -> time of last cooldown-gated credit
	cooldowns map[string]time.Time

	// engagement stats provider, set by the post store
	statsFn func() EngagementStats

	balanceObs     []func(domain.BalanceSnapshot)
	achievementObs []func(id string)
}

func NewLedger(cfg *config.Public, storage Snapshots, settler Settler, now Clock) *Ledger {
	if settler == nil {
		settler = AlwaysSettle{}
	}
	if now == nil {
		now = SystemClock
	}
	return &Ledger{
		cfg:       cfg,
		storage:   storage,
		settler:   settler,
		now:       now,
		state:     newLedgerState(),
		index:     make(map[string]*domain.Transaction),
		cooldowns: make(map[string]time.Time),
	}
}

// Load rehydrates the ledger from its persisted namespace and rebuilds the
// idempotency index. A missing or corrupt snapshot starts from zero.
func (l *Ledger) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var state ledgerState
	found, err := l.storage.Load(kv.NSLedger, &state)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	if !found {
		l.state = newLedgerState()
		return nil
	}
	if state.ByCategory == nil {
		state.ByCategory = make(map[domain.RewardCategory]domain.Points)
	}
	if state.Achievements == nil {
		state.Achievements = make(map[string]time.Time)
	}
	if state.Subscriptions == nil {
		state.Subscriptions = make(map[string]bool)
	}
	l.state = state
	l.rebuildIndexLocked()
	return nil
}

// SetStatsProvider wires the engagement stats used by achievement predicates.
func (l *Ledger) SetStatsProvider(fn func() EngagementStats) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statsFn = fn
}

// OnBalanceChanged registers an observer notified after every balance mutation.
func (l *Ledger) OnBalanceChanged(fn func(domain.BalanceSnapshot)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balanceObs = append(l.balanceObs, fn)
}

// OnAchievement registers an observer notified when an achievement unlocks.
func (l *Ledger) OnAchievement(fn func(id string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.achievementObs = append(l.achievementObs, fn)
}

// Credit appends an earn transaction. A non-positive amount is a silent
// no-op, intentional policy rather than an error.
func (l *Ledger) Credit(recipient domain.StudentId, amount domain.Points, reason string, category domain.RewardCategory, meta map[string]string) *domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.creditLocked(recipient, amount, reason, category, meta)
}

// CreditOnce credits at most once per (rewardId, role, recipient). A repeat
// call returns (nil, true) without touching the ledger.
func (l *Ledger) CreditOnce(recipient domain.StudentId, amount domain.Points, reason string, category domain.RewardCategory, rewardId, role string) (*domain.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := idempotencyKey(rewardId, role, recipient)
	if _, ok := l.index[key]; ok {
		logger.Log.Debug("duplicate reward suppressed",
			"component", "ledger", "reward_id", rewardId, "role", role)
		return nil, true
	}

	meta := map[string]string{
		domain.MetaRewardId:      rewardId,
		domain.MetaRecipientRole: role,
		domain.MetaUserId:        recipient,
	}
	return l.creditLocked(recipient, amount, reason, category, meta), false
}

// CreditWithCooldown credits only if no credit with the same rewardId prefix
// happened within the cooldown window. Returns (nil, true) when suppressed;
// the caller's action is still expected to be recorded.
func (l *Ledger) CreditWithCooldown(recipient domain.StudentId, amount domain.Points, reason string, category domain.RewardCategory, rewardIdPrefix, role string) (*domain.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.cooldowns[rewardIdPrefix]; ok {
		if l.now().Sub(last) < time.Duration(l.cfg.Rewards.ModerationCD) {
			logger.Log.Debug("reward suppressed by cooldown",
				"component", "ledger", "prefix", rewardIdPrefix)
			return nil, true
		}
	}

	rewardId := fmt.Sprintf("%s:%d", rewardIdPrefix, l.now().UnixMilli())
	meta := map[string]string{
		domain.MetaRewardId:      rewardId,
		domain.MetaRecipientRole: role,
		domain.MetaUserId:        recipient,
		"cooldownPrefix":         rewardIdPrefix,
	}
	tx := l.creditLocked(recipient, amount, reason, category, meta)
	if tx != nil {
		l.cooldowns[rewardIdPrefix] = tx.CreatedAt
	}
	return tx, false
}

func (l *Ledger) creditLocked(recipient domain.StudentId, amount domain.Points, reason string, category domain.RewardCategory, meta map[string]string) *domain.Transaction {
	if amount <= 0 {
		// observed policy: silently ignored, not an error
		logger.Log.Debug("non-positive credit ignored",
			"component", "ledger", "amount", amount, "reason", reason)
		return nil
	}

	l.state.Balance.Balance += amount
	l.state.Balance.TotalEarned += amount
	l.state.Balance.Pending += amount
	l.state.ByCategory[category] += amount

	tx := l.appendLocked(domain.TxEarn, amount, reason, category, meta)
	l.afterMutationLocked()
	return tx
}

// Debit appends a spend transaction. Fails without mutation when the amount
// exceeds the available balance.
func (l *Ledger) Debit(amount domain.Points, reason string, meta map[string]string) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount <= 0 {
		return nil, &errors.ValidationError{Message: "debit amount must be positive"}
	}
	if amount > l.state.Balance.Balance {
		return nil, errors.InsufficientBalance
	}

	l.state.Balance.Balance -= amount
	l.state.Balance.Spent += amount

	tx := l.appendLocked(domain.TxSpend, amount, reason, "", meta)
	l.afterMutationLocked()
	return tx, nil
}

// Claim moves the entire pending amount into claimed through the external
// settler. Settlement failure leaves pending/claimed untouched.
func (l *Ledger) Claim(ctx context.Context) (domain.Points, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	amount := l.state.Balance.Pending
	if amount == 0 {
		return 0, nil
	}

	if err := l.settler.Settle(ctx, int64(amount)); err != nil {
		logger.Log.Warn("claim settlement failed",
			"component", "ledger", "amount", amount, "error", err)
		return 0, errors.ClaimFailed
	}

	l.state.Balance.Pending = 0
	l.state.Balance.Claimed += amount

	l.appendLocked(domain.TxClaim, amount, "claim settlement", "", nil)
	l.afterMutationLocked()
	return amount, nil
}

// TouchStreak advances the daily streak: yesterday increments, today is a
// no-op, an older date resets to 1. Reaching the milestone grants a one-time
// bonus on top of the daily bonus in the same call.
func (l *Ledger) TouchStreak(recipient domain.StudentId) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.now().Format(dateLayout)
	yesterday := l.now().AddDate(0, 0, -1).Format(dateLayout)

	switch l.state.Streak.LastDate {
	case today:
		return l.state.Streak.Count
	case yesterday:
		l.state.Streak.Count++
	default:
		l.state.Streak.Count = 1
	}
	l.state.Streak.LastDate = today

	l.creditLocked(recipient, l.cfg.Rewards.DailyStreak,
		fmt.Sprintf("daily streak day %d", l.state.Streak.Count),
		domain.CategoryStreaks,
		map[string]string{domain.MetaRewardId: "streak:" + today, domain.MetaUserId: recipient})

	if l.state.Streak.Count == l.cfg.Rewards.StreakMilestone {
		l.creditLocked(recipient, l.cfg.Rewards.StreakBonus,
			fmt.Sprintf("%d-day streak milestone", l.cfg.Rewards.StreakMilestone),
			domain.CategoryBonuses,
			map[string]string{domain.MetaRewardId: fmt.Sprintf("streak-milestone:%d:%s", l.cfg.Rewards.StreakMilestone, today), domain.MetaUserId: recipient})
	}
	return l.state.Streak.Count
}

// SetSubscription records a subscription flag (persisted with the ledger).
func (l *Ledger) SetSubscription(name string, active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Subscriptions[name] = active
	l.persistLocked()
}

// Subscriptions returns a copy of the persisted subscription flags.
func (l *Ledger) Subscriptions() map[string]bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]bool, len(l.state.Subscriptions))
	for k, v := range l.state.Subscriptions {
		out[k] = v
	}
	return out
}

// Snapshot returns the current balance partitions.
func (l *Ledger) Snapshot() domain.BalanceSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Balance
}

// CategoryBreakdown returns a copy of the per-category earned amounts.
func (l *Ledger) CategoryBreakdown() map[domain.RewardCategory]domain.Points {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[domain.RewardCategory]domain.Points, len(l.state.ByCategory))
	for k, v := range l.state.ByCategory {
		out[k] = v
	}
	return out
}

// Transactions returns a copy of the append-only history.
func (l *Ledger) Transactions() []domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Transaction, len(l.state.Transactions))
	copy(out, l.state.Transactions)
	return out
}

// Streak returns the current streak state.
func (l *Ledger) Streak() domain.Streak {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Streak
}

// Achievements returns unlock times keyed by achievement id.
func (l *Ledger) Achievements() map[string]time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]time.Time, len(l.state.Achievements))
	for k, v := range l.state.Achievements {
		out[k] = v
	}
	return out
}

// Replay recomputes balance partitions from an ordered transaction sequence.
// The result must equal the live state; used as the §8 balance oracle and on
// load to rebuild the index.
func Replay(transactions []domain.Transaction) domain.BalanceSnapshot {
	var snap domain.BalanceSnapshot
	for _, tx := range transactions {
		switch tx.Type {
		case domain.TxEarn:
			snap.Balance += tx.Amount
			snap.TotalEarned += tx.Amount
			snap.Pending += tx.Amount
		case domain.TxSpend:
			snap.Balance -= tx.Amount
			snap.Spent += tx.Amount
		case domain.TxClaim:
			snap.Pending -= tx.Amount
			snap.Claimed += tx.Amount
		}
	}
	return snap
}

func (l *Ledger) appendLocked(txType domain.TransactionType, amount domain.Points, reason string, category domain.RewardCategory, meta map[string]string) *domain.Transaction {
	tx := domain.Transaction{
		Id:        uuid.NewString(),
		Type:      txType,
		Amount:    amount,
		Reason:    reason,
		Category:  category,
		Metadata:  meta,
		CreatedAt: l.now(),
		After:     l.state.Balance,
	}
	l.state.Transactions = append(l.state.Transactions, tx)
	stored := &l.state.Transactions[len(l.state.Transactions)-1]
	l.indexTransactionLocked(stored)
	return stored
}

func (l *Ledger) indexTransactionLocked(tx *domain.Transaction) {
	if tx.Type != domain.TxEarn || tx.Metadata == nil {
		return
	}
	rewardId := tx.Metadata[domain.MetaRewardId]
	if rewardId == "" {
		return
	}
	key := idempotencyKey(rewardId, tx.Metadata[domain.MetaRecipientRole], tx.Metadata[domain.MetaUserId])
	l.index[key] = tx
}

func (l *Ledger) rebuildIndexLocked() {
	l.index = make(map[string]*domain.Transaction, len(l.state.Transactions))
	l.cooldowns = make(map[string]time.Time)
	for i := range l.state.Transactions {
		tx := &l.state.Transactions[i]
		l.indexTransactionLocked(tx)
		if tx.Metadata != nil {
			if prefix, ok := tx.Metadata["cooldownPrefix"]; ok {
				if tx.CreatedAt.After(l.cooldowns[prefix]) {
					l.cooldowns[prefix] = tx.CreatedAt
				}
			}
		}
	}
}

func (l *Ledger) afterMutationLocked() {
	l.reconcileAchievementsLocked()
	l.persistLocked()

	snap := l.state.Balance
	for _, fn := range l.balanceObs {
		fn(snap)
	}
}

func (l *Ledger) reconcileAchievementsLocked() {
	ctx := achievementContext{
		Snapshot:   l.state.Balance,
		ByCategory: l.state.ByCategory,
		Streak:     l.state.Streak,
		TxCount:    len(l.state.Transactions),
	}
	if l.statsFn != nil {
		ctx.Stats = l.statsFn()
	}

	for _, check := range achievementChecks {
		if _, unlocked := l.state.Achievements[check.id]; unlocked {
			continue
		}
		if !check.met(ctx) {
			continue
		}
		l.state.Achievements[check.id] = l.now()
		logger.Log.Info("achievement unlocked", "component", "ledger", "achievement", check.id)
		for _, fn := range l.achievementObs {
			fn(check.id)
		}
	}
}

func (l *Ledger) persistLocked() {
	if err := l.storage.Save(kv.NSLedger, &l.state); err != nil {
		logger.Log.Error("failed to persist ledger", "component", "ledger", "error", err)
	}
}

func idempotencyKey(rewardId, role, userId string) string {
	return rewardId + "|" + role + "|" + userId
}
