package domain

import (
	"time"
)

type TransactionType string

const (
	TxEarn  TransactionType = "earn"
	TxSpend TransactionType = "spend"
	TxClaim TransactionType = "claim"
)

// RewardCategory partitions earned credits for the per-category breakdown.
type RewardCategory string

const (
	CategoryPosts     RewardCategory = "posts"
	CategoryReactions RewardCategory = "reactions"
	CategoryComments  RewardCategory = "comments"
	CategoryHelpful   RewardCategory = "helpful"
	CategoryStreaks   RewardCategory = "streaks"
	CategoryBonuses   RewardCategory = "bonuses"
	CategoryCrisis    RewardCategory = "crisis"
	CategoryReporting RewardCategory = "reporting"
	CategoryReferrals RewardCategory = "referrals"
)

func (c RewardCategory) Valid() bool {
	switch c {
	case CategoryPosts, CategoryReactions, CategoryComments, CategoryHelpful,
		CategoryStreaks, CategoryBonuses, CategoryCrisis, CategoryReporting, CategoryReferrals:
		return true
	}
	return false
}

// Metadata keys used for idempotent crediting. A credit is a duplicate when
// an earlier earn transaction matches on all three.
const (
	MetaRewardId      = "rewardId"
	MetaRecipientRole = "recipientRole"
	MetaUserId        = "userId"
)

// BalanceSnapshot is the ledger state captured after each transaction.
type BalanceSnapshot struct {
	Balance     Points `json:"balance"`
	TotalEarned Points `json:"totalEarned"`
	Pending     Points `json:"pending"`
	Claimed     Points `json:"claimed"`
	Spent       Points `json:"spent"`
}

// Transaction is an append-only ledger record. Never mutated after creation;
// the ordered sequence fully determines the ledger state via replay.
type Transaction struct {
	Id        string            `json:"id"`
	Type      TransactionType   `json:"type"`
	Amount    Points            `json:"amount"`
	Reason    string            `json:"reason"`
	Category  RewardCategory    `json:"category"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	After     BalanceSnapshot   `json:"after"`
}

// Streak tracks consecutive-day activity. LastDate is a "2006-01-02" string.
type Streak struct {
	Count    int    `json:"count"`
	LastDate string `json:"lastDate"`
}

// Achievement ids evaluated by the ledger reconciliation pass.
const (
	AchievementFirstSteps   = "first_steps"    // first earn transaction
	AchievementCrowdFav     = "crowd_favorite" // 100+ reactions received
	AchievementViralVoice   = "viral_voice"    // first viral post
	AchievementWeekStreak   = "week_streak"    // 7-day streak
	AchievementHighEarner   = "high_earner"    // 500+ total earned
	AchievementGoodSamarite = "good_samaritan" // 100+ earned in helpful category
)
