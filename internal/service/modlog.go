package service

import (
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

// ModerationTarget is the store surface the moderation log mutates.
type ModerationTarget interface {
	IsModerator(communityId domain.CommunityId, studentId domain.StudentId) bool
	PinPost(id domain.PostId, until *time.Time) error
	UnpinPost(id domain.PostId) error
	DeletePost(id domain.PostId) error
	BanMember(communityId domain.CommunityId, studentId domain.StudentId, until time.Time) error
	WarnMember(communityId domain.CommunityId, studentId, by domain.StudentId, reason string) error
	SetChannelMuteState(channelId domain.ChannelId, muted bool, until *time.Time) error
	VerifyAdvice(commentId domain.CommentId) error
	PushNotification(studentId domain.StudentId, kind, title, body string)
}

// ModeratorCrediter is the ledger surface used for the cooldown-gated credit.
type ModeratorCrediter interface {
	CreditWithCooldown(recipient domain.StudentId, amount domain.Points, reason string, category domain.RewardCategory, rewardIdPrefix, role string) (*domain.Transaction, bool)
}

// ModerationAction carries a privileged intent through the layers.
type ModerationAction struct {
	ActorId       domain.StudentId
	CommunityId   domain.CommunityId
	Action        domain.ModActionType
	TargetId      string
	Reason        string
	DurationHours int
}

// ModerationLog wraps privileged mutations with permission checks, keeps a
// bounded audit history, and attempts a cooldown-gated ledger credit for the
// acting moderator.
type ModerationLog struct {
	mu      sync.Mutex
	cfg     *config.Public
	storage Snapshots
	target  ModerationTarget
	ledger  ModeratorCrediter
	now     Clock

	entries []domain.ModerationLogEntry
}

func NewModerationLog(cfg *config.Public, storage Snapshots, target ModerationTarget, ledger ModeratorCrediter, now Clock) *ModerationLog {
	if now == nil {
		now = SystemClock
	}
	return &ModerationLog{
		cfg:     cfg,
		storage: storage,
		target:  target,
		ledger:  ledger,
		now:     now,
	}
}

// Load rehydrates the bounded audit history.
func (m *ModerationLog) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.storage.Load(kv.NSModerationLog, &m.entries)
	return err
}

// Perform executes one privileged action. Without moderator capability the
// call is rejected before any mutation or audit entry. Duplicate actions
// within the cooldown window still produce audit entries but only one credit.
func (m *ModerationLog) Perform(action ModerationAction) (*domain.ModerationLogEntry, error) {
	if !action.Action.Valid() {
		return nil, &errors.ValidationError{Message: "unknown moderation action"}
	}
	if action.Reason == "" {
		return nil, &errors.ValidationError{Message: "reason must not be empty"}
	}
	if !m.target.IsModerator(action.CommunityId, action.ActorId) {
		return nil, &errors.PermissionError{Message: "moderator capability required"}
	}

	meta := map[string]string{"communityId": action.CommunityId}
	if err := m.apply(action, meta); err != nil {
		return nil, err
	}

	entry := m.append(action, meta)

	_, suppressed := m.ledger.CreditWithCooldown(action.ActorId,
		m.cfg.Rewards.Moderation,
		fmt.Sprintf("moderation: %s", action.Action),
		domain.CategoryBonuses,
		fmt.Sprintf("mod:%s:%s", action.Action, action.ActorId),
		"moderator")
	if suppressed {
		logger.Log.Debug("moderation credit suppressed by cooldown",
			"component", "modlog", "action", action.Action, "actor", action.ActorId)
	}

	return entry, nil
}

// Entries returns a copy of the audit history, newest last.
func (m *ModerationLog) Entries() []domain.ModerationLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ModerationLogEntry(nil), m.entries...)
}

func (m *ModerationLog) apply(action ModerationAction, meta map[string]string) error {
	switch action.Action {
	case domain.ModActionPinPost:
		var until *time.Time
		if action.DurationHours > 0 {
			t := m.now().Add(time.Duration(action.DurationHours) * time.Hour)
			until = &t
			meta["until"] = t.Format(time.RFC3339)
		}
		return m.target.PinPost(action.TargetId, until)
	case domain.ModActionUnpinPost:
		return m.target.UnpinPost(action.TargetId)
	case domain.ModActionDeletePost:
		return m.target.DeletePost(action.TargetId)
	case domain.ModActionBanMember:
		hours := action.DurationHours
		if hours <= 0 {
			return &errors.ValidationError{Message: "ban requires a duration in hours"}
		}
		until := m.now().Add(time.Duration(hours) * time.Hour)
		meta["until"] = until.Format(time.RFC3339)
		return m.target.BanMember(action.CommunityId, action.TargetId, until)
	case domain.ModActionWarnMember:
		return m.target.WarnMember(action.CommunityId, action.TargetId, action.ActorId, action.Reason)
	case domain.ModActionMuteChannel:
		var until *time.Time
		if action.DurationHours > 0 {
			t := m.now().Add(time.Duration(action.DurationHours) * time.Hour)
			until = &t
			meta["until"] = t.Format(time.RFC3339)
		}
		return m.target.SetChannelMuteState(action.TargetId, true, until)
	case domain.ModActionUnmuteChnl:
		return m.target.SetChannelMuteState(action.TargetId, false, nil)
	case domain.ModActionVerifyAdvice:
		return m.target.VerifyAdvice(action.TargetId)
	case domain.ModActionAnnouncement:
		m.target.PushNotification("", "announcement", "Announcement", action.Reason)
		return nil
	}
	return &errors.ValidationError{Message: "unknown moderation action"}
}

func (m *ModerationLog) append(action ModerationAction, meta map[string]string) *domain.ModerationLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := domain.ModerationLogEntry{
		Id:          uuid.NewString(),
		ModeratorId: action.ActorId,
		Action:      action.Action,
		TargetId:    action.TargetId,
		Description: action.Reason,
		Metadata:    meta,
		CreatedAt:   m.now(),
	}
	m.entries = append(m.entries, entry)
	if len(m.entries) > m.cfg.ModerationLogCap {
		// trim oldest
		m.entries = m.entries[len(m.entries)-m.cfg.ModerationLogCap:]
	}

	if err := m.storage.Save(kv.NSModerationLog, m.entries); err != nil {
		logger.Log.Error("failed to persist moderation log", "component", "modlog", "error", err)
	}
	return &m.entries[len(m.entries)-1]
}
