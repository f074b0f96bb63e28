package domain

import (
	"time"
)

type ModActionType string

const (
	ModActionPinPost      ModActionType = "pin_post"
	ModActionUnpinPost    ModActionType = "unpin_post"
	ModActionDeletePost   ModActionType = "delete_post"
	ModActionBanMember    ModActionType = "ban_member"
	ModActionWarnMember   ModActionType = "warn_member"
	ModActionMuteChannel  ModActionType = "mute_channel"
	ModActionUnmuteChnl   ModActionType = "unmute_channel"
	ModActionVerifyAdvice ModActionType = "verify_advice"
	ModActionAnnouncement ModActionType = "announcement"
)

func (a ModActionType) Valid() bool {
	switch a {
	case ModActionPinPost, ModActionUnpinPost, ModActionDeletePost,
		ModActionBanMember, ModActionWarnMember,
		ModActionMuteChannel, ModActionUnmuteChnl,
		ModActionVerifyAdvice, ModActionAnnouncement:
		return true
	}
	return false
}

// ModerationLogEntry is a bounded-history audit record of a privileged action.
type ModerationLogEntry struct {
	Id          string            `json:"id"`
	ModeratorId StudentId         `json:"moderatorId"`
	Action      ModActionType     `json:"action"`
	TargetId    string            `json:"targetId"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type ReportTargetType string

const (
	ReportTargetPost    ReportTargetType = "post"
	ReportTargetComment ReportTargetType = "comment"
)

type Report struct {
	Id          ReportId         `json:"id"`
	TargetType  ReportTargetType `json:"targetType"`
	TargetId    string           `json:"targetId"`
	ReporterId  StudentId        `json:"reporterId"`
	ReportType  string           `json:"reportType"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// ModerationResult is the verdict of the external content classifier.
type ModerationResult struct {
	Blocked     bool     `json:"blocked"`
	Issues      []string `json:"issues"`
	NeedsReview bool     `json:"needsReview"`
}
