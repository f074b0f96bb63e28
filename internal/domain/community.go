package domain

import (
	"time"
)

type Community struct {
	Id        CommunityId `json:"id"`
	Name      string      `json:"name"`
	Campus    string      `json:"campus"`
	CreatedAt time.Time   `json:"createdAt"`
}

type Channel struct {
	Id          ChannelId   `json:"id"`
	CommunityId CommunityId `json:"communityId"`
	Name        string      `json:"name"`
	Muted       bool        `json:"muted"`
	MutedUntil  *time.Time  `json:"mutedUntil,omitempty"`
}

type Warning struct {
	By     StudentId `json:"by"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// Membership ties a student to a community. Unread counters are
// monotonically non-negative and only reset by an explicit mark-read.
type Membership struct {
	Id          string      `json:"id"`
	CommunityId CommunityId `json:"communityId"`
	StudentId   StudentId   `json:"studentId"`
	Role        Role        `json:"role"`
	Active      bool        `json:"active"`

	UnreadCount   int                     `json:"unreadCount"`
	ChannelUnread map[ChannelId]int       `json:"channelUnread,omitempty"`
	LastVisited   map[ChannelId]time.Time `json:"lastVisited,omitempty"`
	LastVisitedAt *time.Time              `json:"lastVisitedAt,omitempty"`

	Banned      bool       `json:"banned"`
	BannedUntil *time.Time `json:"bannedUntil,omitempty"`
	Muted       bool       `json:"muted"`
	MutedUntil  *time.Time `json:"mutedUntil,omitempty"`
	Warnings    []Warning  `json:"warnings,omitempty"`

	JoinedAt time.Time `json:"joinedAt"`
}

// NotificationSettings for one (community, student) pair. When MuteAll is
// set, the three event-class toggles are treated as false regardless of
// their stored values.
type NotificationSettings struct {
	CommunityId CommunityId `json:"communityId"`
	StudentId   StudentId   `json:"studentId"`

	MuteAll         bool `json:"muteAll"`
	NotifyOnPost    bool `json:"notifyOnPost"`
	NotifyOnMention bool `json:"notifyOnMention"`
	NotifyOnReply   bool `json:"notifyOnReply"`

	ChannelOverrides map[ChannelId]bool `json:"channelOverrides,omitempty"`
}

// Notification is a feed record surfaced to the student (capped history).
type Notification struct {
	Id        string    `json:"id"`
	StudentId StudentId `json:"studentId"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
