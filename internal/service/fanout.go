package service

import (
	"time"

	"github.com/hushcampus-dev/hushcampus/internal/domain"
)

// ShouldIncrementUnread decides whether a new post bumps a membership's
// unread counter. Precedence, evaluated in order: author excluded, inactive
// excluded, muted excluded, muteAll excluded, explicit channel override wins
// outright, then the general notifyOnPost toggle.
func ShouldIncrementUnread(membership *domain.Membership, post *domain.Post, settings *domain.NotificationSettings) bool {
	if membership.StudentId == post.AuthorId {
		return false
	}
	if !membership.Active {
		return false
	}
	// a member mute with an elapsed until no longer suppresses; the post's
	// creation time is the event time the window is measured against
	if membership.Muted &&
		(membership.MutedUntil == nil || membership.MutedUntil.After(post.CreatedAt)) {
		return false
	}
	if settings == nil {
		return true
	}
	if settings.MuteAll {
		return false
	}
	if post.Community != nil {
		if override, ok := settings.ChannelOverrides[post.Community.ChannelId]; ok {
			return override
		}
	}
	return settings.NotifyOnPost
}

// FanOutPost increments every eligible membership's unread counters by
// exactly 1. Settings are looked up per (community, student) pair.
func FanOutPost(memberships []*domain.Membership, post *domain.Post, settingsFor func(domain.CommunityId, domain.StudentId) *domain.NotificationSettings) int {
	if post.Community == nil {
		return 0
	}
	incremented := 0
	for _, m := range memberships {
		if m.CommunityId != post.Community.CommunityId {
			continue
		}
		settings := settingsFor(m.CommunityId, m.StudentId)
		if !ShouldIncrementUnread(m, post, settings) {
			continue
		}
		m.UnreadCount++
		if m.ChannelUnread == nil {
			m.ChannelUnread = make(map[domain.ChannelId]int)
		}
		m.ChannelUnread[post.Community.ChannelId]++
		incremented++
	}
	return incremented
}

// MarkCommunityRead zeroes one membership's counters and stamps the visit time.
func MarkCommunityRead(m *domain.Membership, at time.Time) {
	m.UnreadCount = 0
	for ch := range m.ChannelUnread {
		m.ChannelUnread[ch] = 0
		if m.LastVisited == nil {
			m.LastVisited = make(map[domain.ChannelId]time.Time)
		}
		m.LastVisited[ch] = at
	}
	m.LastVisitedAt = &at
}

// SetChannelMute flips a channel override. Enabling notifications for a
// channel forces muteAll off; other channels keep whatever their overrides
// and toggles already say.
func SetChannelMute(settings *domain.NotificationSettings, channel domain.ChannelId, muted bool) {
	if settings.ChannelOverrides == nil {
		settings.ChannelOverrides = make(map[domain.ChannelId]bool)
	}
	settings.ChannelOverrides[channel] = !muted
	if !muted {
		settings.MuteAll = false
	}
}
