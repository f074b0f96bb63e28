package service

import (
	"time"

	"github.com/hushcampus-dev/hushcampus/internal/domain"
	"github.com/hushcampus-dev/hushcampus/internal/errors"
	"github.com/hushcampus-dev/hushcampus/internal/storage/kv"
)

// Community-scope mutations invoked by the moderation log. Capability checks
// happen in the moderation log before any of these run.

// PinPost pins a post; a non-nil until arms the auto-unpin boost timer.
func (s *Store) PinPost(id domain.PostId, until *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return errors.NotFound
	}
	post.Pinned = true
	post.PinnedUntil = until
	if until != nil {
		s.scheduleBoostLocked(post, BoostPin, *until)
	}
	s.persistPostsLocked()
	return nil
}

// UnpinPost clears the pin flag and its timer.
func (s *Store) UnpinPost(id domain.PostId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return errors.NotFound
	}
	post.Pinned = false
	post.PinnedUntil = nil
	s.scheduler.ClearBoost(id, BoostPin)
	s.persistPostsLocked()
	return nil
}

// HighlightPost arms a temporary highlight boost.
func (s *Store) HighlightPost(id domain.PostId, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return errors.NotFound
	}
	post.Highlighted = true
	post.HighlightedUntil = &until
	s.scheduleBoostLocked(post, BoostHighlight, until)
	s.persistPostsLocked()
	return nil
}

// CrossCampusBoost arms a temporary cross-campus visibility boost.
func (s *Store) CrossCampusBoost(id domain.PostId, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return errors.NotFound
	}
	post.CrossCampus = true
	post.CrossCampusUntil = &until
	s.scheduleBoostLocked(post, BoostCrossCampus, until)
	s.persistPostsLocked()
	return nil
}

// BanMember bans a community member until the given time.
func (s *Store) BanMember(communityId domain.CommunityId, studentId domain.StudentId, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.membershipLocked(communityId, studentId)
	if m == nil {
		return errors.NotFound
	}
	m.Banned = true
	m.BannedUntil = &until
	s.persistLocked(kv.NSMemberships, s.memberships)
	return nil
}

// WarnMember appends to the member's warning list without touching prior
// warnings.
func (s *Store) WarnMember(communityId domain.CommunityId, studentId, by domain.StudentId, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.membershipLocked(communityId, studentId)
	if m == nil {
		return errors.NotFound
	}
	m.Warnings = append(m.Warnings, domain.Warning{By: by, Reason: reason, At: s.now()})
	s.persistLocked(kv.NSMemberships, s.memberships)
	return nil
}

// VerifyAdvice marks a comment as moderator-verified advice and grants the
// comment author a one-time bonus. Re-verifying is a no-op.
func (s *Store) VerifyAdvice(commentId domain.CommentId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, post := range s.posts {
		comment := post.FindComment(commentId)
		if comment == nil {
			continue
		}
		comment.VerifiedAdvice = true
		if !comment.VerifiedRewardAwarded {
			comment.VerifiedRewardAwarded = true
			s.ledger.CreditOnce(comment.AuthorId, s.cfg.Rewards.Helpful,
				"verified advice", domain.CategoryHelpful,
				"verified:"+commentId, "author")
		}
		s.persistPostsLocked()
		return nil
	}
	return errors.NotFound
}

// SetChannelMuteState mutes or unmutes a channel community-wide.
func (s *Store) SetChannelMuteState(channelId domain.ChannelId, muted bool, until *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.channels {
		if ch.Id == channelId {
			ch.Muted = muted
			ch.MutedUntil = until
			s.persistLocked(kv.NSChannels, s.channels)
			return nil
		}
	}
	return errors.NotFound
}
