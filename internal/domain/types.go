package domain

type (
	StudentId   = string
	PostId      = string
	CommentId   = string
	CommunityId = string
	ChannelId   = string
	ReportId    = string

	Points = int64
)

// ReactionKind is one of six fixed reaction types.
type ReactionKind string

const (
	ReactionHeart ReactionKind = "heart"
	ReactionHug   ReactionKind = "hug"
	ReactionLaugh ReactionKind = "laugh"
	ReactionWow   ReactionKind = "wow"
	ReactionSad   ReactionKind = "sad"
	ReactionAngry ReactionKind = "angry"
)

func (r ReactionKind) Valid() bool {
	switch r {
	case ReactionHeart, ReactionHug, ReactionLaugh, ReactionWow, ReactionSad, ReactionAngry:
		return true
	}
	return false
}

// Role of a community membership.
type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}
