package domain

import (
	"time"
)

// Lifetime policy of a post. ExpiresAt is nil iff the lifetime is "never".
type Lifetime string

const (
	Lifetime1h     Lifetime = "1h"
	Lifetime6h     Lifetime = "6h"
	Lifetime24h    Lifetime = "24h"
	Lifetime7d     Lifetime = "7d"
	Lifetime30d    Lifetime = "30d"
	LifetimeCustom Lifetime = "custom"
	LifetimeNever  Lifetime = "never"
)

func (l Lifetime) Valid() bool {
	switch l {
	case Lifetime1h, Lifetime6h, Lifetime24h, Lifetime7d, Lifetime30d, LifetimeCustom, LifetimeNever:
		return true
	}
	return false
}

// Duration resolves the policy to a concrete duration. For LifetimeCustom
// the customHours argument is used; LifetimeNever returns ok=false.
func (l Lifetime) Duration(customHours int) (time.Duration, bool) {
	switch l {
	case Lifetime1h:
		return time.Hour, true
	case Lifetime6h:
		return 6 * time.Hour, true
	case Lifetime24h:
		return 24 * time.Hour, true
	case Lifetime7d:
		return 7 * 24 * time.Hour, true
	case Lifetime30d:
		return 30 * 24 * time.Hour, true
	case LifetimeCustom:
		return time.Duration(customHours) * time.Hour, true
	}
	return 0, false
}

// EncryptedBlob is the opaque output of the external encryption helper.
type EncryptedBlob struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	KeyId      string `json:"keyId"`
}

// CommunityRef ties a post to the community it was published into.
type CommunityRef struct {
	CommunityId CommunityId `json:"communityId"`
	ChannelId   ChannelId   `json:"channelId"`
	Visibility  string      `json:"visibility"`
	Anonymous   bool        `json:"anonymous"`
}

type Post struct {
	Id        PostId    `json:"id"`
	AuthorId  StudentId `json:"authorId"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`

	Encrypted  bool           `json:"encrypted"`
	Ciphertext *EncryptedBlob `json:"ciphertext,omitempty"`

	Reactions map[ReactionKind]int `json:"reactions"`
	Comments  []*Comment           `json:"comments"` // flat arena, linked via ParentId

	Lifetime           Lifetime   `json:"lifetime"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	ExpiryWarningShown bool       `json:"expiryWarningShown"`

	Pinned           bool       `json:"pinned"`
	PinnedUntil      *time.Time `json:"pinnedUntil,omitempty"`
	Highlighted      bool       `json:"highlighted"`
	HighlightedUntil *time.Time `json:"highlightedUntil,omitempty"`
	CrossCampus      bool       `json:"crossCampus"`
	CrossCampusUntil *time.Time `json:"crossCampusUntil,omitempty"`

	ReportCount   int  `json:"reportCount"`
	Blurred       bool `json:"blurred"`
	Hidden        bool `json:"hidden"`
	CrisisFlagged bool `json:"crisisFlagged"`

	IsViral       bool `json:"isViral"`
	ViralRewarded bool `json:"viralRewarded"`

	Community *CommunityRef `json:"community,omitempty"`

	Archived   bool       `json:"archived"`
	ArchivedAt *time.Time `json:"archivedAt,omitempty"`

	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// TotalReactions sums all six reaction counters.
func (p *Post) TotalReactions() int {
	total := 0
	for _, n := range p.Reactions {
		total += n
	}
	return total
}

// FindComment looks up a comment in the flat arena by id.
func (p *Post) FindComment(id CommentId) *Comment {
	for _, c := range p.Comments {
		if c.Id == id {
			return c
		}
	}
	return nil
}
