package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifetimeValid(t *testing.T) {
	for _, l := range []Lifetime{Lifetime1h, Lifetime6h, Lifetime24h, Lifetime7d, Lifetime30d, LifetimeCustom, LifetimeNever} {
		assert.True(t, l.Valid(), string(l))
	}
	assert.False(t, Lifetime("fortnight").Valid())
	assert.False(t, Lifetime("").Valid())
}

func TestLifetimeDuration(t *testing.T) {
	tests := []struct {
		lifetime Lifetime
		hours    int
		want     time.Duration
		ok       bool
	}{
		{Lifetime1h, 0, time.Hour, true},
		{Lifetime6h, 0, 6 * time.Hour, true},
		{Lifetime24h, 0, 24 * time.Hour, true},
		{Lifetime7d, 0, 7 * 24 * time.Hour, true},
		{Lifetime30d, 0, 30 * 24 * time.Hour, true},
		{LifetimeCustom, 36, 36 * time.Hour, true},
		{LifetimeNever, 0, 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.lifetime.Duration(tt.hours)
		assert.Equal(t, tt.ok, ok, string(tt.lifetime))
		assert.Equal(t, tt.want, got, string(tt.lifetime))
	}
}

func TestPostTotalReactions(t *testing.T) {
	p := &Post{Reactions: map[ReactionKind]int{
		ReactionHeart: 3,
		ReactionHug:   2,
		ReactionAngry: 1,
	}}
	assert.Equal(t, 6, p.TotalReactions())
	assert.Equal(t, 0, (&Post{}).TotalReactions())
}

func TestReactionKindValid(t *testing.T) {
	for _, k := range []ReactionKind{ReactionHeart, ReactionHug, ReactionLaugh, ReactionWow, ReactionSad, ReactionAngry} {
		assert.True(t, k.Valid(), string(k))
	}
	assert.False(t, ReactionKind("meh").Valid())
}

func TestRoleCanModerate(t *testing.T) {
	assert.False(t, RoleMember.CanModerate())
	assert.True(t, RoleModerator.CanModerate())
	assert.True(t, RoleAdmin.CanModerate())
}

func TestBuildCommentTree(t *testing.T) {
	ptr := func(id CommentId) *CommentId { return &id }

	t.Run("nests replies under their parents", func(t *testing.T) {
		comments := []*Comment{
			{Id: "a"},
			{Id: "b", ParentId: ptr("a")},
			{Id: "c", ParentId: ptr("b")},
			{Id: "d"},
		}

		roots := BuildCommentTree(comments)
		require.Len(t, roots, 2)
		assert.Equal(t, CommentId("a"), roots[0].Id)
		require.Len(t, roots[0].Replies, 1)
		assert.Equal(t, CommentId("b"), roots[0].Replies[0].Id)
		require.Len(t, roots[0].Replies[0].Replies, 1)
		assert.Equal(t, CommentId("c"), roots[0].Replies[0].Replies[0].Id)
		assert.Equal(t, CommentId("d"), roots[1].Id)
	})

	t.Run("orphaned replies surface at the top level", func(t *testing.T) {
		comments := []*Comment{
			{Id: "a", ParentId: ptr("deleted")},
		}

		roots := BuildCommentTree(comments)
		require.Len(t, roots, 1)
		assert.Equal(t, CommentId("a"), roots[0].Id)
	})

	t.Run("empty arena builds an empty tree", func(t *testing.T) {
		assert.Empty(t, BuildCommentTree(nil))
	})
}

func TestFindComment(t *testing.T) {
	p := &Post{Comments: []*Comment{{Id: "a"}, {Id: "b"}}}
	require.NotNil(t, p.FindComment("b"))
	assert.Nil(t, p.FindComment("z"))
}
