package domain

import (
	"time"
)

type Comment struct {
	Id       CommentId  `json:"id"`
	PostId   PostId     `json:"postId"`
	ParentId *CommentId `json:"parentId,omitempty"` // nil for top-level comments
	AuthorId StudentId  `json:"authorId"`
	Content  string     `json:"content"`

	Reactions map[ReactionKind]int `json:"reactions"`

	HelpfulVotes         int  `json:"helpfulVotes"`
	HelpfulRewardAwarded bool `json:"helpfulRewardAwarded"` // transitions false->true once, never reset

	VerifiedAdvice        bool `json:"verifiedAdvice"`
	VerifiedRewardAwarded bool `json:"verifiedRewardAwarded"`

	CreatedAt time.Time `json:"createdAt"`
}

// CommentNode is a comment with its resolved replies, built from the flat arena.
type CommentNode struct {
	*Comment
	Replies []*CommentNode `json:"replies"`
}

// BuildCommentTree assembles the reply tree from the flat comment arena.
// Comments referencing a missing parent are attached at the top level
// rather than dropped.
func BuildCommentTree(comments []*Comment) []*CommentNode {
	nodes := make(map[CommentId]*CommentNode, len(comments))
	for _, c := range comments {
		nodes[c.Id] = &CommentNode{Comment: c}
	}

	var roots []*CommentNode
	for _, c := range comments {
		node := nodes[c.Id]
		if c.ParentId != nil {
			if parent, ok := nodes[*c.ParentId]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
