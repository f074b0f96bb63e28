package domain

import (
	"time"
)

type CrisisStatus string

const (
	CrisisOpen         CrisisStatus = "open"
	CrisisAcknowledged CrisisStatus = "acknowledged"
	CrisisResolved     CrisisStatus = "resolved"
)

// CrisisRequest is one entry in the support request list. The list is owned
// by the core but populated by events from the external sync channel, so a
// request can appear, change status or disappear without a local intent.
type CrisisRequest struct {
	Id        string       `json:"id"`
	StudentId StudentId    `json:"studentId"`
	PostId    PostId       `json:"postId,omitempty"`
	Severity  string       `json:"severity"`
	Status    CrisisStatus `json:"status"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
