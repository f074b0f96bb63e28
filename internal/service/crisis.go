package service

import (
	"github.com/hushcampus-dev/hushcampus/internal/domain"
)

type CrisisEventKind string

const (
	CrisisEventCreated CrisisEventKind = "created"
	CrisisEventUpdated CrisisEventKind = "updated"
	CrisisEventDeleted CrisisEventKind = "deleted"
)

// CrisisEvent is one push from the cross-client request sync channel.
type CrisisEvent struct {
	Kind    CrisisEventKind
	Request domain.CrisisRequest
}

// CrisisQueue is the external request sync channel, consumed at its
// boundary. The store publishes locally detected requests through Create and
// merges subscribed events into its own persisted request list, so the list
// converges regardless of which client originated a change.
type CrisisQueue interface {
	Create(req domain.CrisisRequest) error
	Update(req domain.CrisisRequest) error
	Delete(id string) error
	Subscribe(fn func(CrisisEvent))
}
