package service

import (
	"context"
	"time"
)

// Snapshots is the persistence surface consumed by the services. Implemented
// by storage/kv; saves overwrite the whole namespace snapshot.
type Snapshots interface {
	Save(namespace string, value any) error
	Load(namespace string, out any) (bool, error)
	Delete(namespace string) error
}

// Settler performs the external settlement call backing a claim.
// A settlement error leaves the ledger untouched.
type Settler interface {
	Settle(ctx context.Context, amount int64) error
}

// AlwaysSettle is the default settler; settlement always succeeds.
type AlwaysSettle struct{}

func (AlwaysSettle) Settle(ctx context.Context, amount int64) error { return nil }

// Clock is an injected time source for deterministic tests.
type Clock func() time.Time

// SystemClock reads the wall clock.
func SystemClock() time.Time { return time.Now() }
