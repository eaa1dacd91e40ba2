// Package store holds the event collection behind an asynchronous CRUD
// interface. The in-memory Memory store and the HTTP Client are
// interchangeable implementations.
package store

import (
	"context"

	"hackwave/internal/model"
)

// Store is the event CRUD contract. Every returned event is an independent
// copy; callers may mutate it freely.
type Store interface {
	// List returns a snapshot of all events.
	List(ctx context.Context) ([]model.Event, error)
	// ListRecommended returns a snapshot of the recommendation collection.
	ListRecommended(ctx context.Context) ([]model.Event, error)
	// Create assigns a fresh identifier, stores the event and returns it.
	// It performs no validation.
	Create(ctx context.Context, fields model.Fields) (model.Event, error)
	// Update merges patch into the event with the given id. ok is false when
	// no such event exists, in which case nothing changes.
	Update(ctx context.Context, id string, patch model.Patch) (ev model.Event, ok bool, err error)
	// Delete removes the event with the given id. Unknown ids are not an error.
	Delete(ctx context.Context, id string) error
}
