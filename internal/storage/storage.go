// Package storage defines the Storage interface, the contract any
// database backend must satisfy to hold records.
//
// The record service only depends on this interface. Backends execute
// query.Specification values; they never receive SQL or any other
// backend syntax from the layers above.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/records-api/internal/query"
	"github.com/aanand-mishra/records-api/internal/types"
)

// ErrDuplicateEmail is returned by Insert and Save when the backend
// itself rejects a second record with the same email.
var ErrDuplicateEmail = errors.New("storage: duplicate email")

//go:generate mockgen -source=storage.go -destination=mocks/mocks.go -package=mocks Storage

// Storage is the record store contract.
type Storage interface {
	// CountAll returns the number of stored records.
	CountAll(ctx context.Context) (int64, error)

	// FindPage returns one ordered page of all records plus the total
	// number of records.
	FindPage(ctx context.Context, sort query.Sort, offset, limit int) ([]types.Record, int64, error)

	// FindBySpecification returns one page of the records matching spec
	// plus the total number of matches.
	FindBySpecification(ctx context.Context, spec query.Specification) ([]types.Record, int64, error)

	// FindOne returns the first record matching pred, or nil when none does.
	FindOne(ctx context.Context, pred query.Predicate) (*types.Record, error)

	// Insert stores a new record, assigning its id and timestamps.
	Insert(ctx context.Context, data types.RecordData) (types.Record, error)

	// Save persists an existing record and refreshes its UpdatedAt.
	Save(ctx context.Context, rec types.Record) (types.Record, error)

	// Remove deletes a record.
	Remove(ctx context.Context, rec types.Record) error
}
