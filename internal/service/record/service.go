// Package record implements the business rules for records: input
// validation, email uniqueness, partial updates and the shaping of
// results. Every operation returns a types.Result and never panics or
// leaks a store error to its caller.
package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aanand-mishra/records-api/internal/metrics"
	"github.com/aanand-mishra/records-api/internal/pagination"
	"github.com/aanand-mishra/records-api/internal/query"
	"github.com/aanand-mishra/records-api/internal/storage"
	"github.com/aanand-mishra/records-api/internal/types"
	"github.com/aanand-mishra/records-api/internal/validation"
)

const (
	opList    = "list"
	opSearch  = "search"
	opGetByID = "getById"
	opCreate  = "create"
	opUpdate  = "update"
	opDelete  = "delete"
)


// Service is the record service. It holds no mutable state of its own;
// one instance serves all requests concurrently.
type Service struct {
	store   storage.Storage
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New wires a Service. m may be nil to disable instrumentation.
func New(store storage.Storage, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, log: log, metrics: m}
}

// List returns one page of all records, newest first.
func (s *Service) List(ctx context.Context, req types.PageRequest) (res types.Result[types.PageResult[types.Record]]) {
	defer finish(s, opList, time.Now(), &res)

	page, err := validation.Page(req)
	if err != nil {
		return types.Fail[types.PageResult[types.Record]](asError(err))
	}

	records, total, err := s.store.FindPage(ctx, query.DefaultSort, page.Offset(), page.Limit)
	if err != nil {
		return types.Fail[types.PageResult[types.Record]](s.internal(opList, err))
	}

	meta := pagination.Paginate(total, page.Page, page.Limit)
	return types.Ok(
		types.PageResult[types.Record]{Data: records, Pagination: meta},
		fmt.Sprintf("found %d records (page %d of %d)", total, meta.Page, meta.TotalPages),
	)
}

// Search validates req, turns it into a query specification and returns
// the matching page together with the effective filters.
func (s *Service) Search(ctx context.Context, req types.SearchRequest) (res types.Result[types.SearchResult[types.Record]]) {
	defer finish(s, opSearch, time.Now(), &res)

	q, err := validation.Search(req)
	if err != nil {
		return types.Fail[types.SearchResult[types.Record]](asError(err))
	}

	records, total, err := s.store.FindBySpecification(ctx, query.Build(q))
	if err != nil {
		return types.Fail[types.SearchResult[types.Record]](s.internal(opSearch, err))
	}

	return types.Ok(
		types.SearchResult[types.Record]{
			Data:       records,
			Pagination: pagination.Paginate(total, q.Page.Page, q.Page.Limit),
			Filters: types.Filters{
				Search:    q.Search,
				Name:      q.Name,
				Email:     q.Email,
				AgeMin:    q.AgeMin,
				AgeMax:    q.AgeMax,
				SortBy:    q.SortBy,
				SortOrder: q.SortOrder,
			},
		},
		fmt.Sprintf("found %d records matching the filters", total),
	)
}

func (s *Service) GetByID(ctx context.Context, id int64) (res types.Result[types.Record]) {
	defer finish(s, opGetByID, time.Now(), &res)

	if id <= 0 {
		return types.Fail[types.Record](errInvalidID())
	}

	rec, err := s.store.FindOne(ctx, query.Eq(query.FieldID, id))
	if err != nil {
		return types.Fail[types.Record](s.internal(opGetByID, err))
	}
	if rec == nil {
		return types.Fail[types.Record](errNotFound())
	}
	return types.Ok(*rec, "record retrieved successfully")
}

// Create stores a new record after normalising it.
//
// The email check and the insert are two separate store calls. Two
// concurrent creates with the same email can both pass the check; the
// store's own constraint, where it has one, decides the winner and the
// loser is reported as an email conflict.
func (s *Service) Create(ctx context.Context, in types.CreateRecordInput) (res types.Result[types.Record]) {
	defer finish(s, opCreate, time.Now(), &res)

	in, err := validation.CreateRecord(in)
	if err != nil {
		return types.Fail[types.Record](asError(err))
	}

	existing, err := s.store.FindOne(ctx, query.Eq(query.FieldEmail, in.Email))
	if err != nil {
		return types.Fail[types.Record](s.internal(opCreate, err))
	}
	if existing != nil {
		return types.Fail[types.Record](emailConflict(in.Email))
	}

	rec, err := s.store.Insert(ctx, types.RecordData{Name: in.Name, Email: in.Email, Age: in.Age})
	if errors.Is(err, storage.ErrDuplicateEmail) {
		return types.Fail[types.Record](emailConflict(in.Email))
	}
	if err != nil {
		return types.Fail[types.Record](s.internal(opCreate, err))
	}

	s.log.Info("record created", slog.Int64("id", rec.ID))
	return types.Ok(rec, "record created successfully")
}

// Update merges the provided fields of in onto record id. Fields left nil
// are not touched. Like Create, the email check is not atomic with the
// write.
func (s *Service) Update(ctx context.Context, id int64, in types.UpdateRecordInput) (res types.Result[types.Record]) {
	defer finish(s, opUpdate, time.Now(), &res)

	if id <= 0 {
		return types.Fail[types.Record](errInvalidID())
	}
	if in.Empty() {
		return types.Fail[types.Record](errNoFields())
	}

	in, err := validation.UpdateRecord(in)
	if err != nil {
		return types.Fail[types.Record](asError(err))
	}

	rec, err := s.store.FindOne(ctx, query.Eq(query.FieldID, id))
	if err != nil {
		return types.Fail[types.Record](s.internal(opUpdate, err))
	}
	if rec == nil {
		return types.Fail[types.Record](errNotFound())
	}

	if in.Email != nil && *in.Email != rec.Email {
		other, err := s.store.FindOne(ctx, query.Eq(query.FieldEmail, *in.Email))
		if err != nil {
			return types.Fail[types.Record](s.internal(opUpdate, err))
		}
		if other != nil && other.ID != rec.ID {
			return types.Fail[types.Record](emailConflict(*in.Email))
		}
	}

	if in.Name != nil {
		rec.Name = *in.Name
	}
	if in.Email != nil {
		rec.Email = *in.Email
	}
	if in.Age != nil {
		rec.Age = *in.Age
	}

	saved, err := s.store.Save(ctx, *rec)
	if errors.Is(err, storage.ErrDuplicateEmail) {
		return types.Fail[types.Record](emailConflict(rec.Email))
	}
	if err != nil {
		return types.Fail[types.Record](s.internal(opUpdate, err))
	}

	s.log.Info("record updated", slog.Int64("id", saved.ID))
	return types.Ok(saved, "record updated successfully")
}

// Delete removes record id and returns it as it was before removal.
func (s *Service) Delete(ctx context.Context, id int64) (res types.Result[types.Record]) {
	defer finish(s, opDelete, time.Now(), &res)

	if id <= 0 {
		return types.Fail[types.Record](errInvalidID())
	}

	rec, err := s.store.FindOne(ctx, query.Eq(query.FieldID, id))
	if err != nil {
		return types.Fail[types.Record](s.internal(opDelete, err))
	}
	if rec == nil {
		return types.Fail[types.Record](errNotFound())
	}

	if err := s.store.Remove(ctx, *rec); err != nil {
		return types.Fail[types.Record](s.internal(opDelete, err))
	}

	s.log.Info("record deleted", slog.Int64("id", rec.ID))
	return types.Ok(*rec, "record deleted successfully")
}

// internal logs the real cause and returns an opaque failure.
func (s *Service) internal(op string, err error) *types.Error {
	s.log.Error("record store failure",
		slog.String("operation", op),
		slog.String("error", err.Error()))
	return types.NewError(types.KindInternal, "internal error while processing the request")
}

// finish turns a panic into an internal failure and records metrics.
// It must be deferred directly so recover sees the panic.
func finish[T any](s *Service, op string, started time.Time, res *types.Result[T]) {
	if r := recover(); r != nil {
		*res = types.Fail[T](s.internal(op, fmt.Errorf("panic: %v", r)))
	}
	if s.metrics == nil {
		return
	}
	result := "success"
	if !res.Success && res.Err != nil {
		result = string(res.Err.Kind)
	}
	s.metrics.Observe(op, result, started)
}

// The error constructors build a new value per call so callers may
// modify what they receive.

func errInvalidID() *types.Error {
	return types.NewError(types.KindInvalidID, "invalid record id")
}

func errNotFound() *types.Error {
	return types.NewError(types.KindNotFound, "record not found")
}

func errNoFields() *types.Error {
	return types.NewError(types.KindNoFieldsProvided, "no fields provided to update")
}

func emailConflict(email string) *types.Error {
	return types.NewError(types.KindEmailConflict, fmt.Sprintf("email %q is already registered", email))
}

func asError(err error) *types.Error {
	var e *types.Error
	if errors.As(err, &e) {
		return e
	}
	return types.NewError(types.KindValidation, err.Error())
}
