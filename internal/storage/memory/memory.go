// Package memory is an in-process implementation of storage.Storage.
//
// It is a dumb collaborator: it evaluates specifications but enforces no
// uniqueness of its own, so duplicate emails are only prevented by the
// record service check.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aanand-mishra/records-api/internal/query"
	"github.com/aanand-mishra/records-api/internal/types"
)

type Memory struct {
	mu      sync.RWMutex
	records map[int64]types.Record
	nextID  int64
	now     func() time.Time
}

// Option configures a Memory store.
type Option func(*Memory)

// WithClock replaces time.Now for assigned timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

func New(opts ...Option) *Memory {
	m := &Memory{
		records: make(map[int64]types.Record),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) CountAll(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.records)), nil
}

func (m *Memory) FindPage(ctx context.Context, s query.Sort, offset, limit int) ([]types.Record, int64, error) {
	return m.FindBySpecification(ctx, query.Specification{Sort: s, Offset: offset, Limit: limit})
}

func (m *Memory) FindBySpecification(_ context.Context, spec query.Specification) ([]types.Record, int64, error) {
	m.mu.RLock()
	matched := make([]types.Record, 0, len(m.records))
	for _, rec := range m.records {
		ok, err := matchAll(rec, spec.Predicates)
		if err != nil {
			m.mu.RUnlock()
			return nil, 0, err
		}
		if ok {
			matched = append(matched, rec)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return less(matched[i], matched[j], spec.Sort)
	})

	total := int64(len(matched))
	if spec.Offset >= len(matched) {
		return []types.Record{}, total, nil
	}
	end := len(matched)
	if spec.Limit > 0 && spec.Offset+spec.Limit < end {
		end = spec.Offset + spec.Limit
	}
	return matched[spec.Offset:end], total, nil
}

func (m *Memory) FindOne(_ context.Context, pred query.Predicate) (*types.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		rec := m.records[id]
		ok, err := match(rec, pred)
		if err != nil {
			return nil, err
		}
		if ok {
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *Memory) Insert(_ context.Context, data types.RecordData) (types.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := m.now().UTC()
	rec := types.Record{
		ID:        m.nextID,
		Name:      data.Name,
		Email:     data.Email,
		Age:       data.Age,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.records[rec.ID] = rec
	return rec, nil
}

func (m *Memory) Save(_ context.Context, rec types.Record) (types.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.records[rec.ID]
	if !ok {
		return types.Record{}, fmt.Errorf("Save: no record with id %d", rec.ID)
	}
	rec.CreatedAt = stored.CreatedAt
	rec.UpdatedAt = m.now().UTC()
	m.records[rec.ID] = rec
	return rec, nil
}

func (m *Memory) Remove(_ context.Context, rec types.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.ID]; !ok {
		return fmt.Errorf("Remove: no record with id %d", rec.ID)
	}
	delete(m.records, rec.ID)
	return nil
}

func matchAll(rec types.Record, preds []query.Predicate) (bool, error) {
	for _, p := range preds {
		ok, err := match(rec, p)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func match(rec types.Record, p query.Predicate) (bool, error) {
	if p.Operator == query.OpOr {
		for _, sub := range p.Any {
			ok, err := match(rec, sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	switch v := fieldValue(rec, p.Field).(type) {
	case string:
		want, ok := p.Value.(string)
		if !ok {
			return false, fmt.Errorf("memory: field %q needs a string value, got %T", p.Field, p.Value)
		}
		switch p.Operator {
		case query.OpContains:
			return strings.Contains(strings.ToLower(v), strings.ToLower(want)), nil
		case query.OpEq:
			return v == want, nil
		}
	case int64:
		want, ok := toInt64(p.Value)
		if !ok {
			return false, fmt.Errorf("memory: field %q needs an integer value, got %T", p.Field, p.Value)
		}
		switch p.Operator {
		case query.OpGte:
			return v >= want, nil
		case query.OpLte:
			return v <= want, nil
		case query.OpEq:
			return v == want, nil
		}
	case nil:
		return false, fmt.Errorf("memory: unknown field %q", p.Field)
	}
	return false, fmt.Errorf("memory: operator %q not supported on field %q", p.Operator, p.Field)
}

func fieldValue(rec types.Record, f query.Field) any {
	switch f {
	case query.FieldID:
		return rec.ID
	case query.FieldName:
		return rec.Name
	case query.FieldEmail:
		return rec.Email
	case query.FieldAge:
		return int64(rec.Age)
	case query.FieldCreatedAt:
		return rec.CreatedAt.UnixNano()
	case query.FieldUpdatedAt:
		return rec.UpdatedAt.UnixNano()
	}
	return nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	}
	return 0, false
}

func less(a, b types.Record, s query.Sort) bool {
	c := compare(a, b, s.Field)
	if c == 0 {
		c = compare(a, b, query.FieldID)
	}
	if s.Direction == types.SortAsc {
		return c < 0
	}
	return c > 0
}

func compare(a, b types.Record, f query.Field) int {
	switch av := fieldValue(a, f).(type) {
	case string:
		return strings.Compare(av, fieldValue(b, f).(string))
	case int64:
		bv := fieldValue(b, f).(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	}
	return 0
}
