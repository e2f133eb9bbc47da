// Package query describes what a search wants without saying how a
// backend should run it. A Specification is a list of typed predicates,
// one sort directive and a page window; stores translate it into their
// own syntax.
package query

import "github.com/aanand-mishra/records-api/internal/types"

// Field names a record attribute a predicate or sort can refer to.
type Field string

const (
	FieldID        Field = "id"
	FieldName      Field = "name"
	FieldEmail     Field = "email"
	FieldAge       Field = "age"
	FieldCreatedAt Field = "createdAt"
	FieldUpdatedAt Field = "updatedAt"
)

// Operator selects the predicate variant.
type Operator string

const (
	// OpContains is a case-insensitive substring match on a string field.
	OpContains Operator = "contains"
	// OpGte and OpLte are inclusive bounds on a numeric field.
	OpGte Operator = "gte"
	OpLte Operator = "lte"
	// OpEq is exact equality.
	OpEq Operator = "eq"
	// OpOr holds a group of predicates of which at least one must match.
	OpOr Operator = "or"
)

// Predicate is one filter condition. For OpOr only Any is set; for every
// other operator Field and Value are set.
type Predicate struct {
	Field    Field
	Operator Operator
	Value    any
	Any      []Predicate
}

func Contains(field Field, s string) Predicate {
	return Predicate{Field: field, Operator: OpContains, Value: s}
}

func Gte(field Field, n int) Predicate {
	return Predicate{Field: field, Operator: OpGte, Value: n}
}

func Lte(field Field, n int) Predicate {
	return Predicate{Field: field, Operator: OpLte, Value: n}
}

func Eq(field Field, v any) Predicate {
	return Predicate{Field: field, Operator: OpEq, Value: v}
}

func Or(preds ...Predicate) Predicate {
	return Predicate{Operator: OpOr, Any: preds}
}

// Sort is a single ordering directive. Stores break ties on id in the
// same direction so pages are stable.
type Sort struct {
	Field     Field
	Direction types.SortOrder
}

// DefaultSort is the order used by plain listings.
var DefaultSort = Sort{Field: FieldCreatedAt, Direction: types.SortDesc}

// Specification is the backend-agnostic form of a search. Predicates are
// combined with AND.
type Specification struct {
	Predicates []Predicate
	Sort       Sort
	Offset     int
	Limit      int
}

// Build converts a validated search query into a Specification.
//
// The free-text term becomes an OR group over name and email. Name and
// email filters each add a contains predicate, and the age bounds add
// inclusive range predicates. Everything at the top level is ANDed, so an
// inverted age range matches nothing.
func Build(q types.SearchQuery) Specification {
	var preds []Predicate

	if q.Search != "" {
		preds = append(preds, Or(
			Contains(FieldName, q.Search),
			Contains(FieldEmail, q.Search),
		))
	}
	if q.Name != "" {
		preds = append(preds, Contains(FieldName, q.Name))
	}
	if q.Email != "" {
		preds = append(preds, Contains(FieldEmail, q.Email))
	}
	if q.AgeMin != nil {
		preds = append(preds, Gte(FieldAge, *q.AgeMin))
	}
	if q.AgeMax != nil {
		preds = append(preds, Lte(FieldAge, *q.AgeMax))
	}

	return Specification{
		Predicates: preds,
		Sort:       Sort{Field: SortField(q.SortBy), Direction: q.SortOrder},
		Offset:     q.Page.Offset(),
		Limit:      q.Page.Limit,
	}
}

// SortField maps an allowed sort name onto a Field.
func SortField(f types.SortField) Field {
	switch f {
	case types.SortByName:
		return FieldName
	case types.SortByEmail:
		return FieldEmail
	case types.SortByAge:
		return FieldAge
	case types.SortByUpdatedAt:
		return FieldUpdatedAt
	default:
		return FieldCreatedAt
	}
}
