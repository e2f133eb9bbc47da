package sqlstore

import (
	"fmt"
	"strings"

	"github.com/aanand-mishra/records-api/internal/query"
	"github.com/aanand-mishra/records-api/internal/types"
)

// columns is the allow-list of fields a specification may reference.
// Anything else is rejected before SQL is produced.
var columns = map[query.Field]string{
	query.FieldID:        "id",
	query.FieldName:      "name",
	query.FieldEmail:     "email",
	query.FieldAge:       "age",
	query.FieldCreatedAt: "created_at",
	query.FieldUpdatedAt: "updated_at",
}

// likeEscaper escapes LIKE wildcards so a search term is matched literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// builder accumulates bind arguments while rendering clauses, numbering
// placeholders through the dialect.
type builder struct {
	dialect Dialect
	args    []any
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// where renders the AND of preds. It returns "" when preds is empty.
func (b *builder) where(preds []query.Predicate) (string, error) {
	if len(preds) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		clause, err := b.predicate(p)
		if err != nil {
			return "", err
		}
		parts = append(parts, clause)
	}
	return " WHERE " + strings.Join(parts, " AND "), nil
}

func (b *builder) predicate(p query.Predicate) (string, error) {
	if p.Operator == query.OpOr {
		if len(p.Any) == 0 {
			return "", fmt.Errorf("sqlstore: empty or-group")
		}
		parts := make([]string, 0, len(p.Any))
		for _, sub := range p.Any {
			clause, err := b.predicate(sub)
			if err != nil {
				return "", err
			}
			parts = append(parts, clause)
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	}

	col, ok := columns[p.Field]
	if !ok {
		return "", fmt.Errorf("sqlstore: unknown field %q", p.Field)
	}

	switch p.Operator {
	case query.OpContains:
		s, ok := p.Value.(string)
		if !ok {
			return "", fmt.Errorf("sqlstore: contains on %q needs a string, got %T", p.Field, p.Value)
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
		return fmt.Sprintf(`%s(%s) LIKE %s ESCAPE '\'`, b.dialect.lower(), col, b.bind(pattern)), nil
	case query.OpGte:
		return fmt.Sprintf("%s >= %s", col, b.bind(p.Value)), nil
	case query.OpLte:
		return fmt.Sprintf("%s <= %s", col, b.bind(p.Value)), nil
	case query.OpEq:
		return fmt.Sprintf("%s = %s", col, b.bind(p.Value)), nil
	}
	return "", fmt.Errorf("sqlstore: unsupported operator %q", p.Operator)
}

// orderBy renders the sort directive with an id tiebreak.
func orderBy(s query.Sort) (string, error) {
	col, ok := columns[s.Field]
	if !ok {
		return "", fmt.Errorf("sqlstore: unknown sort field %q", s.Field)
	}
	var dir string
	switch s.Direction {
	case types.SortAsc:
		dir = "ASC"
	case types.SortDesc:
		dir = "DESC"
	default:
		return "", fmt.Errorf("sqlstore: unknown sort direction %q", s.Direction)
	}
	if col == "id" {
		return fmt.Sprintf(" ORDER BY id %s", dir), nil
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir), nil
}

// selectQuery renders the page query and the matching count query for spec.
func selectQuery(d Dialect, spec query.Specification) (page string, pageArgs []any, count string, countArgs []any, err error) {
	b := &builder{dialect: d}
	where, err := b.where(spec.Predicates)
	if err != nil {
		return "", nil, "", nil, err
	}
	countArgs = append([]any(nil), b.args...)
	count = "SELECT COUNT(*) FROM records" + where

	order, err := orderBy(spec.Sort)
	if err != nil {
		return "", nil, "", nil, err
	}
	page = "SELECT " + recordColumns + " FROM records" + where + order +
		fmt.Sprintf(" LIMIT %s OFFSET %s", b.bind(spec.Limit), b.bind(spec.Offset))
	return page, b.args, count, countArgs, nil
}
