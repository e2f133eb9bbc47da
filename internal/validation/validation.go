// Package validation turns untrusted input into normalised, bounded
// values. Every function collects all broken rules before returning and
// reports them as a *types.Error of kind VALIDATION_ERROR.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/records-api/internal/types"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report violations under the JSON / query parameter name instead of
	// the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Invalid wraps violations into a validation failure.
func Invalid(violations []types.Violation) *types.Error {
	return &types.Error{
		Kind:       types.KindValidation,
		Message:    "invalid input",
		Violations: violations,
	}
}

// ParseID parses a path identifier. Anything that is not a positive
// integer is an INVALID_ID failure.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, types.NewError(types.KindInvalidID, "invalid id: must be a positive integer")
	}
	return id, nil
}

// ParsePageQuery decodes page and limit from query parameters. When a
// value is not an integer the remaining rules are checked too so the
// caller gets the full list.
func ParsePageQuery(values url.Values) (types.PageRequest, error) {
	var bad []types.Violation
	req := types.PageRequest{
		Page:  parseInt(values, "page", &bad),
		Limit: parseInt(values, "limit", &bad),
	}
	if len(bad) == 0 {
		return req, nil
	}
	bad = append(bad, structViolations(req)...)
	return req, Invalid(bad)
}

// ParseSearchQuery decodes a search request from query parameters.
// Unknown parameters are ignored.
func ParseSearchQuery(values url.Values) (types.SearchRequest, error) {
	var bad []types.Violation
	req := types.SearchRequest{
		Search:    values.Get("search"),
		Name:      values.Get("name"),
		Email:     values.Get("email"),
		AgeMin:    parseInt(values, "ageMin", &bad),
		AgeMax:    parseInt(values, "ageMax", &bad),
		SortBy:    strings.TrimSpace(values.Get("sortBy")),
		SortOrder: strings.TrimSpace(values.Get("sortOrder")),
		Page:      parseInt(values, "page", &bad),
		Limit:     parseInt(values, "limit", &bad),
	}
	if len(bad) == 0 {
		return req, nil
	}
	bad = append(bad, structViolations(trimSearch(req))...)
	return req, Invalid(bad)
}

// Page bounds a page request and resolves defaults.
func Page(req types.PageRequest) (types.Page, error) {
	if bad := structViolations(req); len(bad) > 0 {
		return types.Page{}, Invalid(bad)
	}
	return resolvePage(req.Page, req.Limit), nil
}

// Search validates a search request, trims its strings and resolves the
// sort and pagination defaults.
//
// AgeMin greater than AgeMax is accepted; it yields an empty result.
func Search(req types.SearchRequest) (types.SearchQuery, error) {
	req = trimSearch(req)
	if bad := structViolations(req); len(bad) > 0 {
		return types.SearchQuery{}, Invalid(bad)
	}

	q := types.SearchQuery{
		Search:    req.Search,
		Name:      req.Name,
		Email:     req.Email,
		AgeMin:    req.AgeMin,
		AgeMax:    req.AgeMax,
		SortBy:    types.SortByCreatedAt,
		SortOrder: types.SortDesc,
		Page:      resolvePage(req.Page, req.Limit),
	}
	if req.SortBy != "" {
		q.SortBy = types.SortField(req.SortBy)
	}
	if req.SortOrder != "" {
		q.SortOrder = types.SortOrder(req.SortOrder)
	}
	return q, nil
}

// CreateRecord normalises and validates a create payload: the name is
// trimmed, the email trimmed and lowercased.
func CreateRecord(in types.CreateRecordInput) (types.CreateRecordInput, error) {
	in.Name = NormalizeName(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if bad := structViolations(in); len(bad) > 0 {
		return in, Invalid(bad)
	}
	return in, nil
}

// UpdateRecord normalises and validates the fields present in a partial
// update. Absent fields stay nil.
func UpdateRecord(in types.UpdateRecordInput) (types.UpdateRecordInput, error) {
	if in.Name != nil {
		name := NormalizeName(*in.Name)
		in.Name = &name
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		in.Email = &email
	}
	if bad := structViolations(in); len(bad) > 0 {
		return in, Invalid(bad)
	}
	return in, nil
}

func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimSearch(req types.SearchRequest) types.SearchRequest {
	req.Search = strings.TrimSpace(req.Search)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.SortBy = strings.TrimSpace(req.SortBy)
	req.SortOrder = strings.TrimSpace(req.SortOrder)
	return req
}

func resolvePage(page, limit *int) types.Page {
	p := types.Page{Page: types.DefaultPage, Limit: types.DefaultLimit}
	if page != nil {
		p.Page = *page
	}
	if limit != nil {
		p.Limit = *limit
	}
	return p
}

// parseInt returns nil when the parameter is absent or blank.
func parseInt(values url.Values, key string, bad *[]types.Violation) *int {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*bad = append(*bad, types.Violation{Field: key, Message: "must be an integer"})
		return nil
	}
	return &n
}

func structViolations(v any) []types.Violation {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []types.Violation{{Field: "", Message: err.Error()}}
	}

	out := make([]types.Violation, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		out = append(out, types.Violation{Field: e.Field(), Message: message(e)})
	}
	return out
}

func message(e validator.FieldError) string {
	isString := e.Kind() == reflect.String
	switch e.ActualTag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return fmt.Sprintf("must not exceed %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(e.Param(), " ", ", "))
	default:
		return "is invalid"
	}
}
