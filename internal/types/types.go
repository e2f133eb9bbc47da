// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, the service, validation, query building and storage can all
// import types without depending on each other.
package types

import "time"

// Record is the single managed entity.
//
// ID, CreatedAt and UpdatedAt are assigned by the store. Email is kept
// lowercase and is unique across all records.
type Record struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecordData is the normalised payload handed to Store.Insert.
type RecordData struct {
	Name  string
	Email string
	Age   int
}

// CreateRecordInput is the request body for creating a record.
type CreateRecordInput struct {
	Name  string `json:"name"  validate:"required,min=2,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
	Age   int    `json:"age"   validate:"required,min=1,max=120"`
}

// UpdateRecordInput is a partial update. A nil field was not provided and
// must be left untouched on the stored record.
type UpdateRecordInput struct {
	Name  *string `json:"name,omitempty"  validate:"omitempty,min=2,max=255"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Age   *int    `json:"age,omitempty"   validate:"omitempty,min=1,max=120"`
}

// Empty reports whether no field was provided.
func (u UpdateRecordInput) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Age == nil
}

// SortField is a column a listing may be ordered by.
type SortField string

const (
	SortByName      SortField = "name"
	SortByEmail     SortField = "email"
	SortByAge       SortField = "age"
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// Pagination defaults and bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage is the largest integer a JSON number carries exactly. It
	// keeps (MaxPage-1)*MaxLimit inside int64.
	MaxPage = 1<<53 - 1
)

// PageRequest is the unvalidated pagination input of a listing.
// Nil means "not supplied".
type PageRequest struct {
	Page  *int `json:"page"  validate:"omitempty,min=1,max=9007199254740991"`
	Limit *int `json:"limit" validate:"omitempty,min=1,max=100"`
}

// Page is a validated page window.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the number of records skipped before this page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// SearchRequest is the unvalidated input of an advanced search.
// String fields are trimmed during validation; an empty string after
// trimming counts as absent.
type SearchRequest struct {
	Search    string `json:"search"    validate:"max=255"`
	Name      string `json:"name"      validate:"max=255"`
	Email     string `json:"email"     validate:"omitempty,email,max=255"`
	AgeMin    *int   `json:"ageMin"    validate:"omitempty,min=1,max=120"`
	AgeMax    *int   `json:"ageMax"    validate:"omitempty,min=1,max=120"`
	SortBy    string `json:"sortBy"    validate:"omitempty,oneof=name email age createdAt updatedAt"`
	SortOrder string `json:"sortOrder" validate:"omitempty,oneof=ASC DESC"`
	Page      *int   `json:"page"      validate:"omitempty,min=1,max=9007199254740991"`
	Limit     *int   `json:"limit"     validate:"omitempty,min=1,max=100"`
}

// SearchQuery is a SearchRequest after validation: trimmed, bounded and
// with defaults resolved.
type SearchQuery struct {
	Search    string
	Name      string
	Email     string
	AgeMin    *int
	AgeMax    *int
	SortBy    SortField
	SortOrder SortOrder
	Page      Page
}

// Filters echoes the effective search parameters back to the caller.
type Filters struct {
	Search    string    `json:"search,omitempty"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	AgeMin    *int      `json:"ageMin,omitempty"`
	AgeMax    *int      `json:"ageMax,omitempty"`
	SortBy    SortField `json:"sortBy"`
	SortOrder SortOrder `json:"sortOrder"`
}

// Pagination is the page metadata of a PageResult.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// PageResult is one page of items plus its metadata.
type PageResult[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// SearchResult is a PageResult that also echoes the resolved filters.
type SearchResult[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
	Filters    Filters    `json:"filters"`
}
