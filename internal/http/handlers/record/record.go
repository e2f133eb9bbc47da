// Package record contains the HTTP handlers of the record resource.
//
// Each handler is built by a factory that receives the service and
// returns the http.HandlerFunc the router needs:
//
//	r.Get("/api/records/{id}", record.GetByID(svc, log))
//
// Handlers only decode transport input and encode results; every
// business rule lives in the service.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aanand-mishra/records-api/internal/types"
	"github.com/aanand-mishra/records-api/internal/utils/response"
	"github.com/aanand-mishra/records-api/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Service is what the handlers need from the record service.
type Service interface {
	List(ctx context.Context, req types.PageRequest) types.Result[types.PageResult[types.Record]]
	Search(ctx context.Context, req types.SearchRequest) types.Result[types.SearchResult[types.Record]]
	GetByID(ctx context.Context, id int64) types.Result[types.Record]
	Create(ctx context.Context, in types.CreateRecordInput) types.Result[types.Record]
	Update(ctx context.Context, id int64, in types.UpdateRecordInput) types.Result[types.Record]
	Delete(ctx context.Context, id int64) types.Result[types.Record]
}

// Register mounts the record routes on r.
//
//	GET    /api/records         list, paginated
//	GET    /api/records/search  advanced search
//	GET    /api/records/{id}    one record
//	POST   /api/records         create
//	PUT    /api/records/{id}    partial update (PATCH too)
//	DELETE /api/records/{id}    delete
func Register(r chi.Router, svc Service, log *slog.Logger) {
	r.Route("/api/records", func(r chi.Router) {
		r.Get("/", List(svc, log))
		r.Post("/", New(svc, log))
		r.Get("/search", Search(svc, log))
		r.Get("/{id}", GetByID(svc, log))
		r.Put("/{id}", Update(svc, log))
		r.Patch("/{id}", Update(svc, log))
		r.Delete("/{id}", Delete(svc, log))
	})
}

// List handles GET /api/records?page=&limit=
func List(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("listing records", slog.String("query", r.URL.RawQuery))

		req, err := validation.ParsePageQuery(r.URL.Query())
		if err != nil {
			writeErr(w, log, err)
			return
		}
		logWrite(log, response.WriteResult(w, http.StatusOK, svc.List(r.Context(), req)))
	}
}

// Search handles GET /api/records/search with search, name, email,
// ageMin, ageMax, sortBy, sortOrder, page and limit parameters.
func Search(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("searching records", slog.String("query", r.URL.RawQuery))

		req, err := validation.ParseSearchQuery(r.URL.Query())
		if err != nil {
			writeErr(w, log, err)
			return
		}
		logWrite(log, response.WriteResult(w, http.StatusOK, svc.Search(r.Context(), req)))
	}
}

// GetByID handles GET /api/records/{id}
func GetByID(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validation.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			writeErr(w, log, err)
			return
		}
		logWrite(log, response.WriteResult(w, http.StatusOK, svc.GetByID(r.Context(), id)))
	}
}

// New handles POST /api/records
//
//	{ "name": "Ana", "email": "ana@example.com", "age": 32 }
//
// Responds 201 with the stored record.
func New(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in types.CreateRecordInput
		if err := decode(w, r, &in); err != nil {
			if errors.Is(err, io.EOF) {
				err = validation.Invalid([]types.Violation{{Field: "body", Message: "request body is empty"}})
			}
			writeErr(w, log, err)
			return
		}
		logWrite(log, response.WriteResult(w, http.StatusCreated, svc.Create(r.Context(), in)))
	}
}

// Update handles PUT and PATCH /api/records/{id}. Only the fields present
// in the body are changed; an empty body is reported as no fields.
func Update(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validation.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			writeErr(w, log, err)
			return
		}

		var in types.UpdateRecordInput
		if err := decode(w, r, &in); err != nil && !errors.Is(err, io.EOF) {
			writeErr(w, log, err)
			return
		}
		logWrite(log, response.WriteResult(w, http.StatusOK, svc.Update(r.Context(), id, in)))
	}
}

// Delete handles DELETE /api/records/{id} and echoes the removed record.
func Delete(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validation.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			writeErr(w, log, err)
			return
		}
		logWrite(log, response.WriteResult(w, http.StatusOK, svc.Delete(r.Context(), id)))
	}
}

// decode reads a single JSON value from the body into dst. Unknown fields
// are ignored. io.EOF is returned untouched for an empty body; other
// failures, including anything after the value, become validation errors.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return err
	}
	if err == nil {
		if extra := dec.Decode(&json.RawMessage{}); !errors.Is(extra, io.EOF) {
			return validation.Invalid([]types.Violation{{Field: "body", Message: "malformed JSON"}})
		}
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return validation.Invalid([]types.Violation{{Field: typeErr.Field, Message: "has the wrong type"}})
	}
	return validation.Invalid([]types.Violation{{Field: "body", Message: "malformed JSON"}})
}

func writeErr(w http.ResponseWriter, log *slog.Logger, err error) {
	var e *types.Error
	if !errors.As(err, &e) {
		e = types.NewError(types.KindInternal, "internal error while processing the request")
	}
	logWrite(log, response.WriteError(w, e))
}

// logWrite logs a failure to encode the response; the status is already
// sent by then.
func logWrite(log *slog.Logger, err error) {
	if err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}
