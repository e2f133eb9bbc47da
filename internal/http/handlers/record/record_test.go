package record

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	recordservice "github.com/aanand-mishra/records-api/internal/service/record"
	"github.com/aanand-mishra/records-api/internal/storage/memory"
	"github.com/aanand-mishra/records-api/internal/types"
)

// envelope mirrors response.Envelope with Data left raw.
type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Code    types.ErrorKind   `json:"code"`
	Error   string            `json:"error"`
	Details []types.Violation `json:"details"`
}

type RecordHandlersSuite struct {
	suite.Suite
	router http.Handler
}

func (s *RecordHandlersSuite) SetupTest() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := recordservice.New(memory.New(), log, nil)

	r := chi.NewRouter()
	Register(r, svc, log)
	s.router = r
}

func TestRecordHandlersSuite(t *testing.T) {
	suite.Run(t, new(RecordHandlersSuite))
}

// do sends one request and decodes the envelope.
func (s *RecordHandlersSuite) do(method, target, body string) (int, envelope) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal("application/json", rec.Header().Get("Content-Type"))
	var env envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (s *RecordHandlersSuite) create(body string) types.Record {
	code, env := s.do(http.MethodPost, "/api/records", body)
	s.Require().Equal(http.StatusCreated, code, env.Error)
	var rec types.Record
	s.Require().NoError(json.Unmarshal(env.Data, &rec))
	return rec
}

// TestCreateAndGet verifies the success envelope and status codes.
func (s *RecordHandlersSuite) TestCreateAndGet() {
	created := s.create(`{"name":"  Juan Pérez ","email":"Juan@Example.com","age":30}`)
	s.Equal("Juan Pérez", created.Name)
	s.Equal("juan@example.com", created.Email)

	code, env := s.do(http.MethodGet, "/api/records/1", "")
	s.Equal(http.StatusOK, code)
	s.True(env.Success)
	s.Equal("record retrieved successfully", env.Message)
	s.Empty(env.Code)

	var got map[string]any
	s.Require().NoError(json.Unmarshal(env.Data, &got))
	s.Equal("juan@example.com", got["email"])
	s.Contains(got, "createdAt")
	s.Contains(got, "updatedAt")
}

// TestCreateFailures verifies body and rule failures map to 400 and 409.
func (s *RecordHandlersSuite) TestCreateFailures() {
	s.create(`{"name":"Juan","email":"juan@example.com","age":30}`)

	cases := []struct {
		name    string
		body    string
		status  int
		kind    types.ErrorKind
		details []types.Violation
	}{
		{
			name:   "duplicate email",
			body:   `{"name":"Other","email":"JUAN@example.com","age":40}`,
			status: http.StatusConflict,
			kind:   types.KindEmailConflict,
		},
		{
			name:   "broken rules",
			body:   `{"name":"J","email":"nope","age":121}`,
			status: http.StatusBadRequest,
			kind:   types.KindValidation,
			details: []types.Violation{
				{Field: "name", Message: "must be at least 2 characters"},
				{Field: "email", Message: "must be a valid email address"},
				{Field: "age", Message: "must not exceed 120"},
			},
		},
		{
			name:    "malformed json",
			body:    `{"name":`,
			status:  http.StatusBadRequest,
			kind:    types.KindValidation,
			details: []types.Violation{{Field: "body", Message: "malformed JSON"}},
		},
		{
			name:    "two values",
			body:    `{"name":"Ann","email":"ann@example.com","age":30} {"name":"Bob"}`,
			status:  http.StatusBadRequest,
			kind:    types.KindValidation,
			details: []types.Violation{{Field: "body", Message: "malformed JSON"}},
		},
		{
			name:    "wrong type",
			body:    `{"name":"Juan","email":"j@example.com","age":"thirty"}`,
			status:  http.StatusBadRequest,
			kind:    types.KindValidation,
			details: []types.Violation{{Field: "age", Message: "has the wrong type"}},
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			code, env := s.do(http.MethodPost, "/api/records", tc.body)
			s.Equal(tc.status, code)
			s.False(env.Success)
			s.Equal(tc.kind, env.Code)
			s.NotEmpty(env.Error)
			s.Empty(env.Data)
			if tc.details != nil {
				s.ElementsMatch(tc.details, env.Details)
			}
		})
	}

	s.Run("empty body", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/records", http.NoBody)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusBadRequest, rec.Code)
		var env envelope
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
		s.Equal(types.KindValidation, env.Code)
		s.Equal([]types.Violation{{Field: "body", Message: "request body is empty"}}, env.Details)
	})
}

// TestIDParsing verifies bad ids are rejected before the service runs.
func (s *RecordHandlersSuite) TestIDParsing() {
	for _, target := range []string{"/api/records/abc", "/api/records/0", "/api/records/-2"} {
		code, env := s.do(http.MethodGet, target, "")
		s.Equal(http.StatusBadRequest, code, target)
		s.Equal(types.KindInvalidID, env.Code, target)
	}

	code, env := s.do(http.MethodDelete, "/api/records/1.5", "")
	s.Equal(http.StatusBadRequest, code)
	s.Equal(types.KindInvalidID, env.Code)

	code, env = s.do(http.MethodGet, "/api/records/999", "")
	s.Equal(http.StatusNotFound, code)
	s.Equal(types.KindNotFound, env.Code)
}

// TestList verifies paging parameters and metadata.
func (s *RecordHandlersSuite) TestList() {
	s.create(`{"name":"Juan","email":"juan@example.com","age":30}`)
	s.create(`{"name":"Ana","email":"ana@example.com","age":32}`)
	s.create(`{"name":"Luis","email":"luis@example.com","age":27}`)

	code, env := s.do(http.MethodGet, "/api/records?page=2&limit=2", "")
	s.Require().Equal(http.StatusOK, code)

	var page types.PageResult[types.Record]
	s.Require().NoError(json.Unmarshal(env.Data, &page))
	s.Len(page.Data, 1)
	s.Equal(types.Pagination{Page: 2, Limit: 2, Total: 3, TotalPages: 2, HasNext: false, HasPrev: true}, page.Pagination)

	s.Run("out of range", func() {
		code, env := s.do(http.MethodGet, "/api/records?page=0&limit=101", "")
		s.Equal(http.StatusBadRequest, code)
		s.Equal(types.KindValidation, env.Code)
		s.Len(env.Details, 2)
	})

	s.Run("not an integer", func() {
		code, env := s.do(http.MethodGet, "/api/records?limit=ten", "")
		s.Equal(http.StatusBadRequest, code)
		s.Equal([]types.Violation{{Field: "limit", Message: "must be an integer"}}, env.Details)
	})

	s.Run("page past the end has an empty array", func() {
		code, env := s.do(http.MethodGet, "/api/records?page=9", "")
		s.Equal(http.StatusOK, code)
		var raw map[string]json.RawMessage
		s.Require().NoError(json.Unmarshal(env.Data, &raw))
		s.JSONEq(`[]`, string(raw["data"]))
	})
}

// TestSearch verifies filters are applied and echoed.
func (s *RecordHandlersSuite) TestSearch() {
	s.create(`{"name":"Juan Pérez","email":"juan@example.com","age":30}`)
	s.create(`{"name":"María García","email":"maria@example.com","age":25}`)
	s.create(`{"name":"Pedro Fernández","email":"pedro@test.org","age":35}`)

	code, env := s.do(http.MethodGet, "/api/records/search?ageMin=25&ageMax=30&sortBy=age&sortOrder=ASC", "")
	s.Require().Equal(http.StatusOK, code)

	var res types.SearchResult[types.Record]
	s.Require().NoError(json.Unmarshal(env.Data, &res))
	s.Require().Len(res.Data, 2)
	s.Equal("María García", res.Data[0].Name)
	s.Equal("Juan Pérez", res.Data[1].Name)

	var raw struct {
		Filters json.RawMessage `json:"filters"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &raw))
	s.JSONEq(`{"ageMin":25,"ageMax":30,"sortBy":"age","sortOrder":"ASC"}`, string(raw.Filters))

	s.Run("free text", func() {
		code, env := s.do(http.MethodGet, "/api/records/search?search=TEST.ORG", "")
		s.Require().Equal(http.StatusOK, code)
		var res types.SearchResult[types.Record]
		s.Require().NoError(json.Unmarshal(env.Data, &res))
		s.Require().Len(res.Data, 1)
		s.Equal("pedro@test.org", res.Data[0].Email)
	})

	s.Run("bad sort", func() {
		code, env := s.do(http.MethodGet, "/api/records/search?sortBy=password&sortOrder=asc", "")
		s.Equal(http.StatusBadRequest, code)
		s.Len(env.Details, 2)
	})
}

// TestUpdate verifies PUT and PATCH semantics.
func (s *RecordHandlersSuite) TestUpdate() {
	juan := s.create(`{"name":"Juan","email":"juan@example.com","age":30}`)
	s.create(`{"name":"Ana","email":"ana@example.com","age":32}`)

	s.Run("empty object", func() {
		code, env := s.do(http.MethodPut, "/api/records/1", `{}`)
		s.Equal(http.StatusBadRequest, code)
		s.Equal(types.KindNoFieldsProvided, env.Code)
	})

	s.Run("no body", func() {
		req := httptest.NewRequest(http.MethodPatch, "/api/records/1", http.NoBody)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), string(types.KindNoFieldsProvided))
	})

	s.Run("trailing bytes", func() {
		code, env := s.do(http.MethodPatch, "/api/records/1", `{"name":"Ann"} garbage`)
		s.Equal(http.StatusBadRequest, code)
		s.Equal([]types.Violation{{Field: "body", Message: "malformed JSON"}}, env.Details)

		code, env = s.do(http.MethodGet, "/api/records/1", "")
		s.Require().Equal(http.StatusOK, code)
		var rec types.Record
		s.Require().NoError(json.Unmarshal(env.Data, &rec))
		s.Equal("Juan", rec.Name)
	})

	s.Run("trailing whitespace", func() {
		code, _ := s.do(http.MethodPatch, "/api/records/1", "{\"age\":30}\n\t ")
		s.Equal(http.StatusOK, code)
	})

	s.Run("partial", func() {
		code, env := s.do(http.MethodPatch, "/api/records/1", `{"age":31}`)
		s.Require().Equal(http.StatusOK, code)
		var rec types.Record
		s.Require().NoError(json.Unmarshal(env.Data, &rec))
		s.Equal(31, rec.Age)
		s.Equal(juan.Name, rec.Name)
		s.Equal(juan.Email, rec.Email)
	})

	s.Run("conflict", func() {
		code, env := s.do(http.MethodPut, "/api/records/1", `{"email":"ana@example.com"}`)
		s.Equal(http.StatusConflict, code)
		s.Equal(types.KindEmailConflict, env.Code)
	})

	s.Run("missing", func() {
		code, env := s.do(http.MethodPut, "/api/records/42", `{"age":31}`)
		s.Equal(http.StatusNotFound, code)
		s.Equal(types.KindNotFound, env.Code)
	})
}

// TestDelete verifies the removed record is echoed.
func (s *RecordHandlersSuite) TestDelete() {
	created := s.create(`{"name":"Juan","email":"juan@example.com","age":30}`)

	code, env := s.do(http.MethodDelete, "/api/records/1", "")
	s.Require().Equal(http.StatusOK, code)
	var rec types.Record
	s.Require().NoError(json.Unmarshal(env.Data, &rec))
	s.Equal(created.ID, rec.ID)
	s.Equal(created.Email, rec.Email)

	code, _ = s.do(http.MethodDelete, "/api/records/1", "")
	s.Equal(http.StatusNotFound, code)
}
