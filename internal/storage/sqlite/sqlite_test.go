package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/aanand-mishra/records-api/internal/query"
	"github.com/aanand-mishra/records-api/internal/storage"
	"github.com/aanand-mishra/records-api/internal/types"
)

type SQLiteStoreSuite struct {
	suite.Suite
	db  *SQLite
	ctx context.Context
}

func (s *SQLiteStoreSuite) SetupTest() {
	db, err := New(filepath.Join(s.T().TempDir(), "records.db"))
	s.Require().NoError(err)
	s.db = db
	s.ctx = context.Background()
}

func (s *SQLiteStoreSuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreSuite))
}

func (s *SQLiteStoreSuite) insert(name, email string, age int) types.Record {
	rec, err := s.db.Insert(s.ctx, types.RecordData{Name: name, Email: email, Age: age})
	s.Require().NoError(err)
	return rec
}

// TestInsertAndFindOne verifies assigned fields survive a round trip.
func (s *SQLiteStoreSuite) TestInsertAndFindOne() {
	rec := s.insert("Juan Pérez", "juan@example.com", 30)
	s.Positive(rec.ID)
	s.False(rec.CreatedAt.IsZero())
	s.True(rec.CreatedAt.Equal(rec.UpdatedAt))

	found, err := s.db.FindOne(s.ctx, query.Eq(query.FieldID, rec.ID))
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(rec.Name, found.Name)
	s.Equal(rec.Email, found.Email)
	s.Equal(rec.Age, found.Age)
	s.True(rec.CreatedAt.Equal(found.CreatedAt))

	missing, err := s.db.FindOne(s.ctx, query.Eq(query.FieldEmail, "nobody@example.com"))
	s.Require().NoError(err)
	s.Nil(missing)
}

// TestUniqueEmail verifies the store rejects duplicates on its own.
func (s *SQLiteStoreSuite) TestUniqueEmail() {
	s.insert("Juan", "juan@example.com", 30)

	_, err := s.db.Insert(s.ctx, types.RecordData{Name: "Other", Email: "juan@example.com", Age: 40})
	s.ErrorIs(err, storage.ErrDuplicateEmail)

	other := s.insert("Ana", "ana@example.com", 32)
	other.Email = "juan@example.com"
	_, err = s.db.Save(s.ctx, other)
	s.ErrorIs(err, storage.ErrDuplicateEmail)
}

// TestFindBySpecification verifies filtering, counting and paging.
func (s *SQLiteStoreSuite) TestFindBySpecification() {
	s.insert("Juan Pérez", "juan@example.com", 30)
	s.insert("María García", "maria@example.com", 25)
	s.insert("Carlos López", "carlos@test.org", 28)
	s.insert("Ana Martínez", "ana@example.com", 32)
	s.insert("Promo 100%", "promo@test.org", 40)

	s.Run("search and age range", func() {
		recs, total, err := s.db.FindBySpecification(s.ctx, query.Specification{
			Predicates: []query.Predicate{
				query.Or(query.Contains(query.FieldName, "JUAN"), query.Contains(query.FieldEmail, "test.org")),
				query.Gte(query.FieldAge, 28),
				query.Lte(query.FieldAge, 30),
			},
			Sort:  query.Sort{Field: query.FieldAge, Direction: types.SortAsc},
			Limit: 10,
		})
		s.Require().NoError(err)
		s.Equal(int64(2), total)
		s.Require().Len(recs, 2)
		s.Equal("carlos@test.org", recs[0].Email)
		s.Equal("juan@example.com", recs[1].Email)
	})

	s.Run("wildcards are literal", func() {
		recs, total, err := s.db.FindBySpecification(s.ctx, query.Specification{
			Predicates: []query.Predicate{query.Contains(query.FieldName, "%")},
			Sort:       query.DefaultSort,
			Limit:      10,
		})
		s.Require().NoError(err)
		s.Equal(int64(1), total)
		s.Require().Len(recs, 1)
		s.Equal("Promo 100%", recs[0].Name)
	})

	s.Run("pages keep the full total", func() {
		recs, total, err := s.db.FindPage(s.ctx, query.Sort{Field: query.FieldName, Direction: types.SortAsc}, 2, 2)
		s.Require().NoError(err)
		s.Equal(int64(5), total)
		s.Require().Len(recs, 2)
		s.Equal("Juan Pérez", recs[0].Name)
		s.Equal("María García", recs[1].Name)
	})

	n, err := s.db.CountAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(5), n)
}

// TestContainsFoldsUnicodeCase verifies contains matches fold non-ASCII
// letters the same way the memory store does.
func (s *SQLiteStoreSuite) TestContainsFoldsUnicodeCase() {
	s.insert("ÉMILE ZOLA", "emile@example.com", 62)
	s.insert("Ángel Ruiz", "angel@example.com", 40)
	s.insert("Emily Stone", "emily@example.com", 35)

	for term, want := range map[string]string{
		"émile": "ÉMILE ZOLA",
		"Émile": "ÉMILE ZOLA",
		"ÁNGEL": "Ángel Ruiz",
	} {
		recs, total, err := s.db.FindBySpecification(s.ctx, query.Specification{
			Predicates: []query.Predicate{query.Contains(query.FieldName, term)},
			Sort:       query.DefaultSort,
			Limit:      10,
		})
		s.Require().NoError(err, term)
		s.Equal(int64(1), total, term)
		s.Require().Len(recs, 1, term)
		s.Equal(want, recs[0].Name)
	}
}

// TestSaveAndRemove verifies updates and deletes.
func (s *SQLiteStoreSuite) TestSaveAndRemove() {
	rec := s.insert("Juan", "juan@example.com", 30)

	rec.Age = 31
	saved, err := s.db.Save(s.ctx, rec)
	s.Require().NoError(err)
	s.Equal(31, saved.Age)
	s.True(saved.CreatedAt.Equal(rec.CreatedAt))
	s.False(saved.UpdatedAt.Before(rec.UpdatedAt))

	s.Require().NoError(s.db.Remove(s.ctx, saved))
	s.Error(s.db.Remove(s.ctx, saved))

	_, err = s.db.Save(s.ctx, saved)
	s.Error(err)
}
