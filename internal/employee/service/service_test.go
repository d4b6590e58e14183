package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,BatchWriter,BaselineStore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"personnel/internal/employee/baseline"
	"personnel/internal/employee/models"
	"personnel/internal/employee/service/mocks"
	dErrors "personnel/pkg/domain-errors"
	"personnel/pkg/platform/sentinel"
)

// =============================================================================
// Employee Service Test Suite
// =============================================================================
// Unit tests cover orchestration against a mocked Store: chunk boundaries,
// ordering, failure propagation and baseline bookkeeping.

type ServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockStore    *mocks.MockStore
	mockBaseline *mocks.MockBaselineStore
	service      *Service
	now          time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockBaseline = mocks.NewMockBaselineStore(s.ctrl)
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var err error
	s.service, err = New(s.mockStore,
		WithLogger(logger),
		WithBaseline(s.mockBaseline),
		WithRunID("run-1"),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func records(n int) []models.Employee {
	out := make([]models.Employee, n)
	for i := range out {
		out[i] = models.Employee{
			FullName:    "Smith John James",
			DateOfBirth: time.Date(1980, time.January, 1+i, 0, 0, 0, 0, time.UTC),
			Gender:      models.GenderMale,
		}
	}
	return out
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *ServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.Error(err)
		s.Contains(err.Error(), "employee store is required")
	})

	s.Run("store doubles as batch writer by default", func() {
		svc, err := New(s.mockStore)
		s.Require().NoError(err)
		s.Equal(s.mockStore, svc.writer)
		s.Nil(svc.baseline)
	})

	s.Run("with options applies options", func() {
		writer := mocks.NewMockBatchWriter(s.ctrl)
		svc, err := New(s.mockStore, WithBatchWriter(writer), WithRunID("abc"))
		s.Require().NoError(err)
		s.Equal(writer, svc.writer)
		s.Equal("abc", svc.runID)
	})
}

// =============================================================================
// BulkInsert Tests
// =============================================================================

func (s *ServiceSuite) TestBulkInsert() {
	ctx := context.Background()

	s.Run("splits into ceil(N/b) contiguous chunks in order", func() {
		input := records(10)
		var got [][]models.Employee
		capture := func(_ context.Context, chunk []models.Employee) error {
			got = append(got, chunk)
			return nil
		}
		gomock.InOrder(
			s.mockStore.EXPECT().InsertBatch(gomock.Any(), gomock.Len(4)).DoAndReturn(capture),
			s.mockStore.EXPECT().InsertBatch(gomock.Any(), gomock.Len(4)).DoAndReturn(capture),
			s.mockStore.EXPECT().InsertBatch(gomock.Any(), gomock.Len(2)).DoAndReturn(capture),
		)

		var progress [][2]int
		res, err := s.service.BulkInsert(ctx, input, 4, func(persisted, total int) {
			progress = append(progress, [2]int{persisted, total})
		})

		s.Require().NoError(err)
		s.Equal(3, res.Chunks)
		s.Equal(10, res.Persisted)
		s.Equal([][2]int{{4, 10}, {8, 10}, {10, 10}}, progress)

		var flat []models.Employee
		for _, chunk := range got {
			flat = append(flat, chunk...)
		}
		s.Equal(input, flat)
	})

	s.Run("batch larger than input is a single chunk", func() {
		s.mockStore.EXPECT().InsertBatch(gomock.Any(), gomock.Len(3)).Return(nil)

		res, err := s.service.BulkInsert(ctx, records(3), 100, nil)
		s.Require().NoError(err)
		s.Equal(1, res.Chunks)
		s.Equal(3, res.Persisted)
	})

	s.Run("failure at chunk k keeps k-1 chunks and stops", func() {
		gomock.InOrder(
			s.mockStore.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).Return(nil),
			s.mockStore.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).Return(errors.New("connection reset")),
		)

		var calls int
		res, err := s.service.BulkInsert(ctx, records(10), 4, func(int, int) { calls++ })

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStorage))
		s.Contains(err.Error(), "chunk 2")
		s.Contains(err.Error(), "4 rows already persisted")
		s.Equal(1, res.Chunks)
		s.Equal(4, res.Persisted)
		s.Equal(1, calls)
	})

	s.Run("non-positive batch size is a validation error", func() {
		_, err := s.service.BulkInsert(ctx, records(3), 0, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("empty input writes nothing", func() {
		res, err := s.service.BulkInsert(ctx, nil, 4, nil)
		s.Require().NoError(err)
		s.Zero(res.Chunks)
		s.Zero(res.Persisted)
	})

	s.Run("batch writer replaces store writes", func() {
		writer := mocks.NewMockBatchWriter(s.ctrl)
		svc, err := New(s.mockStore, WithBatchWriter(writer))
		s.Require().NoError(err)
		writer.EXPECT().InsertBatch(gomock.Any(), gomock.Len(2)).Return(nil).Times(2)

		res, err := svc.BulkInsert(ctx, records(4), 2, nil)
		s.Require().NoError(err)
		s.Equal(2, res.Chunks)
	})
}

// =============================================================================
// AddEmployee Tests
// =============================================================================

func (s *ServiceSuite) TestAddEmployee() {
	ctx := context.Background()
	dob := time.Date(1990, time.May, 15, 0, 0, 0, 0, time.UTC)

	s.Run("inserts and returns the stored record", func() {
		stored := models.Employee{ID: 7, FullName: "Ivanov Petr Sergeevich", DateOfBirth: dob, Gender: models.GenderMale}
		s.mockStore.EXPECT().Insert(ctx, models.Employee{
			FullName: "Ivanov Petr Sergeevich", DateOfBirth: dob, Gender: models.GenderMale,
		}).Return(int64(7), nil)
		s.mockStore.EXPECT().FindByID(ctx, int64(7)).Return(stored, nil)

		got, err := s.service.AddEmployee(ctx, "Ivanov Petr Sergeevich", dob, models.GenderMale)
		s.Require().NoError(err)
		s.Equal(stored, got)
	})

	s.Run("invalid fields never reach the store", func() {
		_, err := s.service.AddEmployee(ctx, "  ", dob, models.GenderMale)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("insert failure is a storage error", func() {
		s.mockStore.EXPECT().Insert(ctx, gomock.Any()).Return(int64(0), errors.New("boom"))

		_, err := s.service.AddEmployee(ctx, "Ivanov Petr Sergeevich", dob, models.GenderMale)
		s.True(dErrors.HasCode(err, dErrors.CodeStorage))
	})

	s.Run("record vanishing after insert is internal", func() {
		s.mockStore.EXPECT().Insert(ctx, gomock.Any()).Return(int64(9), nil)
		s.mockStore.EXPECT().FindByID(ctx, int64(9)).Return(models.Employee{}, sentinel.ErrNotFound)

		_, err := s.service.AddEmployee(ctx, "Ivanov Petr Sergeevich", dob, models.GenderMale)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// =============================================================================
// ListUnique Tests
// =============================================================================

func (s *ServiceSuite) TestListUnique() {
	ctx := context.Background()

	s.Run("passes limit through", func() {
		want := records(2)
		s.mockStore.EXPECT().FindUnique(ctx, 1000).Return(want, nil)

		got, err := s.service.ListUnique(ctx, 1000)
		s.Require().NoError(err)
		s.Equal(want, got)
	})

	s.Run("non-positive limit is a validation error", func() {
		_, err := s.service.ListUnique(ctx, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("store failure is a storage error", func() {
		s.mockStore.EXPECT().FindUnique(ctx, 5).Return(nil, errors.New("boom"))

		_, err := s.service.ListUnique(ctx, 5)
		s.True(dErrors.HasCode(err, dErrors.CodeStorage))
	})
}

// =============================================================================
// QueryTimed Tests
// =============================================================================

func (s *ServiceSuite) TestQueryTimed() {
	ctx := context.Background()
	f := models.DefaultFilter()

	s.Run("returns records and records query baseline", func() {
		want := records(3)
		s.mockStore.EXPECT().FindByGenderAndNamePrefix(gomock.Any(), f).Return(want, nil)
		s.mockBaseline.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e baseline.Entry) error {
				s.Equal(baseline.StageQuery, e.Stage)
				s.Equal("run-1", e.RunID)
				s.Equal(3, e.Rows)
				s.Equal(s.now, e.RecordedAt)
				return nil
			})

		res, err := s.service.QueryTimed(ctx, f)
		s.Require().NoError(err)
		s.Equal(want, res.Records)
		s.GreaterOrEqual(res.Elapsed, time.Duration(0))
	})

	s.Run("baseline failure does not fail the query", func() {
		s.mockStore.EXPECT().FindByGenderAndNamePrefix(gomock.Any(), f).Return(nil, nil)
		s.mockBaseline.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

		_, err := s.service.QueryTimed(ctx, f)
		s.NoError(err)
	})

	s.Run("store failure is a storage error", func() {
		s.mockStore.EXPECT().FindByGenderAndNamePrefix(gomock.Any(), f).Return(nil, errors.New("boom"))

		_, err := s.service.QueryTimed(ctx, f)
		s.True(dErrors.HasCode(err, dErrors.CodeStorage))
	})

	s.Run("empty gender is a validation error", func() {
		_, err := s.service.QueryTimed(ctx, models.Filter{NamePrefix: "F"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Optimize Tests
// =============================================================================

func (s *ServiceSuite) TestOptimize() {
	ctx := context.Background()
	f := models.DefaultFilter()

	s.Run("creates indexes, maintains, then queries", func() {
		previous := &baseline.Entry{Stage: baseline.StageQuery, Elapsed: 900 * time.Millisecond}
		s.mockBaseline.EXPECT().Last(gomock.Any(), baseline.StageQuery).Return(previous, nil)

		var calls []any
		for _, stmt := range indexStatements(f.Gender) {
			calls = append(calls, s.mockStore.EXPECT().Exec(gomock.Any(), stmt.SQL).Return(nil))
		}
		calls = append(calls,
			s.mockStore.EXPECT().Maintain(gomock.Any()).Return(nil),
			s.mockStore.EXPECT().FindByGenderAndNamePrefix(gomock.Any(), f).Return(records(2), nil),
		)
		gomock.InOrder(calls...)
		s.mockBaseline.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e baseline.Entry) error {
				s.Equal(baseline.StageOptimized, e.Stage)
				return nil
			})

		res, err := s.service.Optimize(ctx, f)
		s.Require().NoError(err)
		s.Equal([]string{"idx_gender_fullname", "idx_gender", "idx_fullname", "idx_male_fullname"}, res.Indexes)
		s.Len(res.Query.Records, 2)
		s.Equal(previous, res.Previous)
	})

	s.Run("index failure stops before maintenance", func() {
		s.mockBaseline.EXPECT().Last(gomock.Any(), baseline.StageQuery).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().Exec(gomock.Any(), gomock.Any()).Return(errors.New("permission denied"))

		_, err := s.service.Optimize(ctx, f)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStorage))
		s.Contains(err.Error(), "idx_gender_fullname")
	})

	s.Run("no previous baseline leaves Previous nil", func() {
		s.mockBaseline.EXPECT().Last(gomock.Any(), baseline.StageQuery).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().Exec(gomock.Any(), gomock.Any()).Return(nil).Times(4)
		s.mockStore.EXPECT().Maintain(gomock.Any()).Return(nil)
		s.mockStore.EXPECT().FindByGenderAndNamePrefix(gomock.Any(), f).Return(nil, nil)
		s.mockBaseline.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		res, err := s.service.Optimize(ctx, f)
		s.Require().NoError(err)
		s.Nil(res.Previous)
	})
}

func (s *ServiceSuite) TestIndexStatements() {
	s.Run("partial index targets the query gender", func() {
		stmts := s.service.IndexStatements(models.GenderMale)
		s.Require().Len(stmts, 4)
		s.Equal("idx_male_fullname", stmts[3].Name)
		s.Contains(stmts[3].SQL, "WHERE gender = 'Male'")
	})

	s.Run("partial index name follows the gender", func() {
		s.Equal("idx_female_fullname", s.service.IndexStatements(models.GenderFemale)[3].Name)

		seen := map[string]string{}
		for _, g := range []string{"Male", "male", "MALE", "Non-binary", "Non_binary", "O'Brien"} {
			name := s.service.IndexStatements(g)[3].Name
			s.Regexp(`^idx_[a-z0-9_]+_fullname(_[0-9a-f]{8})?$`, name)
			prev, dup := seen[name]
			s.False(dup, "%s shared by %q and %q", name, prev, g)
			seen[name] = g
		}
	})

	s.Run("quotes are escaped", func() {
		stmts := s.service.IndexStatements("O'Brien")
		s.Contains(stmts[3].SQL, "WHERE gender = 'O''Brien'")
	})

	s.Run("every statement is idempotent", func() {
		for _, stmt := range s.service.IndexStatements(models.GenderMale) {
			s.Contains(stmt.SQL, "CREATE INDEX IF NOT EXISTS "+stmt.Name+" ON employees")
		}
	})
}
