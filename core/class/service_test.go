package class_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/class"
	inmemdb "github.com/shuleapp/shule/storage/database/inmem"
)

func newService() *class.Service {
	v := core.NewValidator()
	class.InitValidators(v)
	return class.NewService(inmemdb.NewClassRepository(inmemdb.Open()), v)
}

func TestAcademicYear(t *testing.T) {
	assert.Equal(t, "2024-2025", class.AcademicYear(time.Date(2024, time.September, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-2025", class.AcademicYear(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-2026", class.AcademicYear(time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	tests := []struct {
		name    string
		nc      class.NewClass
		wantErr error
		field   string
	}{
		{name: "missing name", nc: class.NewClass{GradeLevel: 3, Section: "A"}, wantErr: core.ErrMissingFields, field: "name"},
		{name: "grade too high", nc: class.NewClass{Name: "Grade 13", GradeLevel: 13, Section: "A"}, wantErr: core.ErrInvalidInput, field: "grade_level"},
		{name: "bad academic year", nc: class.NewClass{Name: "Grade 3", GradeLevel: 3, Section: "A", AcademicYear: "2024-2026"}, wantErr: core.ErrInvalidInput, field: "academic_year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.nc)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.FieldsMap(), tt.field)
		})
	}

	cls, err := svc.Create(ctx, class.NewClass{Name: " Grade 3 ", GradeLevel: 3, Section: "A"})
	require.NoError(t, err)
	assert.Equal(t, "Grade 3", cls.Name)
	assert.Equal(t, class.AcademicYear(time.Now().UTC()), cls.AcademicYear)
}

func TestCRUD(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	c1, err := svc.Create(ctx, class.NewClass{Name: "Grade 2", GradeLevel: 2, Section: "B", AcademicYear: "2024-2025"})
	require.NoError(t, err)
	c2, err := svc.Create(ctx, class.NewClass{Name: "Grade 1", GradeLevel: 1, Section: "A", AcademicYear: "2024-2025"})
	require.NoError(t, err)
	c3, err := svc.Create(ctx, class.NewClass{Name: "Grade 2", GradeLevel: 2, Section: "A", AcademicYear: "2024-2025"})
	require.NoError(t, err)

	all, err := svc.Query(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{c2.ID, c3.ID, c1.ID}, ids(all))

	all, err = svc.Query(ctx, core.ParseOrderings("-grade_level,section,password_hash")...)
	require.NoError(t, err)
	assert.Equal(t, []string{c3.ID, c1.ID, c2.ID}, ids(all))

	updated, err := svc.Update(ctx, c1.ID, class.NewClass{Name: "Grade 2 Blue", GradeLevel: 2, Section: "B", AcademicYear: "2024-2025"})
	require.NoError(t, err)
	assert.Equal(t, "Grade 2 Blue", updated.Name)
	assert.Equal(t, c1.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(ctx, "missing", class.NewClass{Name: "X", GradeLevel: 1, Section: "A"})
	assert.Equal(t, class.ErrNotFound, err)

	require.NoError(t, svc.Delete(ctx, c2.ID))
	assert.Equal(t, class.ErrNotFound, svc.Delete(ctx, c2.ID))
	_, err = svc.GetByID(ctx, c2.ID)
	assert.Equal(t, class.ErrNotFound, err)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func ids(classes []class.Class) []string {
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		out = append(out, c.ID)
	}
	return out
}
