package class

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
)

var (
	// errors
	ErrNotFound = errors.New("class not found")
)

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		QueryClasses(ctx context.Context, ordering ...core.DBOrdering) ([]Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		UpdateClass(ctx context.Context, cls Class) (Class, error)
		DeleteClass(ctx context.Context, id string) error
		CountClasses(ctx context.Context) (int, error)
	}

	Service struct {
		repo     Repository
		validate *core.Validator
		nowFunc  func() time.Time
	}
)

func NewService(repo Repository, validate *core.Validator) *Service {
	return &Service{repo: repo, validate: validate, nowFunc: time.Now}
}

func (svc *Service) Create(ctx context.Context, nc NewClass) (Class, error) {
	now := svc.nowFunc().UTC()
	if err := nc.Validate(svc.validate, now); err != nil {
		return Class{}, err
	}
	return svc.repo.CreateClass(ctx, Class{
		Name:         nc.Name,
		GradeLevel:   nc.GradeLevel,
		Section:      nc.Section,
		AcademicYear: nc.AcademicYear,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Query lists classes. Unknown ordering fields are ignored; the default order is grade then section.
func (svc *Service) Query(ctx context.Context, ordering ...core.DBOrdering) ([]Class, error) {
	ordering = core.FilterOrderings(ordering, Orderable)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "grade_level", Ascending: true}, {Field: "section", Ascending: true}}
	}
	return svc.repo.QueryClasses(ctx, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, nc NewClass) (Class, error) {
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	now := svc.nowFunc().UTC()
	if err := nc.Validate(svc.validate, now); err != nil {
		return Class{}, err
	}
	cls.Name = nc.Name
	cls.GradeLevel = nc.GradeLevel
	cls.Section = nc.Section
	cls.AcademicYear = nc.AcademicYear
	cls.UpdatedAt = now
	return svc.repo.UpdateClass(ctx, cls)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteClass(ctx, id)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountClasses(ctx)
}
