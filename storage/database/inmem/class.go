package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/class"
)

type classRepository struct {
	db *classTable
}

var _ class.Repository = (*classRepository)(nil)

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db.class}
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls.ID = uuid.NewString()
	repo.db.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) QueryClasses(_ context.Context, ordering ...core.DBOrdering) ([]class.Class, error) {
	repo.db.RLock()
	classes := make([]class.Class, 0, len(repo.db.table))
	for _, cls := range repo.db.table {
		classes = append(classes, *cls)
	}
	repo.db.RUnlock()

	sort.SliceStable(classes, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareClasses(classes[i], classes[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return classes[i].ID < classes[j].ID
	})
	return classes, nil
}

func compareClasses(a, b class.Class, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "grade_level":
		return a.GradeLevel - b.GradeLevel
	case "section":
		return strings.Compare(a.Section, b.Section)
	case "academic_year":
		return strings.Compare(a.AcademicYear, b.AcademicYear)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return 0
	}
}

func (repo *classRepository) GetClassByID(_ context.Context, id string) (class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.table[id]; ok {
		return *cls, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) UpdateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[cls.ID]; !ok {
		return class.Class{}, class.ErrNotFound
	}
	repo.db.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) DeleteClass(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return class.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *classRepository) CountClasses(_ context.Context) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.table), nil
}
