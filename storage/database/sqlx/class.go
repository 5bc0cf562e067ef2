package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/class"
)

const classColumns = "id, name, grade_level, section, academic_year, created_at, updated_at"

type classRepository struct {
	db *sqlx.DB
}

var _ class.Repository = (*classRepository)(nil)

func NewClassRepository(db *sqlx.DB) class.Repository {
	return &classRepository{db: db}
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	cls.ID = uuid.NewString()
	q := `INSERT INTO classes (` + classColumns + `) VALUES (:id, :name, :grade_level, :section, :academic_year, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, cls); err != nil {
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

// QueryClasses expects orderings already restricted to known columns.
func (repo *classRepository) QueryClasses(ctx context.Context, ordering ...core.DBOrdering) ([]class.Class, error) {
	q := `SELECT ` + classColumns + ` FROM classes`
	if len(ordering) > 0 {
		clauses := make([]string, 0, len(ordering)+1)
		for _, ord := range ordering {
			clauses = append(clauses, ord.String())
		}
		clauses = append(clauses, "id ASC")
		q += ` ORDER BY ` + strings.Join(clauses, ", ")
	}
	classes := make([]class.Class, 0)
	if err := repo.db.SelectContext(ctx, &classes, q); err != nil {
		return nil, errors.Wrap(err, "selecting classes")
	}
	return classes, nil
}

func (repo *classRepository) GetClassByID(ctx context.Context, id string) (class.Class, error) {
	if _, err := uuid.Parse(id); err != nil {
		return class.Class{}, class.ErrNotFound
	}
	var cls class.Class
	if err := repo.db.GetContext(ctx, &cls, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, errors.Wrap(err, "selecting class")
	}
	return cls, nil
}

func (repo *classRepository) UpdateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	q := `UPDATE classes SET name = :name, grade_level = :grade_level, section = :section,
		academic_year = :academic_year, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, cls)
	if err != nil {
		return class.Class{}, errors.Wrap(err, "updating class")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return class.Class{}, class.ErrNotFound
	}
	return cls, nil
}

func (repo *classRepository) DeleteClass(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return class.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting class")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return class.ErrNotFound
	}
	return nil
}

func (repo *classRepository) CountClasses(ctx context.Context) (int, error) {
	var n int
	if err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM classes`); err != nil {
		return 0, errors.Wrap(err, "counting classes")
	}
	return n, nil
}
