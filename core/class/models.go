package class

import (
	"fmt"
	"time"

	"github.com/shuleapp/shule/core"
)

type Class struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	GradeLevel   int       `json:"grade_level" db:"grade_level"`
	Section      string    `json:"section" db:"section"`
	AcademicYear string    `json:"academic_year" db:"academic_year"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewClass contains information needed to create or replace a Class.
type NewClass struct {
	Name         string `json:"name" validate:"required"`
	GradeLevel   int    `json:"grade_level" validate:"required,min=1,max=12"`
	Section      string `json:"section" validate:"required,max=8"`
	AcademicYear string `json:"academic_year" validate:"omitempty,academicyear"`
}

func (nc *NewClass) Validate(v *core.Validator, now time.Time) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Section = core.CleanString(nc.Section)
	nc.AcademicYear = core.CleanString(nc.AcademicYear)
	if nc.AcademicYear == "" {
		nc.AcademicYear = AcademicYear(now)
	}
	return v.Struct(nc)
}

// AcademicYear formats the school year running at t, e.g. "2024-2025". Years start in August.
func AcademicYear(t time.Time) string {
	start := t.Year()
	if t.Month() < time.August {
		start--
	}
	return fmt.Sprintf("%d-%d", start, start+1)
}

// Orderable maps the accepted `ordering` fields to their column.
var Orderable = map[string]string{
	"name":          "name",
	"grade_level":   "grade_level",
	"section":       "section",
	"academic_year": "academic_year",
	"created_at":    "created_at",
}
