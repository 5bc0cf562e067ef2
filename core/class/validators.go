package class

import (
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/shuleapp/shule/core"
)

var (
	academicYearTag   = "academicyear"
	academicYearText  = "academic year must look like 2024-2025"
	academicYearRegex = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
)

// InitValidators registers the class rules on v.
func InitValidators(v *core.Validator) {
	_ = v.Engine().RegisterValidation(academicYearTag, academicYearValidation)
	v.RegisterCustomTranslation(academicYearTag, academicYearText)
}

// academicYearValidation accepts two consecutive years.
func academicYearValidation(fl validator.FieldLevel) bool {
	m := academicYearRegex.FindStringSubmatch(fl.Field().String())
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}
