package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Section codes such as "A", "B2" or "LAB-1"
	SectionPattern = `^[A-Za-z0-9][A-Za-z0-9_-]{0,15}$`

	// Letter grades such as "A", "B+" or "INC"
	GradePattern = `^[A-Za-z][A-Za-z0-9+\-]{0,7}$`
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Section *regexp.Regexp
	Grade   *regexp.Regexp
}{
	Section: regexp.MustCompile(SectionPattern),
	Grade:   regexp.MustCompile(GradePattern),
}

// IsValidSection reports whether s is a well-formed section code
func IsValidSection(s string) bool {
	return CompiledPatterns.Section.MatchString(s)
}

// IsValidGrade reports whether s is a well-formed letter grade
func IsValidGrade(s string) bool {
	return CompiledPatterns.Grade.MatchString(s)
}

// fieldName reports the JSON (or URI) name of a struct field so that
// validation errors use the names clients send.
func fieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = fld.Tag.Get("uri")
	}
	return name
}

// Register installs the custom rules and field naming on v
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(fieldName)
	if err := v.RegisterValidation("section", func(fl validator.FieldLevel) bool {
		return IsValidSection(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("grade", func(fl validator.FieldLevel) bool {
		return IsValidGrade(fl.Field().String())
	})
}

var (
	ginOnce sync.Once
	ginErr  error
)

// RegisterWithGin installs the rules on gin's binding validator. Safe to call repeatedly.
func RegisterWithGin() error {
	ginOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			ginErr = Register(v)
		}
	})
	return ginErr
}
