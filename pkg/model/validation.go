package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every problem found in a malformed course or constraint set
type ValidationError struct {
	Errors []FieldError
}

func (err *ValidationError) Error() string {
	messages := lo.Map(err.Errors, func(fieldError FieldError, _ int) string {
		return fmt.Sprintf("%v: %v", fieldError.Field, fieldError.Message)
	})
	return "invalid input: " + strings.Join(messages, "; ")
}

func (err *ValidationError) add(field, format string, args ...any) {
	err.Errors = append(err.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func validateRawInput(rawInput RawModelInput) error {
	result := &ValidationError{}

	//** Struct-level rules
	if err := validate.Struct(rawInput); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		for _, fieldError := range validationErrors {
			rule := fieldError.Tag()
			if fieldError.Param() != "" {
				rule += "=" + fieldError.Param()
			}
			result.add(strings.TrimPrefix(fieldError.Namespace(), "RawModelInput."), "value %v violates %q", fieldError.Value(), rule)
		}
	}

	//** Working days
	maxSlots := 0
	seenDays := make(map[Day]bool)
	for i, rawDay := range rawInput.Constraints.WorkingDays {
		day, err := ParseDay(rawDay.Day)
		if err != nil {
			result.add(fmt.Sprintf("Constraints.WorkingDays[%d].Day", i), "%v", err)
			continue
		}
		if seenDays[day] {
			result.add(fmt.Sprintf("Constraints.WorkingDays[%d].Day", i), "day %v is listed more than once", day)
		}
		seenDays[day] = true
		maxSlots = max(maxSlots, rawDay.TotalHours-1)
	}

	//** Courses
	courseNames := make(map[string]bool)
	for i, rawCourse := range rawInput.Courses {
		if courseNames[rawCourse.Name] {
			result.add(fmt.Sprintf("Courses[%d].Name", i), "course %q is defined more than once", rawCourse.Name)
		}
		courseNames[rawCourse.Name] = true

		// A multi-hour block must fit inside a single day
		if rawCourse.Duration > 1 && rawCourse.Duration > maxSlots {
			result.add(fmt.Sprintf("Courses[%d].Duration", i), "duration %d spans more slots than any working day offers (%d)", rawCourse.Duration, max(maxSlots, 0))
		}
	}

	//** Subject pairs
	validatePair := func(field string, names []string) {
		if len(names) == 0 || names[0] == "" {
			return
		}
		if len(names) != 2 {
			result.add(field, "expected exactly two course names, got %d", len(names))
			return
		}
		for _, name := range names {
			if !courseNames[name] {
				result.add(field, "unknown course %q", name)
			}
		}
	}
	validatePair("Constraints.ConsecutiveSubjects", rawInput.Constraints.ConsecutiveSubjects)
	validatePair("Constraints.NonConsecutiveSubjects", rawInput.Constraints.NonConsecutiveSubjects)

	if len(result.Errors) > 0 {
		return result
	}
	return nil
}
