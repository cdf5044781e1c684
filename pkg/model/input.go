package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

// ErrEmptyInput is returned when no working days or no courses are supplied
var ErrEmptyInput = errors.New("constraints and courses must not be empty")

type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Days in canonical order
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Slot-code prefixes; two letters where the initial would collide
var dayPrefixes = [...]string{"M", "T", "W", "Th", "F", "Sa", "Su"}

func (day Day) String() string {
	if day < Monday || day > Sunday {
		return fmt.Sprintf("Day(%d)", int(day))
	}
	return dayNames[day]
}

// Key returns the lowercase day name used in shaped schedules
func (day Day) Key() string {
	return strings.ToLower(day.String())
}

func (day Day) Prefix() string {
	return dayPrefixes[day]
}

func ParseDay(name string) (Day, error) {
	index := lo.IndexOf(dayNames[:], lo.Capitalize(strings.TrimSpace(name)))
	if index < 0 {
		return 0, fmt.Errorf("unknown day %q", name)
	}
	return Day(index), nil
}

type WorkingDay struct {
	Day        Day
	StartHour  int
	EndHour    int
	TotalHours int
}

type Course struct {
	Name         string
	LectureCount int
	Duration     int
	Instructor   string
	StartHour    int
	EndHour      int
}

// Demand is the number of slots the course must occupy across the week
func (course Course) Demand() int {
	return course.LectureCount * course.Duration
}

// Available checks whether the hour lies in the instructor's window [StartHour, EndHour)
func (course Course) Available(hour int) bool {
	return hour >= course.StartHour && hour < course.EndHour
}

// SubjectPair is an ordered pair of course names; an empty first name disables it
type SubjectPair [2]string

func (pair SubjectPair) Enabled() bool {
	return pair[0] != ""
}

type Constraints struct {
	WorkingDays    []WorkingDay
	Consecutive    SubjectPair
	NonConsecutive SubjectPair
}

type ModelInput struct {
	Constraints Constraints
	Courses     []Course
}

type RawWorkingDay struct {
	Day        string `mapstructure:"day" validate:"required"`
	StartHour  int    `mapstructure:"start_hr" validate:"gte=0,lte=23"`
	EndHour    int    `mapstructure:"end_hr" validate:"gte=0,lte=24"`
	TotalHours int    `mapstructure:"total_hours" validate:"gte=0,lte=24"`
}

type RawConstraints struct {
	WorkingDays            []RawWorkingDay `mapstructure:"working_days" validate:"dive"`
	ConsecutiveSubjects    []string        `mapstructure:"consecutive_subjects"`
	NonConsecutiveSubjects []string        `mapstructure:"non_consecutive_subjects"`
}

type RawCourse struct {
	Name         string `mapstructure:"name" validate:"required"`
	LectureCount int    `mapstructure:"lectureno" validate:"gte=0"`
	Duration     int    `mapstructure:"duration" validate:"gte=1"`
	Instructor   string `mapstructure:"instructor_name"`
	StartHour    int    `mapstructure:"start_hr" validate:"gte=0,lte=23"`
	EndHour      int    `mapstructure:"end_hr" validate:"gtfield=StartHour,lte=24"`
}

type RawModelInput struct {
	Constraints RawConstraints `mapstructure:"constraints"`
	Courses     []RawCourse    `mapstructure:"courses" validate:"dive"`
}

func InputFromJson(file string) (ModelInput, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return ModelInput{}, fmt.Errorf("cannot read input file: %w", err)
	}
	return InputFromBytes(bytes)
}

func InputFromBytes(bytes []byte) (ModelInput, error) {
	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return ModelInput{}, err
	}

	rawInput, err := DecodeRawInput(inputJson)
	if err != nil {
		return ModelInput{}, err
	}
	return ProcessRawInput(rawInput)
}

// DecodeRawInput decodes an untyped document; numeric strings are accepted where integers are expected
func DecodeRawInput(inputJson map[string]any) (RawModelInput, error) {
	var rawInput RawModelInput
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &rawInput,
	})
	if err != nil {
		return RawModelInput{}, err
	}
	if err := decoder.Decode(inputJson); err != nil {
		return RawModelInput{}, fmt.Errorf("cannot decode input: %w", err)
	}
	return rawInput, nil
}

func ProcessRawInput(rawInput RawModelInput) (ModelInput, error) {
	if len(rawInput.Constraints.WorkingDays) == 0 || len(rawInput.Courses) == 0 {
		return ModelInput{}, ErrEmptyInput
	}

	if err := validateRawInput(rawInput); err != nil {
		return ModelInput{}, err
	}

	input := ModelInput{
		Courses: lo.Map(rawInput.Courses, func(rawCourse RawCourse, _ int) Course {
			return Course{
				Name:         rawCourse.Name,
				LectureCount: rawCourse.LectureCount,
				Duration:     rawCourse.Duration,
				Instructor:   rawCourse.Instructor,
				StartHour:    rawCourse.StartHour,
				EndHour:      rawCourse.EndHour,
			}
		}),
	}

	for _, rawDay := range rawInput.Constraints.WorkingDays {
		day, _ := ParseDay(rawDay.Day) // Already validated
		input.Constraints.WorkingDays = append(input.Constraints.WorkingDays, WorkingDay{
			Day:        day,
			StartHour:  rawDay.StartHour,
			EndHour:    rawDay.EndHour,
			TotalHours: rawDay.TotalHours,
		})
	}

	input.Constraints.Consecutive = toSubjectPair(rawInput.Constraints.ConsecutiveSubjects)
	input.Constraints.NonConsecutive = toSubjectPair(rawInput.Constraints.NonConsecutiveSubjects)

	return input, nil
}

func toSubjectPair(names []string) SubjectPair {
	if len(names) < 2 || names[0] == "" {
		return SubjectPair{}
	}
	return SubjectPair{names[0], names[1]}
}

// DayHours returns the total-hours and start-hour tables the slot grid is built from
func (input ModelInput) DayHours() (dayHours map[Day]int, dayStart map[Day]int) {
	dayHours, dayStart = make(map[Day]int), make(map[Day]int)
	for _, workingDay := range input.Constraints.WorkingDays {
		dayHours[workingDay.Day] = workingDay.TotalHours
		dayStart[workingDay.Day] = workingDay.StartHour
	}
	return dayHours, dayStart
}
