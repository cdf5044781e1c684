package model

import "fmt"

// Hour the clock leaves for lunch and the hour it resumes at
const (
	lunchHour  = 12
	resumeHour = 14
)

type SlotGrid struct {
	Slots []string       // Slot codes flattened in canonical day order
	Hours map[string]int // Wall-clock start hour per slot
	Days  map[string]Day // Day each slot belongs to
	ends  []int          // Exclusive end index of the day holding each slot
}

// BuildSlotGrid generates total_hours-1 slots for every day present in dayHours, Monday first.
// Non-positive ranges produce no slots.
func BuildSlotGrid(dayHours map[Day]int, dayStart map[Day]int) SlotGrid {
	grid := SlotGrid{
		Slots: []string{},
		Hours: make(map[string]int),
		Days:  make(map[string]Day),
	}

	for _, day := range Days {
		totalHours, ok := dayHours[day]
		if !ok {
			continue
		}

		hour := dayStart[day]
		first := len(grid.Slots)
		for ordinal := 1; ordinal <= totalHours-1; ordinal++ {
			code := fmt.Sprintf("%v%d", day.Prefix(), ordinal)
			grid.Slots = append(grid.Slots, code)
			grid.Hours[code] = hour
			grid.Days[code] = day

			if hour == lunchHour {
				hour = resumeHour
			} else {
				hour++
			}
		}
		for range len(grid.Slots) - first {
			grid.ends = append(grid.ends, len(grid.Slots))
		}
	}

	return grid
}

func (grid SlotGrid) Len() int {
	return len(grid.Slots)
}

func (grid SlotGrid) Hour(slot int) int {
	return grid.Hours[grid.Slots[slot]]
}

func (grid SlotGrid) Day(slot int) Day {
	return grid.Days[grid.Slots[slot]]
}

// DayEnd returns the exclusive index where the day holding slot finishes
func (grid SlotGrid) DayEnd(slot int) int {
	if grid.ends == nil {
		// Grid assembled by hand: fall back to scanning
		end := slot
		for end < len(grid.Slots) && grid.Day(end) == grid.Day(slot) {
			end++
		}
		return end
	}
	return grid.ends[slot]
}

// ForbiddenStart reports whether a block of the given duration starting at slot would spill past the end of its day
func (grid SlotGrid) ForbiddenStart(slot, duration int) bool {
	return duration > 1 && slot+duration > grid.DayEnd(slot)
}
