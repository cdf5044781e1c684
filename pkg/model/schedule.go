package model

import "fmt"

// Date every block timestamp is anchored to; consumers read only the time of day
const PlaceholderDate = "2018-02-25"

type ScheduleBlock struct {
	Id        int    `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// ShapeSchedule groups the assignment by lowercase day name. All seven days are present, empty ones hold no blocks.
func ShapeSchedule(assignment Assignment, grid SlotGrid) map[string][]ScheduleBlock {
	schedule := make(map[string][]ScheduleBlock, len(Days))
	for _, day := range Days {
		schedule[day.Key()] = []ScheduleBlock{}
	}

	for slot, course := range assignment {
		if slot >= grid.Len() {
			break
		}
		hour := grid.Hour(slot)
		key := grid.Day(slot).Key()
		schedule[key] = append(schedule[key], ScheduleBlock{
			Id:        1,
			Name:      course,
			Type:      "custom",
			StartTime: timestamp(hour),
			EndTime:   timestamp(hour + 1),
		})
	}

	return schedule
}

func timestamp(hour int) string {
	return fmt.Sprintf("%vT%02d:00:00", PlaceholderDate, hour)
}
