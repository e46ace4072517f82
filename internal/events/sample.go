package events

import (
	"time"

	"riverside/internal/model"
)

// Sample returns the built-in event set used whenever the remote feed is
// unavailable. Dates are relative to the month of today.
func Sample(today model.Date) []model.Event {
	on := func(monthOffset, day int) model.Date {
		return model.NewDate(today.Year, today.Month+time.Month(monthOffset), day)
	}

	return []model.Event{
		{
			ID:          "1",
			Date:        on(0, 5),
			Title:       "New Student Orientation",
			Time:        "09:00",
			Description: "Welcome session for new students and their families. Campus tour included.",
		},
		{
			ID:          "2",
			Date:        on(0, 12),
			Title:       "Science Fair",
			Time:        "14:00",
			Description: "Annual science fair showcasing student projects and innovations.",
		},
		{
			ID:          "3",
			Date:        on(0, 18),
			Title:       "Parent-Teacher Conference",
			Time:        "16:00",
			Description: "Individual meetings between parents and teachers to discuss student progress.",
		},
		{
			ID:          "4",
			Date:        on(0, 25),
			Title:       "Sports Day",
			Time:        "10:00",
			Description: "Annual sports competition with various athletic events for all grade levels.",
		},
		{
			ID:          "5",
			Date:        on(1, 8),
			Title:       "Art Exhibition Opening",
			Time:        "18:00",
			Description: "Opening night for the student art exhibition featuring works from all grades.",
		},
		{
			ID:          "6",
			Date:        on(1, 15),
			Title:       "Math Competition",
			Time:        "13:00",
			Description: "Inter-school mathematics competition for grades 6-12.",
		},
		{
			ID:          "7",
			Date:        on(2, 3),
			Title:       "Spring Concert",
			Time:        "19:00",
			Description: "Musical performance by the school choir and orchestra.",
		},
		{
			ID:          "8",
			Date:        on(2, 20),
			Title:       "Career Day",
			Time:        "11:00",
			Description: "Professionals from various fields share their experiences with students.",
		},
	}
}
