package calendar

import (
	"fmt"

	"riverside/internal/model"
)

// DayNames are the grid column headers, Sunday first.
var DayNames = [GridColumns]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// MonthTitle formats the header, e.g. "March 2024".
func MonthTitle(d model.Date) string {
	return fmt.Sprintf("%s %d", d.Month, d.Year)
}

// LongDate formats d as "Tuesday, March 5, 2024".
func LongDate(d model.Date) string {
	return fmt.Sprintf("%s, %s %d, %d", d.Weekday(), d.Month, d.Day, d.Year)
}

// FormatTime12 turns "HH:MM" into "h:MM AM/PM". Values that are not a valid
// 24-hour time are returned unchanged.
func FormatTime12(hhmm string) string {
	h, m, ok := model.ParseClock(hhmm)
	if !ok {
		return hhmm
	}
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, suffix)
}

// CountSummary is the screen-reader announcement after opening a day.
func CountSummary(d model.Date, n int) string {
	if n == 0 {
		return "No events for " + LongDate(d)
	}
	return fmt.Sprintf("%d %s for %s", n, plural(n, "event"), LongDate(d))
}

// AriaLabel labels a grid cell, e.g. "Tuesday, March 5, 2024, today, 2 events".
func AriaLabel(c Cell) string {
	label := LongDate(c.Date)
	if c.Today {
		label += ", today"
	}
	if c.EventCount > 0 {
		label += fmt.Sprintf(", %d %s", c.EventCount, plural(c.EventCount, "event"))
	}
	return label
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
