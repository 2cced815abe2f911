package commands

import (
	"slices"
	"time"

	"taskboard/task"
)

func init() {
	Register(&Command{
		Name:        "/today",
		Description: "List open tasks due today",
		Usage:       "/today",
		Handler: func(args []string) bool {
			today := dateOnly(GetStore().Now())
			tomorrow := today.AddDate(0, 0, 1)

			listTasksInRange("today", today, tomorrow)
			return false
		},
	})

	Register(&Command{
		Name:        "/tomorrow",
		Description: "List open tasks due tomorrow",
		Usage:       "/tomorrow",
		Handler: func(args []string) bool {
			today := dateOnly(GetStore().Now())
			tomorrow := today.AddDate(0, 0, 1)
			dayAfter := today.AddDate(0, 0, 2)

			listTasksInRange("tomorrow", tomorrow, dayAfter)
			return false
		},
	})

	Register(&Command{
		Name:        "/week",
		Description: "List open tasks due this week (Monday through Sunday)",
		Usage:       "/week",
		Handler: func(args []string) bool {
			today := dateOnly(GetStore().Now())
			weekStart := startOfWeek(today)
			weekEnd := weekStart.AddDate(0, 0, 7)

			listTasksInRange("this week", weekStart, weekEnd)
			return false
		},
	})

	Register(&Command{
		Name:        "/overdue",
		Description: "List tasks past their due date that are not completed",
		Usage:       "/overdue",
		Handler: func(args []string) bool {
			tasks := slices.Collect(GetStore().Overdue())

			printf("Overdue tasks: %d\n", len(tasks))
			if len(tasks) == 0 {
				printLine("  Nothing overdue")
				return false
			}

			now := GetStore().Now()
			for _, t := range tasks {
				printLine(formatTask(t, now))
			}
			return false
		},
	})
}

// dateOnly extracts just the year, month, day as a comparable date in local timezone
// This ignores the time-of-day, treating the date as a calendar date
func dateOnly(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// dueDay is the calendar day a due date names. Dates entered as
// YYYY-MM-DD are stored as UTC midnight and keep that day in any zone.
func dueDay(d time.Time) time.Time {
	d = d.UTC()
	if d.Hour() == 0 && d.Minute() == 0 && d.Second() == 0 && d.Nanosecond() == 0 {
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local)
	}
	return dateOnly(d)
}

// startOfWeek returns the Monday of the week containing the given time
func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday is day 7
	}
	return t.AddDate(0, 0, -(weekday - 1))
}

// listTasksInRange lists open tasks with due dates in the given range [start, end)
func listTasksInRange(label string, start, end time.Time) {
	printf("Tasks due %s:\n", label)

	var filtered []task.Task
	for _, t := range GetStore().All() {
		if t.Status == task.StatusCompleted || t.DueDate == nil {
			continue
		}
		due := dueDay(*t.DueDate)
		if !due.Before(start) && due.Before(end) {
			filtered = append(filtered, t)
		}
	}

	if len(filtered) == 0 {
		printLine("  No tasks due")
		return
	}

	now := GetStore().Now()
	for _, t := range filtered {
		printLine(formatTask(t, now))
	}
}
