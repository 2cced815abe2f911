package commands

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"taskboard/task"
)

// view is the REPL's current status filter and search term.
// Every /list renders the store's query for it.
var view struct {
	mu     sync.Mutex
	filter task.Filter
	search string
}

func resetView() {
	view.mu.Lock()
	defer view.mu.Unlock()
	view.filter = task.FilterAll
	view.search = ""
}

// CurrentView returns the active filter and search term
func CurrentView() (task.Filter, string) {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.filter, view.search
}

// SetView sets the filter and search term used by /list
func SetView(filter task.Filter, search string) {
	view.mu.Lock()
	defer view.mu.Unlock()
	view.filter = filter
	view.search = search
}

func init() {
	Register(&Command{
		Name:        "/list",
		Description: "List tasks matching the current filter and search. Shows each task's short ID.",
		Usage:       "/list",
		Handler: func(args []string) bool {
			filter, search := CurrentView()
			renderView(filter, search)
			return false
		},
	})

	Register(&Command{
		Name:        "/filter",
		Description: "Set the status filter used by /list",
		Usage:       "/filter <all|todo|in-progress|completed>",
		Params: []Param{
			{Name: "status", Type: ParamTypeString, Description: "all, todo, in-progress or completed", Required: true},
		},
		Handler: func(args []string) bool {
			if len(args) == 0 {
				printLine("Usage: /filter <all|todo|in-progress|completed>")
				return false
			}

			filter, err := task.ParseFilter(args[0])
			if err != nil {
				printf("Error: %v\n", err)
				return false
			}

			view.mu.Lock()
			view.filter = filter
			search := view.search
			view.mu.Unlock()

			renderView(filter, search)
			return false
		},
	})

	Register(&Command{
		Name:        "/search",
		Description: "Set the search term used by /list (matches title or description, case-insensitive). No term clears it.",
		Usage:       "/search [term]",
		Params: []Param{
			{Name: "term", Type: ParamTypeString, Description: "Text to look for; omit to clear", Required: false},
		},
		Handler: func(args []string) bool {
			term := strings.Join(args, " ")

			view.mu.Lock()
			view.search = term
			filter := view.filter
			view.mu.Unlock()

			renderView(filter, term)
			return false
		},
	})

	Register(&Command{
		Name:        "/clear",
		Description: "Reset the filter to all and clear the search term",
		Usage:       "/clear",
		Handler: func(args []string) bool {
			resetView()
			renderView(task.FilterAll, "")
			return false
		},
	})
}

// renderView prints the query result for filter and search
func renderView(filter task.Filter, search string) {
	tasks := slices.Collect(GetStore().Query(filter, search))

	header := "Tasks"
	var conds []string
	if filter != task.FilterAll && filter != "" {
		conds = append(conds, "status "+string(filter))
	}
	if search != "" {
		conds = append(conds, fmt.Sprintf("matching %q", search))
	}
	if len(conds) > 0 {
		header += " (" + strings.Join(conds, ", ") + ")"
	}

	total := GetStore().Len()
	printf("%s: %d of %d\n", header, len(tasks), total)
	if len(tasks) == 0 {
		if total == 0 {
			printLine("  No tasks yet. Add one with /add <title>")
		} else {
			printLine("  No tasks match. Use /clear to reset the view.")
		}
		return
	}

	now := GetStore().Now()
	for _, t := range tasks {
		printLine(formatTask(t, now))
	}
}

// statusIcon renders a status as a checkbox
func statusIcon(s task.Status) string {
	switch s {
	case task.StatusCompleted:
		return "[✓]"
	case task.StatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

// formatTask renders one task line
func formatTask(t task.Task, now time.Time) string {
	extras := []string{string(t.Priority)}
	if t.DueDate != nil {
		extras = append(extras, "due "+t.DueDate.Format(dateLayout))
	}
	if task.IsOverdue(t, now) {
		extras = append(extras, "OVERDUE")
	}

	return fmt.Sprintf("  %s [%s] %s (%s)", statusIcon(t.Status), GetStore().ShortID(t.ID), t.Title, strings.Join(extras, ", "))
}
