package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"taskboard/task"
	"taskboard/taskstore"
)

const dateLayout = "2006-01-02"

func init() {
	Register(&Command{
		Name:        "/add",
		Description: "Add a task",
		Usage:       "/add <title> [--desc text] [--priority low|medium|high] [--due YYYY-MM-DD] [--status todo|in-progress|completed]",
		Params: []Param{
			{Name: "title", Type: ParamTypeString, Description: "The title of the task", Required: true},
			{Name: "desc", Type: ParamTypeString, Description: "Optional longer description", Flag: true},
			{Name: "priority", Type: ParamTypeString, Description: "low, medium or high (default medium)", Flag: true},
			{Name: "due", Type: ParamTypeString, Description: "Due date in YYYY-MM-DD format", Flag: true},
			{Name: "status", Type: ParamTypeString, Description: "todo, in-progress or completed (default todo)", Flag: true},
		},
		Handler: func(args []string) bool {
			fs, desc, priority, due, status := newAddFlags()
			if err := fs.Parse(args); err != nil {
				printf("Error: %v\n", err)
				return false
			}
			if fs.NArg() == 0 {
				printLine("Usage: /add <title> [--desc text] [--priority low|medium|high] [--due YYYY-MM-DD]")
				return false
			}

			draft := task.Draft{
				Title:       strings.Join(fs.Args(), " "),
				Description: *desc,
			}
			if *priority != "" {
				p, err := task.ParsePriority(*priority)
				if err != nil {
					printf("Error: %v\n", err)
					return false
				}
				draft.Priority = p
			}
			if *status != "" {
				s, err := task.ParseStatus(*status)
				if err != nil {
					printf("Error: %v\n", err)
					return false
				}
				draft.Status = s
			}
			if *due != "" {
				d, err := parseDue(*due)
				if err != nil {
					printf("Error: %v\n", err)
					return false
				}
				draft.DueDate = d
			}

			created, err := GetStore().Create(draft)
			if err != nil {
				printf("Error creating task: %v\n", err)
				return false
			}

			printf("Created task: %s (ID: %s)\n", created.Title, GetStore().ShortID(created.ID))
			return false
		},
	})

	Register(&Command{
		Name:        "/show",
		Description: "Show every field of a task",
		Usage:       "/show <task-id>",
		Params: []Param{
			{Name: "task_id", Type: ParamTypeString, Description: "The ID of the task", Required: true},
		},
		Handler: func(args []string) bool {
			if len(args) == 0 {
				printLine("Usage: /show <task-id>")
				return false
			}

			id, ok := resolveTask(args[0])
			if !ok {
				return false
			}
			t, err := GetStore().Get(id)
			if err != nil {
				printf("Error: %v\n", err)
				return false
			}

			printf("%s %s\n", statusIcon(t.Status), t.Title)
			printf("  ID:          %s\n", t.ID)
			if t.Description != "" {
				printf("  Description: %s\n", t.Description)
			}
			printf("  Status:      %s\n", t.Status.Label())
			printf("  Priority:    %s\n", t.Priority)
			if t.DueDate != nil {
				due := t.DueDate.Format(dateLayout)
				if task.IsOverdue(t, GetStore().Now()) {
					due += " (overdue)"
				}
				printf("  Due:         %s\n", due)
			}
			printf("  Created:     %s\n", t.CreatedAt.Local().Format(time.DateTime))
			printf("  Updated:     %s\n", t.UpdatedAt.Local().Format(time.DateTime))
			return false
		},
	})

	Register(&Command{
		Name:        "/edit",
		Description: "Change a task's title and/or description",
		Usage:       "/edit <task-id> [--title text] [--desc text]",
		Params: []Param{
			{Name: "task_id", Type: ParamTypeString, Description: "The ID of the task to edit", Required: true},
			{Name: "title", Type: ParamTypeString, Description: "New title", Flag: true},
			{Name: "desc", Type: ParamTypeString, Description: "New description (empty string clears it)", Flag: true},
		},
		Handler: func(args []string) bool {
			fs := pflag.NewFlagSet("edit", pflag.ContinueOnError)
			fs.SetOutput(io.Discard)
			title := fs.StringP("title", "t", "", "new title")
			desc := fs.StringP("desc", "d", "", "new description")
			if err := fs.Parse(args); err != nil {
				printf("Error: %v\n", err)
				return false
			}
			if fs.NArg() == 0 || (!fs.Changed("title") && !fs.Changed("desc")) {
				printLine("Usage: /edit <task-id> [--title text] [--desc text]")
				return false
			}

			var patch task.Patch
			if fs.Changed("title") {
				patch.Title = title
			}
			if fs.Changed("desc") {
				patch.Description = desc
			}
			updateTask(fs.Arg(0), patch, "Updated task %s")
			return false
		},
	})

	Register(&Command{
		Name:        "/status",
		Description: "Set a task's status",
		Usage:       "/status <task-id> <todo|in-progress|completed>",
		Params: []Param{
			{Name: "task_id", Type: ParamTypeString, Description: "The ID of the task", Required: true},
			{Name: "status", Type: ParamTypeString, Description: "todo, in-progress or completed", Required: true},
		},
		Handler: func(args []string) bool {
			if len(args) < 2 {
				printLine("Usage: /status <task-id> <todo|in-progress|completed>")
				return false
			}

			status, err := task.ParseStatus(args[1])
			if err != nil {
				printf("Error: %v\n", err)
				return false
			}
			updateTask(args[0], task.Patch{Status: &status}, "Marked task %s as "+status.Label())
			return false
		},
	})

	Register(&Command{
		Name:        "/done",
		Description: "Mark a task as completed",
		Usage:       "/done <task-id>",
		Params: []Param{
			{Name: "task_id", Type: ParamTypeString, Description: "The ID of the task to mark as completed", Required: true},
		},
		Handler: func(args []string) bool {
			if len(args) == 0 {
				printLine("Usage: /done <task-id>")
				return false
			}

			status := task.StatusCompleted
			updateTask(args[0], task.Patch{Status: &status}, "Marked task %s as completed ✓")
			return false
		},
	})

	Register(&Command{
		Name:        "/cycle",
		Description: "Advance a task's status: todo -> in-progress -> completed -> todo",
		Usage:       "/cycle <task-id>",
		Params: []Param{
			{Name: "task_id", Type: ParamTypeString, Description: "The ID of the task", Required: true},
		},
		Handler: func(args []string) bool {
			if len(args) == 0 {
				printLine("Usage: /cycle <task-id>")
				return false
			}

			id, ok := resolveTask(args[0])
			if !ok {
				return false
			}
			t, err := GetStore().Cycle(id)
			if err != nil {
				printf("Error: %v\n", err)
				return false
			}
			printf("Task %s is now %s\n", GetStore().ShortID(t.ID), t.Status.Label())
			return false
		},
	})

	Register(&Command{
		Name:        "/priority",
		Description: "Set a task's priority",
		Usage:       "/priority <task-id> <low|medium|high>",
		Params: []Param{
			{Name: "task_id", Type: ParamTypeString, Description: "The ID of the task", Required: true},
			{Name: "priority", Type: ParamTypeString, Description: "low, medium or high", Required: true},
		},
		Handler: func(args []string) bool {
			if len(args) < 2 {
				printLine("Usage: /priority <task-id> <low|medium|high>")
				return false
			}

			priority, err := task.ParsePriority(args[1])
			if err != nil {
				printf("Error: %v\n", err)
				return false
			}
			updateTask(args[0], task.Patch{Priority: &priority}, "Set priority for task %s to "+string(priority))
			return false
		},
	})

	Register(&Command{
		Name:        "/due",
		Description: "Set a task's due date",
		Usage:       "/due <task-id> <YYYY-MM-DD|none>",
		Params: []Param{
			{Name: "task_id", Type: ParamTypeString, Description: "The ID of the task", Required: true},
			{Name: "date", Type: ParamTypeString, Description: "Due date in YYYY-MM-DD format, or 'none' to clear", Required: true},
		},
		Handler: func(args []string) bool {
			if len(args) < 2 {
				printLine("Usage: /due <task-id> <YYYY-MM-DD|none>")
				return false
			}

			dateStr := args[1]
			if dateStr == "none" {
				updateTask(args[0], task.Patch{ClearDueDate: true}, "Cleared due date for task %s")
				return false
			}

			dueDate, err := parseDue(dateStr)
			if err != nil {
				printLine("Error: Invalid date format. Use YYYY-MM-DD (e.g., 2024-12-31)")
				return false
			}
			updateTask(args[0], task.Patch{DueDate: dueDate}, "Set due date for task %s to "+dueDate.Format(dateLayout))
			return false
		},
	})

	Register(&Command{
		Name:        "/delete",
		Description: "Delete a task",
		Usage:       "/delete <task-id>",
		Destructive: true,
		Params: []Param{
			{Name: "task_id", Type: ParamTypeString, Description: "The ID of the task to delete", Required: true},
		},
		Handler: func(args []string) bool {
			if len(args) == 0 {
				printLine("Usage: /delete <task-id>")
				return false
			}

			id, ok := resolveTask(args[0])
			if !ok {
				return false
			}
			if err := GetStore().Delete(id); err != nil {
				printf("Error: %v\n", err)
				return false
			}

			printf("Deleted task: %s\n", args[0])
			return false
		},
	})
}

func newAddFlags() (fs *pflag.FlagSet, desc, priority, due, status *string) {
	fs = pflag.NewFlagSet("add", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	desc = fs.StringP("desc", "d", "", "description")
	priority = fs.StringP("priority", "p", "", "low, medium or high")
	due = fs.String("due", "", "due date (YYYY-MM-DD)")
	status = fs.StringP("status", "s", "", "initial status")
	return fs, desc, priority, due, status
}

// resolveTask turns a full id or a 6+ char prefix into a task id,
// printing the error if it can't.
func resolveTask(arg string) (string, bool) {
	id, err := GetStore().Resolve(arg)
	if err != nil {
		printf("Error: %v\n", err)
		return "", false
	}
	return id, true
}

// updateTask applies the patch and prints msg with the task's short id
func updateTask(arg string, patch task.Patch, msg string) {
	id, ok := resolveTask(arg)
	if !ok {
		return
	}

	t, err := GetStore().Update(id, patch)
	if err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			printf("Error: task not found: %s\n", arg)
			return
		}
		printf("Error: %v\n", err)
		return
	}
	printf(msg+"\n", GetStore().ShortID(t.ID))
}

// parseDue accepts YYYY-MM-DD (midnight UTC) or a full RFC 3339 timestamp
func parseDue(s string) (*time.Time, error) {
	if d, err := time.Parse(dateLayout, s); err == nil {
		return &d, nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return &d, nil
}
