package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taskboard/commands"
	"taskboard/task"
)

// runOnce opens the app, runs one registry command and closes it again
func runOnce(cmd *cobra.Command, flags *globalFlags, line string) error {
	a, err := newApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := commands.Execute(line); err != nil {
		return err
	}
	if err := a.store.LastPersistError(); err != nil {
		return fmt.Errorf("task changed in memory but not saved: %w", err)
	}
	return nil
}

func addCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs := map[string]any{"title": strings.Join(args, " ")}
			for _, name := range []string{"description", "priority", "due", "status"} {
				if !cmd.Flags().Changed(name) {
					continue
				}
				v, _ := cmd.Flags().GetString(name)
				key := name
				if name == "description" {
					key = "desc"
				}
				toolArgs[key] = v
			}

			line, err := commands.BuildCommandLine("add", toolArgs)
			if err != nil {
				return err
			}
			return runOnce(cmd, flags, line)
		},
	}

	cmd.Flags().StringP("description", "d", "", "Longer description")
	cmd.Flags().StringP("priority", "p", "", "Priority (low, medium, high)")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringP("status", "s", "", "Initial status (todo, in-progress, completed)")

	return cmd
}

func listCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			search, _ := cmd.Flags().GetString("search")

			filter, err := task.ParseFilter(status)
			if err != nil {
				return err
			}

			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			commands.SetView(filter, search)
			_, err = commands.Execute("/list")
			return err
		},
	}

	cmd.Flags().StringP("status", "s", "all", "Status filter (all, todo, in-progress, completed)")
	cmd.Flags().StringP("search", "q", "", "Only tasks whose title or description contains this text")

	return cmd
}

func statsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts and completion rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, flags, "/stats")
		},
	}
}

func deleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task by ID or ID prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := commands.BuildCommandLine("delete", map[string]any{"task_id": args[0]})
			if err != nil {
				return err
			}
			return runOnce(cmd, flags, line)
		},
	}
}
