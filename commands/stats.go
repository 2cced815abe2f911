package commands

func init() {
	Register(&Command{
		Name:        "/stats",
		Description: "Show task counts by status, overdue count and completion rate",
		Usage:       "/stats",
		Handler: func(args []string) bool {
			stats := GetStore().Stats()

			printLine("Task statistics:")
			printf("  Total:       %d\n", stats.Total)
			printf("  To do:       %d\n", stats.Todo)
			printf("  In progress: %d\n", stats.InProgress)
			printf("  Completed:   %d\n", stats.Completed)
			printf("  Overdue:     %d\n", stats.Overdue)
			printf("  Completion:  %d%%\n", stats.CompletionRate())
			return false
		},
	})
}
