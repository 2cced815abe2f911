package commands

func init() {
	quit := func(args []string) bool {
		if err := GetStore().LastPersistError(); err != nil {
			printf("Warning: last save failed: %v\n", err)
		}
		printLine("Goodbye!")
		return true
	}

	Register(&Command{
		Name:        "/quit",
		Description: "Exit Taskboard",
		Hidden:      true,
		Handler:     quit,
	})

	// Alias
	Register(&Command{
		Name:        "/exit",
		Description: "Exit Taskboard",
		Hidden:      true,
		Handler:     quit,
	})
}
