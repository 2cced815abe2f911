package commands

import (
	"slices"
	"strings"
)

func init() {
	Register(&Command{
		Name:        "/help",
		Description: "Show available commands",
		Usage:       "/help [command]",
		Hidden:      true,
		Handler: func(args []string) bool {
			if len(args) > 0 {
				cmd := GetByName(args[0])
				if cmd == nil {
					printf("Unknown command: %s\n", args[0])
					return false
				}
				printf("%s - %s\n", cmd.Name, cmd.Description)
				if cmd.Usage != "" {
					printf("Usage: %s\n", cmd.Usage)
				}
				return false
			}

			printLine("Available commands:")

			// Get all commands and sort by name
			cmds := List()
			slices.SortFunc(cmds, func(a, b *Command) int {
				return strings.Compare(a.Name, b.Name)
			})

			for _, cmd := range cmds {
				printf("  %-15s - %s\n", cmd.Name, cmd.Description)
			}
			printLine("\nAnything not starting with / is sent to the assistant, if one is configured.")

			return false
		},
	})
}
