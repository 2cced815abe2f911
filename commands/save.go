package commands

import (
	"context"
	"time"
)

const saveTimeout = 10 * time.Second

func init() {
	Register(&Command{
		Name:        "/save",
		Description: "Write all tasks to storage now",
		Usage:       "/save",
		Hidden:      true,
		Handler: func(args []string) bool {
			if persister == nil {
				printLine("Error: no storage configured")
				return false
			}

			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			defer cancel()

			if err := GetStore().Flush(ctx, persister); err != nil {
				printf("Error saving tasks: %v\n", err)
				return false
			}
			printf("Saved %d tasks\n", GetStore().Len())
			return false
		},
	})

	Register(&Command{
		Name:        "/storage",
		Description: "Show storage status",
		Usage:       "/storage",
		Hidden:      true,
		Handler: func(args []string) bool {
			if err := GetStore().LoadError(); err != nil {
				printf("Load:      failed, started empty (%v)\n", err)
			} else {
				printLine("Load:      ok")
			}
			if err := GetStore().LastPersistError(); err != nil {
				printf("Last save: failed (%v)\n", err)
			} else {
				printLine("Last save: ok")
			}
			return false
		},
	})
}
