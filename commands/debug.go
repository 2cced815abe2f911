package commands

import "sync/atomic"

var debugMode atomic.Bool

func init() {
	Register(&Command{
		Name:        "/debug",
		Description: "Toggle debug mode for LLM interactions",
		Hidden:      true,
		Handler: func(args []string) bool {
			on := !debugMode.Load()
			debugMode.Store(on)
			if on {
				printLine("Debug mode: ON")
			} else {
				printLine("Debug mode: OFF")
			}
			return false
		},
	})
}

// IsDebugMode returns whether debug mode is enabled
func IsDebugMode() bool {
	return debugMode.Load()
}
