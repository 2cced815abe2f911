package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags override values from the config file and environment
type globalFlags struct {
	configFile string
	backend    string
	dataDir    string
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Taskboard - a local task manager",
		Long:          "Taskboard keeps a list of tasks on this machine. Run without arguments for the interactive prompt.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.runREPL()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default ./.taskboard/config.yaml or ~/.taskboard/config.yaml)")
	pf.StringVar(&flags.backend, "backend", "", "storage backend: file, memory, redis, sqlite, postgres")
	pf.StringVar(&flags.dataDir, "data-dir", "", "directory for file and sqlite storage")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(addCmd(flags))
	root.AddCommand(listCmd(flags))
	root.AddCommand(statsCmd(flags))
	root.AddCommand(deleteCmd(flags))

	return root
}
