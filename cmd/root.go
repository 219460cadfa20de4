// Package cmd implements the resourced CLI using the cobra framework.
// Every subcommand maps to exactly one ResourcesManager method call and
// relays its TaskList's progress envelope verbatim to stdout.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/otusforge/resourced/internal/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:     "resourced",
	Short:   "Manage plugin-defined resources and their lifecycle",
	Version: "0.1.0",
}

// Execute runs the root command with the child commands registered in
// init. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults built in if omitted)")

	rootCmd.AddCommand(newResourceCmd("node"))
	rootCmd.AddCommand(newResourceCmd("wallet"))
}

func loadRuntime() *runtime {
	cfg, err := config.Load(configFile)
	if err != nil {
		exitWithError("load config", err)
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		exitWithError("build runtime", err)
	}
	return rt
}

func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
