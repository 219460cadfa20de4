package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/otusforge/resourced/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect server configuration",
}

var configExampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print the default configuration as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		b, err := yaml.Marshal(config.Default())
		if err != nil {
			exitWithError("marshal default config", err)
		}
		fmt.Print(string(b))
	},
}

func init() {
	configCmd.AddCommand(configExampleCmd)
	rootCmd.AddCommand(configCmd)
}
