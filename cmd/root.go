package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quill-ai/quill/internal/config"
	"github.com/quill-ai/quill/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Language-server powered code intelligence for the terminal",
	Long: `Quill talks to language servers on your behalf: it spawns the right
server for a file, keeps it warm, and exposes diagnostics, navigation and
symbol search as plain commands.`,
	Example: `
  # Show diagnostics for a file
  quill lsp diagnostics main.go

  # Jump to a definition
  quill lsp definition main.go 42 10

  # Search workspace symbols
  quill lsp search main.go NewManager

  # Print version
  quill -v
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flag("version").Changed {
			fmt.Println(version.Version)
			return nil
		}
		return cmd.Help()
	},
}

// loadConfig resolves the working directory and loads configuration; shared
// by every subcommand.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	cwd, _ := cmd.Flags().GetString("cwd")

	if cwd != "" {
		if err := os.Chdir(cwd); err != nil {
			return nil, fmt.Errorf("failed to change directory: %w", err)
		}
	} else {
		c, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		cwd = c
	}

	return config.Load(cwd, debug)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Version")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
}
