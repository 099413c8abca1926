// cmd/codantix/main.go
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	// Register providers via init() side effects.
	_ "github.com/codantix/codantix/internal/provider/anthropic"
	_ "github.com/codantix/codantix/internal/provider/openai"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	configPath  string
	versionFlag string
	freezeFlag  bool
	verboseFlag bool
)

func versionString() string {
	return fmt.Sprintf("codantix %s (commit: %s, built: %s)", version, commit, date)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "codantix",
		Short: "Automated code documentation and vector database management",
		Long:  "codantix — generates documentation for code elements and keeps a vector database in sync with the codebase.",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if verboseFlag {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "enable debug logging")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Document the entire repository",
		Long:  "Scans all configured source paths, generates documentation for every code element, and updates the vector database.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFullScan(cmd.Context(), freezeFlag)
		},
	}
	initCmd.Flags().StringVar(&versionFlag, "version", "", "version identifier for the indexed code")
	initCmd.Flags().BoolVar(&freezeFlag, "freeze", false, "only extract and embed existing docstrings, do not generate")

	docPRCmd := &cobra.Command{
		Use:   "doc-pr <sha>",
		Short: "Document changes in a pull request",
		Long:  "Scans the code changes in the given commit, generates documentation for changed elements, and updates the vector database.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocPR(cmd.Context(), args[0])
		},
	}
	docPRCmd.Flags().StringVar(&versionFlag, "version", "", "version identifier for the indexed code")

	updateDBCmd := &cobra.Command{
		Use:   "update-db",
		Short: "Update the vector database with documentation",
		Long:  "Scans all configured source paths, generates documentation for every code element, and rewrites the vector database.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFullScan(cmd.Context(), false)
		},
	}
	updateDBCmd.Flags().StringVar(&versionFlag, "version", "", "version identifier for the indexed code")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(versionString())
		},
	}

	rootCmd.AddCommand(initCmd, docPRCmd, updateDBCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
