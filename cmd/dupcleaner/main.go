package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fenilsonani/dupcleaner/internal/config"
	"github.com/fenilsonani/dupcleaner/internal/reporter"
	"github.com/fenilsonani/dupcleaner/internal/retention"
	"github.com/fenilsonani/dupcleaner/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath   string
	verbose      bool
	dryRun       bool
	force        bool
	keepNewest   bool
	policyName   string
	showTree     bool
	outputFmt    string
	outputFile   string
	manifestPath string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dupcleaner",
	Short: "Find and remove duplicate files",
	Long: `dupcleaner finds files with identical content under the folders you give it
and moves the redundant copies to the trash, keeping one file per group.

Without path arguments the folders saved by the previous run are used.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Scan folders for duplicate files",
	Long:  `Scans the given folders and reports duplicate groups without changing anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, args)
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.Scan(cmd.Context()); err != nil {
			return err
		}

		groups := app.sess.Groups()
		if err := reporter.New(os.Stdout, reporter.FormatSummary, Version).Report(groups); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		if showTree && len(groups) > 0 {
			ui.PrintGroupTree(os.Stdout, groups, retention.KeptPaths(app.sess.Plan()), 5)
		}
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean [paths...]",
	Short: "Scan folders and delete duplicate copies",
	Long: `Scans the given folders, then moves every duplicate except one per group to
the trash. Files whose name matches a lock pattern are never touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, args)
		if err != nil {
			return err
		}
		defer app.Close()

		return app.Clean(cmd.Context())
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [paths...]",
	Short: "Export duplicate groups as json, txt, yaml or a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := reporter.ParseFormat(outputFmt)
		if err != nil {
			return err
		}

		app, err := openApp(cmd, args)
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.Scan(cmd.Context()); err != nil {
			return err
		}

		groups := app.sess.Groups()
		if outputFile != "" {
			err = reporter.SaveToFile(groups, outputFile, format, Version)
		} else {
			err = reporter.New(os.Stdout, format, Version).Report(groups)
		}

		switch {
		case errors.Is(err, reporter.ErrNoDuplicates):
			fmt.Fprintln(os.Stderr, "No duplicates found; nothing exported.")
			return nil
		case err != nil:
			return fmt.Errorf("failed to export: %w", err)
		}

		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Exported %d groups to %s\n", len(groups), outputFile)
			app.log.Printf("Exported %d groups to %s (%s)", len(groups), outputFile, format)
		}
		return nil
	},
}

var reviewCmd = &cobra.Command{
	Use:     "review [paths...]",
	Aliases: []string{"interactive", "tui"},
	Short:   "Review duplicates interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, args)
		if err != nil {
			return err
		}
		defer app.Close()

		return ui.RunInteractive(app.sess)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display the configuration file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath := configPath
		if cfgPath == "" {
			var err error
			if cfgPath, err = config.GetConfigPath(); err != nil {
				return err
			}
		}

		fmt.Printf("Config file: %s\n", cfgPath)
		fmt.Printf("Settings file: %s\n", config.SettingsPath())

		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			fmt.Println("Config file does not exist. Using default configuration.")
			fmt.Println("\nTo create a config file:")
			fmt.Println("  dupcleaner config init")
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example configuration file if none exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.EnsureConfigExists()
		if err != nil {
			return err
		}
		fmt.Printf("Config file: %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "mirror the event log to stderr")
	rootCmd.PersistentFlags().BoolVar(&keepNewest, "keep-newest", false, "keep the most recently modified file of each group instead of the first found")
	rootCmd.PersistentFlags().StringVar(&policyName, "policy", "", "retention policy: keep-first or keep-newest")

	// Scan command flags
	scanCmd.Flags().BoolVarP(&showTree, "tree", "t", false, "list every group as a tree")

	// Clean command flags
	cleanCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deleted without actually deleting")
	cleanCmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompts")
	cleanCmd.Flags().StringVar(&manifestPath, "manifest", "", "write a JSON list of deleted files to this path")

	// Review command flags
	reviewCmd.Flags().BoolVar(&dryRun, "dry-run", false, "simulate deletions")

	// Export command flags
	exportCmd.Flags().StringVar(&outputFmt, "format", "json", "output format (json, txt, yaml, summary)")
	exportCmd.Flags().StringVar(&outputFile, "file", "", "save the export to a file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}

	return config.Load(cfgPath)
}
