package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"browsercov/adapters/rules"
	"browsercov/app"
	"browsercov/domain/usage"
	"browsercov/internal"
	"browsercov/internal/config"
	"browsercov/internal/report"
	"browsercov/internal/testkit"
)

type globalOptions struct {
	rulesFile string
	columns   string
	verbose   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "browsercov",
		Short:         "Find the browser versions that cover most of your visitors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.rulesFile, "rules", os.Getenv("RULES_FILE"), "YAML file with vendor rules merged over the built-in ones")
	rootCmd.PersistentFlags().StringVar(&opts.columns, "columns", "auto", "Column naming preset: auto, legacy or ga4")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log progress to stderr")

	rootCmd.AddCommand(
		newReportCmd(opts),
		newBrowsersCmd(opts),
		newRulesCmd(opts),
		newSampleCmd(),
	)
	return rootCmd
}

func newReportCmd(opts *globalOptions) *cobra.Command {
	var threshold float64
	var sortMode string
	var format string
	var outPath string

	cmd := &cobra.Command{
		Use:   "report <export-file>",
		Short: "List the browser versions covering a share of users",
		Long: `Aggregate an analytics export (CSV or XLSX) and list the most used browser
versions until their users reach the threshold.

Example: browsercov report audience.csv --threshold 97.5 --sort name --format markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			svc, err := newService(cmd, opts)
			if err != nil {
				return err
			}
			dataset, err := svc.LoadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rep, err := svc.Coverage(threshold, sortMode)
			if err != nil {
				return err
			}

			doc := report.Document{
				Source:      dataset.Name,
				GeneratedAt: time.Now().UTC(),
				Selection:   rep.Selection,
				Summary:     dataset.Summary,
				Browsers:    dataset.Browsers,
				Warnings:    dataset.Warnings,
			}
			return withOutput(cmd, outPath, func(w io.Writer) error {
				return report.Write(w, f, doc)
			})
		},
	}

	cmd.Flags().Float64VarP(&threshold, "threshold", "t", config.DefaultThreshold, "Percentage of users to cover (0-100)")
	cmd.Flags().StringVarP(&sortMode, "sort", "s", config.DefaultSort, "Order of the listing: usage or name")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, markdown, html, json or xlsx")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to this file instead of stdout")

	return cmd
}

func newBrowsersCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browsers <export-file>",
		Short: "Print users per browser and version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cmd, opts)
			if err != nil {
				return err
			}
			dataset, err := svc.LoadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, b := range dataset.Browsers {
				fmt.Fprintf(out, "%s (%s users)\n", b.Name, report.Users(b.Users()))
				for _, v := range b.Versions {
					fmt.Fprintf(out, "  %s: %s\n", v.Version, report.Users(v.Users))
				}
			}
			return nil
		},
	}
}

func newRulesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the effective vendor rules as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			effective, err := app.RulesFromFile(opts.rulesFile)
			if err != nil {
				return err
			}
			return rules.Encode(cmd.OutOrStdout(), effective)
		},
	}
}

func newSampleCmd() *cobra.Command {
	var seed int64
	var totalUsers float64
	var preset string
	var outPath string

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic analytics export for trying the tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			genConfig := testkit.DefaultExportConfig()
			genConfig.Seed = seed
			genConfig.TotalUsers = totalUsers
			switch preset {
			case "legacy":
				genConfig.Columns = usage.LegacyColumns
			case "ga4":
				genConfig.Columns = usage.GA4Columns
			default:
				return fmt.Errorf("unknown column preset %q (want legacy or ga4)", preset)
			}
			return withOutput(cmd, outPath, testkit.NewExportGenerator(genConfig).WriteCSV)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic output")
	cmd.Flags().Float64Var(&totalUsers, "users", 250000, "Approximate total users across all rows")
	cmd.Flags().StringVar(&preset, "preset", "legacy", "Header naming: legacy or ga4")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to this file instead of stdout")

	return cmd
}

func newService(cmd *cobra.Command, opts *globalOptions) (*app.CoverageService, error) {
	effective, err := app.RulesFromFile(opts.rulesFile)
	if err != nil {
		return nil, err
	}
	level := internal.LogLevelWarn
	if opts.verbose {
		level = internal.LogLevelDebug
	}
	logger := internal.NewLoggerTo(level, cmd.ErrOrStderr())
	internal.DefaultLogger = logger
	return app.NewCoverageService(effective, opts.columns, logger), nil
}

func withOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
