package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gdmigrate/internal/adapter/diagnostics"
	"gdmigrate/internal/adapter/fs"
	"gdmigrate/internal/adapter/memstore"
	"gdmigrate/internal/adapter/store"
	"gdmigrate/internal/domain"
	"gdmigrate/internal/usecase"
)

var (
	checkFormat   string
	checkSeverity string
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Report what a migration would leave unresolved",
	Long: `Run the migration pipeline without writing and report diagnostics:
unresolved orphans, references to suppressed code and legacy syntax that no
rule could translate. Exits with status 1 when any warning or error is found.

Examples:
  gdmigrate check                    # Human-readable report
  gdmigrate check --format json      # Machine-readable report
  gdmigrate check --min-severity warning`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "text", "output format: text or json")
	checkCmd.Flags().StringVar(&checkSeverity, "min-severity", "info", "lowest severity to report: info, warning, error")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	if checkFormat != "text" && checkFormat != "json" {
		return exitErr(ExitContract, fmt.Errorf("unknown format %q", checkFormat))
	}
	minSeverity, err := diagnostics.ParseSeverity(checkSeverity)
	if err != nil {
		return exitErr(ExitContract, err)
	}

	walker, err := buildWalker(cfg, root, nil)
	if err != nil {
		return exitErr(ExitContract, err)
	}
	pipeline, err := usecase.NewPipeline(cfg)
	if err != nil {
		return exitErr(ExitContract, err)
	}

	collector := diagnostics.NewCollector()
	collector.MinSeverity = minSeverity

	checkUC := usecase.NewMigrateUseCase(pipeline, walker, fs.NewAtomicWriter(), memstore.NewMemoryStore(), collector, store.ComputeConfigHash(cfg), log)
	summary, runErr := checkUC.Migrate(cmd.Context(), usecase.MigrateOptions{
		Root:   root,
		Files:  args,
		DryRun: true,
		Jobs:   cfg.Migrate.Jobs,
	})
	if runErr != nil {
		return exitErr(exitCode(summary, runErr), runErr)
	}

	for _, f := range summary.Failures {
		collector.Add(diagnostics.Record{
			File:     f.Path,
			Severity: diagnostics.Error,
			Code:     domain.KindOf(f.Err).String(),
			Message:  f.Err.Error(),
		})
	}

	records := collector.Records()
	out := cmd.OutOrStdout()
	if checkFormat == "json" {
		err = diagnostics.NewJSONPrinter(out).Print(records)
	} else {
		err = diagnostics.NewTextPrinter(out, isTerminal(os.Stdout)).Print(records)
		if err == nil {
			counts := collector.Counts()
			fmt.Fprintf(out, "\n%d files checked: %d errors, %d warnings, %d info\n",
				summary.FilesScanned, counts[diagnostics.Error], counts[diagnostics.Warning], counts[diagnostics.Info])
		}
	}
	if err != nil {
		return exitErr(ExitIO, fmt.Errorf("failed to write report: %w", err))
	}

	code := exitCode(summary, nil)
	if code == ExitOK && collector.HasProblems() {
		code = ExitUnresolved
	}
	return exitErr(code, nil)
}
