package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"gdmigrate/config"
	"gdmigrate/internal/adapter/fs"
	"gdmigrate/internal/adapter/memstore"
	"gdmigrate/internal/adapter/store"
	"gdmigrate/internal/domain"
	"gdmigrate/internal/port"
	"gdmigrate/internal/usecase"
)

var (
	dryRun      bool
	backup      bool
	excludeDirs []string
	jobs        int
	noCache     bool
	showDiff    bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [files...]",
	Short: "Rewrite GDScript files in place",
	Long: `Migrate every .gd file under the project root, or only the files given.
Files are rewritten atomically and only when their content changes.

Examples:
  gdmigrate migrate                       # Migrate the current project
  gdmigrate migrate --dry-run --diff      # Preview changes as unified diffs
  gdmigrate migrate -d game player.gd     # Migrate one file of ./game`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing")
	migrateCmd.Flags().BoolVar(&backup, "backup", false, "copy the project tree before writing")
	migrateCmd.Flags().StringArrayVar(&excludeDirs, "exclude-dir", nil, "additional directory name pattern to skip (repeatable)")
	migrateCmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "parallel workers (default from config, 0 = CPUs)")
	migrateCmd.Flags().BoolVar(&noCache, "no-cache", false, "process every file even if it was clean last run")
	migrateCmd.Flags().BoolVar(&showDiff, "diff", false, "print a unified diff for each changed file")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return exitErr(ExitContract, fmt.Errorf("project root is not a directory: %s", root))
	}
	if cmd.Flags().Changed("backup") {
		cfg.Migrate.Backup = backup
	}
	if cmd.Flags().Changed("jobs") {
		cfg.Migrate.Jobs = jobs
	}
	if err := cfg.Validate(); err != nil {
		return exitErr(ExitContract, err)
	}

	walker, err := buildWalker(cfg, root, excludeDirs)
	if err != nil {
		return exitErr(ExitContract, err)
	}
	pipeline, err := usecase.NewPipeline(cfg)
	if err != nil {
		return exitErr(ExitContract, err)
	}

	useCache := cfg.Cache.Enabled && !noCache && !dryRun
	state, err := openState(cfg, root, !dryRun)
	if err != nil {
		return exitErr(ExitIO, err)
	}
	defer state.Close()

	migrateUC := usecase.NewMigrateUseCase(pipeline, walker, fs.NewAtomicWriter(), state, nil, store.ComputeConfigHash(cfg), log)

	opts := usecase.MigrateOptions{
		Root:         root,
		Files:        args,
		DryRun:       dryRun,
		Backup:       cfg.Migrate.Backup,
		BackupPrefix: cfg.Migrate.BackupPrefix,
		Jobs:         cfg.Migrate.Jobs,
		Diff:         showDiff,
		UseCache:     useCache,
	}
	if !quiet && isTerminal(os.Stderr) {
		opts.Progress = newProgress("Migrating")
	}

	log.Info().Str("root", root).Bool("dry_run", dryRun).Msg("migration started")
	summary, runErr := migrateUC.Migrate(cmd.Context(), opts)
	if summary != nil {
		out := cmd.OutOrStdout()
		printChanges(out, summary, dryRun, showDiff)
		printSummary(out, summary, dryRun, isTerminal(os.Stdout))
	}

	code := exitCode(summary, runErr)
	return exitErr(code, runErr)
}

// buildWalker applies the configured and command-line exclusions.
func buildWalker(cfg *config.Config, root string, extraDirs []string) (*fs.Walker, error) {
	dirs := append(append([]string(nil), cfg.Migrate.ExcludeDirs...), extraDirs...)
	if cfg.Migrate.BackupPrefix != "" {
		dirs = append(dirs, cfg.Migrate.BackupPrefix+"*")
	}
	walker := fs.NewWalker(cfg.Migrate.Includes, dirs, cfg.Migrate.ExcludeFiles)

	ignoreFiles := []string{".gdmigrateignore"}
	if cfg.Migrate.RespectGitignore {
		ignoreFiles = append(ignoreFiles, ".gitignore")
	}
	if err := walker.UseIgnoreFiles(root, ignoreFiles...); err != nil {
		return nil, fmt.Errorf("failed to read ignore files: %w", err)
	}
	return walker, nil
}

// openState opens the project's state database, or an in-memory store
// when persist is false or caching is off.
func openState(cfg *config.Config, root string, persist bool) (port.StateStore, error) {
	if !persist || !cfg.Cache.Enabled {
		return memstore.NewMemoryStore(), nil
	}
	if err := config.EnsureStateDir(root); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	st, err := store.NewBoltStore(config.StateDBPath(root))
	if err != nil {
		return nil, err
	}
	result, err := st.Prepare(cfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to prepare state database: %w", err)
	}
	if result.NeedsRebuild {
		log.Info().Str("reason", result.Reason).Msg("clean-file cache cleared")
	} else if result.NeedsMigration {
		log.Debug().Str("reason", result.Reason).Msg("state database migrated")
	}
	return st, nil
}

// newProgress returns a progress callback drawing a bar on stderr. The
// bar is created on the first callback, once the total is known.
func newProgress(label string) func(done, total int, rel string) {
	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	return func(done, total int, rel string) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+label+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
		}

		_ = bar.Set(done)

		if done > 0 {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			remaining := total - done
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]%s[reset] ETA: %s", label, formatDuration(eta)))
			}
		}
	}
}

func printChanges(out io.Writer, s *domain.Summary, dry, diff bool) {
	for _, c := range s.Changes {
		suffix := ""
		if dry {
			suffix = " [dry-run]"
		}
		fmt.Fprintf(out, "%s (%d fixes)%s\n", c.Path, c.Fixes, suffix)
		if diff && c.Diff != "" {
			fmt.Fprint(out, c.Diff)
		}
	}
}

func printSummary(out io.Writer, s *domain.Summary, dry, useColor bool) {
	title := color.New(color.Bold)
	warn := color.New(color.FgYellow, color.Bold)
	bad := color.New(color.FgRed, color.Bold)
	for _, c := range []*color.Color{title, warn, bad} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	heading := "Migration complete:"
	if dry {
		heading = "Dry run complete (no files written):"
	}
	fmt.Fprintf(out, "\n%s\n", title.Sprint(heading))
	fmt.Fprintf(out, "  Files scanned:  %d\n", s.FilesScanned)
	fmt.Fprintf(out, "  Files modified: %d\n", s.FilesModified)
	if s.FilesCached > 0 {
		fmt.Fprintf(out, "  Files cached:   %d (clean last run)\n", s.FilesCached)
	}
	fmt.Fprintf(out, "  Total fixes:    %d\n", s.TotalFixes)

	unresolved := fmt.Sprintf("%d", s.Unresolved)
	if s.Unresolved > 0 {
		unresolved = warn.Sprint(unresolved)
	}
	fmt.Fprintf(out, "  Unresolved:     %s\n", unresolved)

	if len(s.RuleTotals) > 0 {
		names := make([]string, 0, len(s.RuleTotals))
		for name := range s.RuleTotals {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(out, "\n%s\n", title.Sprint("Fixes by rule:"))
		for _, name := range names {
			fmt.Fprintf(out, "  %-28s %d\n", name, s.RuleTotals[name])
		}
	}

	if len(s.Failures) > 0 {
		fmt.Fprintf(out, "\n%s\n", bad.Sprintf("Failures (%d):", len(s.Failures)))
		for _, f := range s.Failures {
			fmt.Fprintf(out, "  - %s: %v\n", filepath.ToSlash(f.Path), f.Err)
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
