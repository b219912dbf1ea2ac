package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gdmigrate/config"
	"gdmigrate/internal/domain"
	"gdmigrate/internal/logging"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitUnresolved = 1
	ExitIO         = 2
	ExitContract   = 3
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	logLevel string
	quiet    bool
	log      = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "gdmigrate",
	Short: "Migrate GDScript sources from Godot 3 to Godot 4 syntax",
	Long: `gdmigrate rewrites legacy GDScript in place: it translates Godot 3 idioms,
repairs broken indentation, re-homes orphaned statements and puts class members
into canonical order.

Example usage:
  gdmigrate migrate --dry-run --diff   # Show what would change
  gdmigrate migrate --backup           # Back up the tree, then rewrite it
  gdmigrate check --format json        # Report leftovers without writing`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return exitErr(ExitContract, fmt.Errorf("failed to get working directory: %w", err))
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return exitErr(ExitContract, fmt.Errorf("failed to load config: %w", err))
		}

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		if quiet {
			level = "warn"
		}
		log, err = logging.New(level, os.Stderr, os.Stderr, !isTerminal(os.Stderr))
		if err != nil {
			return exitErr(ExitContract, err)
		}

		return nil
	},
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(os.Stderr, "Error:", ee.err)
		}
		return ee.code
	}
	// Flag and argument errors from cobra.
	fmt.Fprintln(os.Stderr, "Error:", err)
	return ExitContract
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./gdmigrate.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "project root directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// exitError carries the exit code out of a RunE. A nil err means the
// command already reported what went wrong.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func exitErr(code int, err error) error {
	if code == ExitOK {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCode derives the process status from a finished run. I/O failures
// outrank contract violations, which outrank unresolved issues.
func exitCode(summary *domain.Summary, runErr error) int {
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			return ExitIO
		}
		var fe *domain.FileError
		if errors.As(runErr, &fe) && fe.Kind != domain.PreconditionViolation {
			return ExitIO
		}
		return ExitContract
	}

	code := ExitOK
	for _, f := range summary.Failures {
		switch domain.KindOf(f.Err) {
		case domain.ReadError, domain.WriteError:
			return ExitIO
		default:
			code = ExitContract
		}
	}
	if code == ExitOK && summary.Unresolved > 0 {
		code = ExitUnresolved
	}
	return code
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
