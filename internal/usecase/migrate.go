package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"gdmigrate/internal/adapter/fs"
	"gdmigrate/internal/domain"
	"gdmigrate/internal/port"
)

// MigrateUseCase runs the pipeline over a project tree.
type MigrateUseCase struct {
	pipeline    *Pipeline
	walker      *fs.Walker
	writer      port.FileWriter
	state       port.StateStore
	reporter    port.DiagnosticsReporter
	ruleSetHash string
	log         zerolog.Logger
}

// NewMigrateUseCase creates a new migrate use case. reporter may be nil.
func NewMigrateUseCase(
	pipeline *Pipeline,
	walker *fs.Walker,
	writer port.FileWriter,
	state port.StateStore,
	reporter port.DiagnosticsReporter,
	ruleSetHash string,
	log zerolog.Logger,
) *MigrateUseCase {
	return &MigrateUseCase{
		pipeline:    pipeline,
		walker:      walker,
		writer:      writer,
		state:       state,
		reporter:    reporter,
		ruleSetHash: ruleSetHash,
		log:         log,
	}
}

// MigrateOptions controls one run.
type MigrateOptions struct {
	Root string
	// Files restricts the run to these paths instead of walking Root.
	Files        []string
	DryRun       bool
	Backup       bool
	BackupPrefix string
	Jobs         int
	Diff         bool
	UseCache     bool
	// Progress is called once per finished file, from worker goroutines.
	Progress func(done, total int, rel string)
}

// Migrate processes every candidate file. Per-file failures land in the
// summary; the returned error is reserved for failures that stop the whole
// run: discovery, backup and cancellation.
func (u *MigrateUseCase) Migrate(ctx context.Context, opts MigrateOptions) (*domain.Summary, error) {
	started := time.Now()
	summary := domain.NewSummary()
	summary.RegisterRules(u.pipeline.Counters()...)

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	files, err := u.candidates(root, opts.Files, summary)
	if err != nil {
		return nil, err
	}
	u.log.Debug().Int("files", len(files)).Str("root", root).Msg("candidates collected")

	if opts.Backup && !opts.DryRun {
		dest := filepath.Join(root, fs.BackupDirName(opts.BackupPrefix, started))
		n, err := fs.BackupTree(root, dest, u.walker)
		if err != nil {
			return nil, &domain.FileError{Kind: domain.WriteError, Path: dest, Err: err}
		}
		u.log.Info().Str("dest", dest).Int("files", n).Msg("backup created")
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for _, file := range files {
		file := file
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			res, change, err := u.safeProcess(file, opts)
			if err != nil {
				u.logFailure(file.Rel, err)
				summary.Fail(file.Rel, err)
			} else {
				summary.Merge(res, change)
				if u.reporter != nil && !res.Cached {
					u.reporter.Consume(res)
				}
			}

			n := int(done.Add(1))
			if opts.Progress != nil {
				opts.Progress(n, len(files), file.Rel)
			}
			return nil
		})
	}

	waitErr := g.Wait()
	summary.Sort()

	if !opts.DryRun {
		u.recordRun(root, started, opts, summary)
	}

	if waitErr != nil {
		return summary, waitErr
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (u *MigrateUseCase) candidates(root string, explicit []string, summary *domain.Summary) ([]port.FileInfo, error) {
	if len(explicit) == 0 {
		files, err := u.walker.Walk(root)
		if err != nil {
			return nil, fmt.Errorf("failed to walk directory: %w", err)
		}
		return files, nil
	}

	var files []port.FileInfo
	for _, p := range explicit {
		abs, info, err := statFile(p)
		if err != nil {
			fe := &domain.FileError{Kind: domain.ReadError, Path: p, Err: err}
			u.logFailure(p, fe)
			summary.Fail(p, fe)
			continue
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = abs
		}
		files = append(files, port.FileInfo{
			Path:    abs,
			Rel:     filepath.ToSlash(rel),
			ModTime: info.ModTime().Unix(),
			Size:    info.Size(),
		})
	}
	return files, nil
}

// safeProcess turns a panic inside the pipeline into a contract failure
// for that file only.
func (u *MigrateUseCase) safeProcess(file port.FileInfo, opts MigrateOptions) (res domain.FileResult, change *domain.FileChange, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.FileError{
				Kind: domain.PreconditionViolation,
				Path: file.Rel,
				Err:  fmt.Errorf("%w: panic: %v", domain.ErrPrecondition, r),
			}
		}
	}()
	return u.processFile(file, opts)
}

func (u *MigrateUseCase) processFile(file port.FileInfo, opts MigrateOptions) (domain.FileResult, *domain.FileChange, error) {
	content, err := fs.ReadFile(file.Path)
	if err != nil {
		return domain.FileResult{}, nil, &domain.FileError{Kind: domain.ReadError, Path: file.Rel, Err: err}
	}

	hash := contentHash(content)
	if opts.UseCache && u.isCachedClean(file.Rel, hash) {
		report := domain.NewTransformReport()
		report.Register(u.pipeline.Counters()...)
		return domain.FileResult{Path: file.Path, Rel: file.Rel, Report: report, Cached: true}, nil, nil
	}

	sf, err := u.pipeline.Run(file.Rel, content)
	if err != nil {
		return domain.FileResult{}, nil, err
	}

	out := sf.Render()
	res := domain.FileResult{
		Path:       file.Path,
		Rel:        file.Rel,
		Lines:      sf.Texts(),
		Categories: sf.Categories(),
		Report:     sf.Report,
		Changed:    out != content,
	}
	for _, is := range sf.Report.Issues {
		u.log.Debug().Str("path", file.Rel).Int("line", is.Line).Str("kind", string(is.Kind)).Msg(is.Message)
	}

	var change *domain.FileChange
	if res.Changed {
		change = &domain.FileChange{Path: file.Rel, Fixes: sf.Report.Fixes()}
		if opts.Diff {
			change.Diff = unifiedDiff(file.Rel, content, out)
		}
		if !opts.DryRun {
			if err := u.writer.WriteFile(file.Path, []byte(out)); err != nil {
				return domain.FileResult{}, nil, &domain.FileError{Kind: domain.WriteError, Path: file.Rel, Err: err}
			}
		}
	}

	if opts.UseCache && !opts.DryRun && len(sf.Report.Issues) == 0 {
		rec := port.FileRecord{Hash: contentHash(out), RuleSetHash: u.ruleSetHash, CheckedAt: time.Now()}
		if err := u.state.PutFile(file.Rel, rec); err != nil {
			u.log.Warn().Str("path", file.Rel).Err(err).Msg("failed to update cache")
		}
	}
	return res, change, nil
}

func (u *MigrateUseCase) isCachedClean(rel, hash string) bool {
	rec, found, err := u.state.GetFile(rel)
	if err != nil {
		u.log.Warn().Str("path", rel).Err(err).Msg("failed to read cache")
		return false
	}
	return found && rec.Hash == hash && rec.RuleSetHash == u.ruleSetHash
}

func (u *MigrateUseCase) recordRun(root string, started time.Time, opts MigrateOptions, s *domain.Summary) {
	_, err := u.state.AddRun(port.RunRecord{
		Started:    started,
		Duration:   time.Since(started),
		Root:       root,
		DryRun:     opts.DryRun,
		Scanned:    s.FilesScanned,
		Modified:   s.FilesModified,
		Cached:     s.FilesCached,
		Fixes:      s.TotalFixes,
		Unresolved: s.Unresolved,
		Failures:   len(s.Failures),
	})
	if err != nil {
		u.log.Warn().Err(err).Msg("failed to record run history")
	}
}

func (u *MigrateUseCase) logFailure(path string, err error) {
	if domain.KindOf(err) == domain.PreconditionViolation || errors.Is(err, domain.ErrPrecondition) {
		u.log.Error().Str("path", path).Bool("contract", true).Err(err).Msg("stage contract violated")
		return
	}
	u.log.Warn().Str("path", path).Err(err).Msg("file skipped")
}

func statFile(p string) (string, os.FileInfo, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", nil, err
	}
	if info.IsDir() {
		return "", nil, fmt.Errorf("%s is a directory", p)
	}
	return abs, info, nil
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func unifiedDiff(rel, before, after string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + rel,
		ToFile:   "b/" + rel,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}
