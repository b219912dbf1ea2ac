package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdmigrate/config"
	"gdmigrate/internal/adapter/diagnostics"
	"gdmigrate/internal/adapter/fs"
	"gdmigrate/internal/adapter/memstore"
	"gdmigrate/internal/domain"
	"gdmigrate/internal/port"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func newMigrator(t *testing.T, writer port.FileWriter, state port.StateStore, reporter port.DiagnosticsReporter) *MigrateUseCase {
	t.Helper()
	cfg := config.DefaultConfig()
	walker := fs.NewWalker(cfg.Migrate.Includes, cfg.Migrate.ExcludeDirs, cfg.Migrate.ExcludeFiles)
	return NewMigrateUseCase(newPipeline(t), walker, writer, state, reporter, "test-rules", zerolog.Nop())
}

func TestMigrateWritesChangedFilesOnly(t *testing.T) {
	root := writeProject(t, map[string]string{
		"player.gd":        migratedPlayer,
		"enemy.gd":         legacyCorpus["enemy.gd"],
		"ui/hud.gd":        legacyCorpus["hud.gd"],
		".godot/cached.gd": "onready var x = 1\n",
		"old_backup.gd":    "onready var x = 1\n",
	})

	u := newMigrator(t, fs.NewAtomicWriter(), memstore.NewMemoryStore(), nil)
	summary, err := u.Migrate(context.Background(), MigrateOptions{Root: root, Jobs: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.FilesScanned)
	assert.Equal(t, 2, summary.FilesModified)
	assert.Empty(t, summary.Failures)
	require.Len(t, summary.Changes, 2)
	assert.Equal(t, "enemy.gd", summary.Changes[0].Path)
	assert.Equal(t, "ui/hud.gd", summary.Changes[1].Path)
	assert.Positive(t, summary.Changes[0].Fixes)

	assert.Equal(t, migratedPlayer, readFile(t, root, "player.gd"))
	assert.Equal(t, "onready var x = 1\n", readFile(t, root, ".godot/cached.gd"))
	assert.Equal(t, "onready var x = 1\n", readFile(t, root, "old_backup.gd"))
	assert.NotContains(t, readFile(t, root, "enemy.gd"), "emit_signal")

	total := 0
	for _, n := range summary.RuleTotals {
		total += n
	}
	assert.Equal(t, summary.TotalFixes, total)
}

func TestMigrateDryRunWritesNothing(t *testing.T) {
	root := writeProject(t, map[string]string{"enemy.gd": legacyCorpus["enemy.gd"]})

	state := memstore.NewMemoryStore()
	u := newMigrator(t, fs.NewAtomicWriter(), state, nil)
	summary, err := u.Migrate(context.Background(), MigrateOptions{Root: root, DryRun: true, Diff: true, UseCache: true})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FilesModified)
	assert.Equal(t, legacyCorpus["enemy.gd"], readFile(t, root, "enemy.gd"))
	assert.Contains(t, summary.Changes[0].Diff, "--- a/enemy.gd")
	assert.Contains(t, summary.Changes[0].Diff, "+++ b/enemy.gd")

	runs, _ := state.ListRuns(0)
	assert.Empty(t, runs, "dry runs are not recorded")
	_, cached, _ := state.GetFile("enemy.gd")
	assert.False(t, cached, "dry runs do not fill the cache")
}

func TestMigrateSecondRunIsCached(t *testing.T) {
	root := writeProject(t, map[string]string{
		"enemy.gd": legacyCorpus["enemy.gd"],
		"hud.gd":   legacyCorpus["hud.gd"],
	})
	state := memstore.NewMemoryStore()
	u := newMigrator(t, fs.NewAtomicWriter(), state, nil)

	first, err := u.Migrate(context.Background(), MigrateOptions{Root: root, UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, 2, first.FilesModified)

	second, err := u.Migrate(context.Background(), MigrateOptions{Root: root, UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, 2, second.FilesCached)
	assert.Zero(t, second.FilesModified)
	assert.Zero(t, second.TotalFixes)

	runs, _ := state.ListRuns(0)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Cached)
}

func TestMigrateUnresolvedIssuesAreReported(t *testing.T) {
	root := writeProject(t, map[string]string{"broken.gd": legacyCorpus["broken.gd"]})
	collector := diagnostics.NewCollector()
	u := newMigrator(t, fs.NewAtomicWriter(), memstore.NewMemoryStore(), collector)

	summary, err := u.Migrate(context.Background(), MigrateOptions{Root: root})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FilesModified, "file is written with its other fixes")
	assert.Positive(t, summary.Unresolved)
	assert.Contains(t, readFile(t, root, "broken.gd"), "# orphaned: get_tree().quit()")
	assert.True(t, collector.HasProblems())
}

type failingWriter struct {
	mu     sync.Mutex
	failOn string
	wrote  []string
	inner  port.FileWriter
}

func (w *failingWriter) WriteFile(path string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if strings.HasSuffix(path, w.failOn) {
		return errors.New("disk full")
	}
	w.wrote = append(w.wrote, filepath.Base(path))
	return w.inner.WriteFile(path, data)
}

func TestMigrateIsolatesFailures(t *testing.T) {
	root := writeProject(t, map[string]string{
		"enemy.gd": legacyCorpus["enemy.gd"],
		"hud.gd":   legacyCorpus["hud.gd"],
	})
	writer := &failingWriter{failOn: "hud.gd", inner: fs.NewAtomicWriter()}
	u := newMigrator(t, writer, memstore.NewMemoryStore(), nil)

	summary, err := u.Migrate(context.Background(), MigrateOptions{
		Root:  root,
		Files: []string{filepath.Join(root, "enemy.gd"), filepath.Join(root, "hud.gd"), filepath.Join(root, "missing.gd")},
	})
	require.NoError(t, err)

	require.Len(t, summary.Failures, 2)
	kinds := map[domain.ErrorKind]bool{}
	for _, f := range summary.Failures {
		kinds[domain.KindOf(f.Err)] = true
	}
	assert.True(t, kinds[domain.WriteError])
	assert.True(t, kinds[domain.ReadError])

	assert.Equal(t, []string{"enemy.gd"}, writer.wrote)
	assert.Equal(t, legacyCorpus["hud.gd"], readFile(t, root, "hud.gd"))
}

func TestMigrateRefusesNonUTF8(t *testing.T) {
	latin1 := "extends Node\nonready var caf\xe9 = 1\n"
	utf16 := "\xff\xfee\x00x\x00t\x00\n\x00"
	root := writeProject(t, map[string]string{
		"latin1.gd": latin1,
		"utf16.gd":  utf16,
		"enemy.gd":  legacyCorpus["enemy.gd"],
	})

	u := newMigrator(t, fs.NewAtomicWriter(), memstore.NewMemoryStore(), nil)
	summary, err := u.Migrate(context.Background(), MigrateOptions{Root: root})
	require.NoError(t, err)

	require.Len(t, summary.Failures, 2)
	for _, f := range summary.Failures {
		assert.Equal(t, domain.ReadError, domain.KindOf(f.Err), f.Path)
		assert.ErrorIs(t, f.Err, fs.ErrNotUTF8)
	}
	assert.Equal(t, latin1, readFile(t, root, "latin1.gd"))
	assert.Equal(t, utf16, readFile(t, root, "utf16.gd"))
	assert.Equal(t, 1, summary.FilesModified)
}

func TestMigrateReportsEveryRule(t *testing.T) {
	root := writeProject(t, map[string]string{"player.gd": migratedPlayer})
	p := newPipeline(t)
	u := NewMigrateUseCase(p, fs.NewWalker(nil, nil, nil), fs.NewAtomicWriter(), memstore.NewMemoryStore(), nil, "test-rules", zerolog.Nop())

	summary, err := u.Migrate(context.Background(), MigrateOptions{Root: root})
	require.NoError(t, err)
	assert.Zero(t, summary.TotalFixes)
	for _, name := range p.Counters() {
		n, ok := summary.RuleTotals[name]
		assert.True(t, ok, name)
		assert.Zero(t, n, name)
	}
}

func TestMigrateBackup(t *testing.T) {
	root := writeProject(t, map[string]string{"enemy.gd": legacyCorpus["enemy.gd"]})
	u := newMigrator(t, fs.NewAtomicWriter(), memstore.NewMemoryStore(), nil)

	_, err := u.Migrate(context.Background(), MigrateOptions{Root: root, Backup: true, BackupPrefix: "gdmigrate_backup_"})
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(root, "gdmigrate_backup_*", "enemy.gd"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, legacyCorpus["enemy.gd"], string(data))
}

func TestMigrateCancelled(t *testing.T) {
	root := writeProject(t, map[string]string{"enemy.gd": legacyCorpus["enemy.gd"]})
	u := newMigrator(t, fs.NewAtomicWriter(), memstore.NewMemoryStore(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := u.Migrate(ctx, MigrateOptions{Root: root})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, legacyCorpus["enemy.gd"], readFile(t, root, "enemy.gd"))
}

func TestMigrateProgress(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.gd": migratedPlayer,
		"b.gd": migratedPlayer,
		"c.gd": migratedPlayer,
	})
	u := newMigrator(t, fs.NewAtomicWriter(), memstore.NewMemoryStore(), nil)

	var mu sync.Mutex
	var seen []int
	_, err := u.Migrate(context.Background(), MigrateOptions{
		Root: root,
		Progress: func(done, total int, rel string) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 3, total)
			seen = append(seen, done)
		},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, seen)
}
