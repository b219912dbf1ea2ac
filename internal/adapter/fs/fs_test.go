package fs

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func rels(t *testing.T, w *Walker, root string) []string {
	t.Helper()
	files, err := w.Walk(root)
	require.NoError(t, err)
	var out []string
	for _, f := range files {
		out = append(out, f.Rel)
	}
	sort.Strings(out)
	return out
}

func TestWalkerExclusions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"player.gd":                 "",
		"scenes/enemy.gd":           "",
		"scenes/enemy.tscn":         "",
		".godot/cache.gd":           "",
		"gdmigrate_backup_1/old.gd": "",
		"scenes/enemy_backup.gd":    "",
		"addons/vendored/.gdignore": "",
		"addons/vendored/plugin.gd": "",
		"addons/own/tool.gd":        "",
	})

	w := NewWalker(nil, []string{".godot", "gdmigrate_backup_*"}, []string{"*_backup.gd"})
	assert.Equal(t, []string{"addons/own/tool.gd", "player.gd", "scenes/enemy.gd"}, rels(t, w, root))
}

func TestWalkerIgnoreFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":       "generated/\n*.gen.gd\n",
		"main.gd":          "",
		"stats.gen.gd":     "",
		"generated/tbl.gd": "",
		"src/ui/menu.gd":   "",
	})

	w := NewWalker(nil, nil, nil)
	require.NoError(t, w.UseIgnoreFiles(root, ".gitignore", ".gdmigrateignore"))
	assert.Equal(t, []string{"main.gd", "src/ui/menu.gd"}, rels(t, w, root))
}

func TestAtomicWriteReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.gd")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o600))

	require.NoError(t, NewAtomicWriter().WriteFile(path, []byte("new\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAtomicWriteInterruptedLeavesOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.gd")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	crash := errors.New("killed")
	var seen string
	w := &AtomicWriter{beforeRename: func(tmp string) error {
		seen = tmp
		return crash
	}}
	err := w.WriteFile(path, []byte("new\n"))
	require.ErrorIs(t, err, crash)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(data))

	_, err = os.Stat(seen)
	assert.True(t, os.IsNotExist(err), "temp file should be cleaned up")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBackupTree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.gd":          "extends Node\n",
		"art/icon.png":     "png",
		".godot/state.cfg": "x",
	})

	dest := filepath.Join(root, BackupDirName("gdmigrate_backup_", time.Date(2024, 5, 1, 13, 4, 5, 0, time.UTC)))
	assert.Equal(t, "gdmigrate_backup_20240501_130405", filepath.Base(dest))

	w := NewWalker(nil, []string{".godot"}, nil)
	n, err := BackupTree(root, dest, w)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(filepath.Join(dest, "main.gd"))
	require.NoError(t, err)
	assert.Equal(t, "extends Node\n", string(data))

	_, err = os.Stat(filepath.Join(dest, ".godot"))
	assert.True(t, os.IsNotExist(err))

	_, err = BackupTree(root, dest, w)
	assert.Error(t, err, "existing destination must not be overwritten")
}

func TestReadFileRequiresUTF8(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"ok.gd":     "\ufeffextends Node\nvar name = \"café\"\n",
		"latin1.gd": "var name = \"caf\xe9\"\n",
	})

	content, err := ReadFile(filepath.Join(root, "ok.gd"))
	require.NoError(t, err)
	assert.Contains(t, content, "café")

	_, err = ReadFile(filepath.Join(root, "latin1.gd"))
	assert.ErrorIs(t, err, ErrNotUTF8)

	_, err = ReadFile(filepath.Join(root, "missing.gd"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
