package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"gdmigrate/internal/port"
)

// GodotIgnoreFile marks a directory the engine editor itself skips.
const GodotIgnoreFile = ".gdignore"

type Walker struct {
	includes     []string
	excludeDirs  []string
	excludeFiles []string
	ignore       *ignore.GitIgnore
}

func NewWalker(includes, excludeDirs, excludeFiles []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*.gd"}
	}
	return &Walker{
		includes:     includes,
		excludeDirs:  excludeDirs,
		excludeFiles: excludeFiles,
	}
}

// UseIgnoreFiles loads gitignore-style patterns from the given files under
// root. Missing files are skipped.
func (w *Walker) UseIgnoreFiles(root string, names ...string) error {
	var lines []string
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	if len(lines) > 0 {
		w.ignore = ignore.CompileIgnoreLines(lines...)
	}
	return nil
}

func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	var files []port.FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel := filepath.ToSlash(relPath)

		if info.IsDir() {
			if path != root && w.SkipDir(path, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if w.shouldInclude(rel) && !w.shouldExcludeFile(rel) {
			files = append(files, port.FileInfo{
				Path:    path,
				Rel:     rel,
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
		}

		return nil
	})

	return files, err
}

// SkipDir reports whether a directory is pruned from the walk: its name
// matches an exclusion, it holds a .gdignore marker, or it is ignored.
func (w *Walker) SkipDir(path, rel string) bool {
	name := filepath.Base(path)
	for _, pattern := range w.excludeDirs {
		matched, err := doublestar.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}
	if _, err := os.Stat(filepath.Join(path, GodotIgnoreFile)); err == nil {
		return true
	}
	return w.ignore != nil && w.ignore.MatchesPath(rel+"/")
}

func (w *Walker) shouldInclude(rel string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, rel)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExcludeFile(rel string) bool {
	name := filepath.Base(rel)
	for _, pattern := range w.excludeFiles {
		matched, err := doublestar.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}
	return w.ignore != nil && w.ignore.MatchesPath(rel)
}

// ErrNotUTF8 is returned for scripts that are not valid UTF-8 text.
var ErrNotUTF8 = errors.New("not valid UTF-8")

// ReadFile returns the content of a script. Scripts in any other encoding
// are refused rather than rewritten byte by byte.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("failed to decode %s: %w", path, ErrNotUTF8)
	}
	return string(data), nil
}
