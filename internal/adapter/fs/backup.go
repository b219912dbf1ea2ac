package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// BackupDirName is the timestamped directory a backup goes into.
func BackupDirName(prefix string, now time.Time) string {
	return prefix + now.Format("20060102_150405")
}

// BackupTree copies root into dest, pruning directories the walker
// would skip. It returns the number of files copied.
func BackupTree(root, dest string, w *Walker) (int, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return 0, err
	}
	dest, err = filepath.Abs(dest)
	if err != nil {
		return 0, err
	}
	if _, err := os.Stat(dest); err == nil {
		return 0, fmt.Errorf("backup destination already exists: %s", dest)
	}

	copied := 0
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if info.IsDir() {
			if path == dest {
				return filepath.SkipDir
			}
			if path != root && w != nil && w.SkipDir(path, filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if err := copyFile(path, target, info.Mode().Perm()); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("backup failed: %w", err)
	}
	return copied, nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
