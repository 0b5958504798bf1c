package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BackupManager copies files verbatim to a timestamped location before any
// mutating write. Backups are never pruned.
type BackupManager struct {
	dir string
}

// NewBackupManager creates a manager rooted at dir. The directory itself is
// created lazily on first use.
func NewBackupManager(dir string) *BackupManager {
	return &BackupManager{dir: dir}
}

// Dir returns the backup directory path.
func (m *BackupManager) Dir() string {
	return m.dir
}

// Create copies path to <stem>_<YYYYMMDD_HHMMSS>.bak under the backup
// directory, preserving bytes, mode, and modification time. Failures here
// abort the whole apply before any mutation happens.
func (m *BackupManager) Create(path string) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := fmt.Sprintf("%s_%s.bak", stem, time.Now().Format("20060102_150405"))
	dst := filepath.Join(m.dir, name)

	if err := copyFile(path, dst); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", path, err)
	}
	return dst, nil
}

// copyFile copies bytes and metadata (mode, mtime) from src to dst.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, time.Now(), info.ModTime())
}
