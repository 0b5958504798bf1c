// Package scanner finds Python source files under a directory tree.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"selfmod/pkg/config"
	"selfmod/pkg/parser"
)

// Scanner walks a directory collecting analyzable source files. A Scanner
// can be reused across roots; exclusion patterns are rebuilt per scan.
type Scanner struct {
	config *config.Config
}

// New creates a new file scanner.
func New(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot walks up from start looking for a .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns combines config exclude patterns with .gitignore
// patterns read from the enclosing repository.
func (s *Scanner) loadExcludePatterns(root string) gitignore.Matcher {
	var patterns []gitignore.Pattern

	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	for _, dir := range s.config.Exclude.Dirs {
		patterns = append(patterns, gitignore.ParsePattern(dir+"/", nil))
	}

	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			fsys := osfs.New(gitRoot)
			if gitPatterns, err := gitignore.ReadPatterns(fsys, nil); err == nil {
				patterns = append(patterns, gitPatterns...)
			}
		}
	}

	if len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}

// isExcluded checks if a path matches any exclusion pattern.
func isExcluded(matcher gitignore.Matcher, path string, isDir bool) bool {
	if matcher == nil {
		return false
	}
	pathParts := strings.Split(path, string(filepath.Separator))
	return matcher.Match(pathParts, isDir)
}

// ScanDir recursively scans a directory for Python source files.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	matcher := s.loadExcludePatterns(root)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.IsDir() {
			if relPath != "." && isExcluded(matcher, relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if isExcluded(matcher, relPath, false) {
			return nil
		}
		if parser.IsSource(path) {
			files = append(files, path)
		}

		return nil
	})

	return files, walkErr
}
