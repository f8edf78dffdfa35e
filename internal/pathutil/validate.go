// Package pathutil confines file paths supplied by MCP clients to the
// directories mina is allowed to read and write.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvandessel/mina/internal/constants"
)

// ErrOutside is returned for paths that escape every allowed directory.
var ErrOutside = errors.New("path is outside allowed directories")

// RedactPath shortens a path to .../<parent>/<basename> for error messages.
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// Resolve returns path as an absolute path with symlinks resolved, provided
// it lies inside one of allowed. A relative path is taken relative to base.
// The file need not exist.
func Resolve(base, path string, allowed []string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.ContainsRune(path, '\x00') {
		return "", fmt.Errorf("path contains null byte")
	}
	if len(allowed) == 0 {
		return "", fmt.Errorf("no allowed directories configured")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", RedactPath(path), err)
	}

	// Resolve the parent so a symlinked directory cannot point outside.
	dir, err := evalExisting(filepath.Dir(abs))
	if err != nil {
		return "", err
	}
	resolved := filepath.Join(dir, filepath.Base(abs))

	for _, a := range allowed {
		aAbs, err := filepath.Abs(filepath.Clean(a))
		if err != nil {
			continue
		}
		aResolved, err := evalExisting(aAbs)
		if err != nil {
			continue
		}
		if within(resolved, aResolved) {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrOutside, RedactPath(abs))
}

// evalExisting resolves symlinks on the deepest existing ancestor of dir and
// re-appends the missing tail.
func evalExisting(dir string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved, nil
	}

	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve path: %s", RedactPath(dir))
	}
	resolvedParent, err := evalExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

func within(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}

// TraceDirs returns the directories MCP clients may read traces from and
// write model files to: the project root and the global mina directory.
func TraceDirs(projectRoot string) ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return []string{projectRoot, filepath.Join(homeDir, constants.DirName)}, nil
}
