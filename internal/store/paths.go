package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/mina/internal/constants"
)

// DBFile is the catalog database name inside a .mina directory.
const DBFile = "models.db"

// GlobalMinaPath returns the path to the global .mina directory.
// On Unix: ~/.mina
// On Windows: %USERPROFILE%\.mina
func GlobalMinaPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.DirName), nil
}

// LocalMinaPath returns the path to the local .mina directory
// for the given project root.
func LocalMinaPath(projectRoot string) string {
	return filepath.Join(projectRoot, constants.DirName)
}
