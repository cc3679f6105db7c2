package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/dlqueue/internal/domain"
)

// StorageLayout resolves destination base directories from the manager config.
// Private files live under FilesDir/<owner>/<dirType>, public files under
// PublicDir/<dirType>. Directories are created on demand.
type StorageLayout struct {
	filesDir  string
	publicDir string
	owner     string
}

// NewStorageLayout creates a storage layout for owner
func NewStorageLayout(config domain.ManagerConfig) *StorageLayout {
	return &StorageLayout{
		filesDir:  config.FilesDir,
		publicDir: config.PublicDir,
		owner:     config.Owner,
	}
}

// FilesDir returns the owner's private directory for dirType
func (l *StorageLayout) FilesDir(dirType string) (string, error) {
	return l.ensure(l.filesDir, l.owner, dirType)
}

// PublicDir returns the shared directory for dirType
func (l *StorageLayout) PublicDir(dirType string) (string, error) {
	return l.ensure(l.publicDir, dirType)
}

func (l *StorageLayout) ensure(base string, elem ...string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("storage base directory not configured")
	}
	for _, e := range elem {
		if e == ".." || strings.ContainsAny(e, `/\`) {
			return "", &domain.ArgumentError{Field: "dir_type", Reason: fmt.Sprintf("invalid directory name %q", e)}
		}
	}

	dir := filepath.Join(append([]string{base}, elem...)...)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return dir, nil
}
