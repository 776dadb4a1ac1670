package media

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// URLPrefix is where stored files are served from.
const URLPrefix = "/uploads/"

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// LocalStore writes uploads to a directory on disk under random names.
type LocalStore struct {
	Dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{Dir: dir}, nil
}

// StoreFile saves data and returns its public path. Only the extension of
// originalName is kept.
func (s *LocalStore) StoreFile(data []byte, originalName string) (string, error) {
	if strings.TrimSpace(originalName) == "" {
		return "", domain.Invalid("file name is required")
	}
	if len(data) == 0 {
		return "", domain.Invalid("file is empty")
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExt[ext] {
		return "", domain.Invalid("unsupported image type %q", ext)
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return "", domain.Invalid("file content is not an image")
	}

	name := uuid.NewString() + ext
	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return URLPrefix + name, nil
}
