package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore reads secrets from local files; the secret id is the path.
// Sealed blobs are opened with key.
type FileStore struct {
	key []byte
}

// NewFileStore returns a file-backed store. key may be nil when files are plain.
func NewFileStore(key []byte) *FileStore {
	return &FileStore{key: key}
}

// GetSecret reads and, if needed, decrypts the file at id.
func (s *FileStore) GetSecret(_ context.Context, id string) (string, error) {
	path := expandHome(strings.TrimSpace(id))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read secret file: %w", err)
	}
	plain, err := OpenBlob(data, s.key)
	if err != nil {
		return "", fmt.Errorf("open secret file %s: %w", path, err)
	}
	return string(plain), nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}
