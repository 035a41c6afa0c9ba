package keystore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/atlassist/internal/common"
	"github.com/dmitrijs2005/atlassist/internal/cryptox"
	"github.com/dmitrijs2005/atlassist/internal/filex"
)

// FileKeyStore keeps the key in a single file with 0600 permissions.
// Restricting access beyond that is left to the deployment environment.
type FileKeyStore struct {
	path string
}

func NewFileKeyStore(path string) *FileKeyStore {
	return &FileKeyStore{path: path}
}

func (s *FileKeyStore) LoadOrCreate(ctx context.Context) ([]byte, error) {
	key, err := os.ReadFile(s.path)
	if err == nil {
		if len(key) != cryptox.KeySize {
			return nil, fmt.Errorf("key file %s has size %d, want %d", s.path, len(key), cryptox.KeySize)
		}
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	key = common.GenerateRandByteArray(cryptox.KeySize)
	if err := filex.WriteFileRestricted(s.path, key); err != nil {
		return nil, fmt.Errorf("persist key file: %w", err)
	}

	return key, nil
}
