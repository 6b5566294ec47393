package history

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage persists the serialized history under a single fixed key. The
// store logic stays independent of where that blob actually lives.
type Storage interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// FileStorage keeps the history blob in a JSON file.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// DefaultFilePath returns the history file location under the user's home
// directory.
func DefaultFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".lumina", "history.json"), nil
}

func (s *FileStorage) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (s *FileStorage) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}
