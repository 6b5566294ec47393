package image

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/manash/lumina/internal/dataurl"
)

// Saver writes generated images to disk. Results arrive as self-contained
// data URIs, so saving is decode plus write.
type Saver struct{}

func NewSaver() *Saver {
	return &Saver{}
}

// Save decodes a data URI and writes the image bytes to path. When path has
// no extension, one matching the MIME type is appended. The final path is
// returned.
func (s *Saver) Save(dataURI, path string) (string, error) {
	mime, data, err := dataurl.DecodeBytes(dataURI)
	if err != nil {
		return "", err
	}

	if filepath.Ext(path) == "" {
		path = path + "." + dataurl.ExtensionForMime(mime)
	}

	if err := ensureDir(path); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// GenerateFilename builds a timestamped default filename for a data URI.
func GenerateFilename(dataURI string, t time.Time) string {
	mime, _ := dataurl.Decode(dataURI)
	return fmt.Sprintf("lumina-%s.%s", t.Format("20060102-150405"), dataurl.ExtensionForMime(mime))
}
