package generator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jacquetc/qleany-sub001/internal/model"
)

// Destination is where file lands below root: root/prefix/relative_path/name.
func Destination(root, prefix string, file *model.File) string {
	return filepath.Join(root, filepath.FromSlash(prefix), filepath.FromSlash(file.RelativePath), file.Name)
}

// writeFile writes content to dest, creating parent directories.
func writeFile(dest string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", dest, err)
	}
	if err := os.WriteFile(dest, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}
