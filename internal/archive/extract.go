package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractProduct unpacks the readings file from a downloaded archive zip.
// Each zip carries html and metadata files next to one "produkt_*.txt"
// holding the actual series; only that one is extracted, into destDir.
func ExtractProduct(zipPath, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive %s: %w", zipPath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		base := filepath.Base(f.Name)
		if !strings.HasPrefix(base, "produkt_") || !strings.HasSuffix(base, ".txt") {
			continue
		}

		src, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open %s in %s: %w", f.Name, zipPath, err)
		}
		defer src.Close()

		destPath := filepath.Join(destDir, base)
		dst, err := os.Create(destPath)
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", destPath, err)
		}
		if _, err := io.Copy(dst, src); err != nil {
			dst.Close()
			return "", fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
		if err := dst.Close(); err != nil {
			return "", fmt.Errorf("failed to close %s: %w", destPath, err)
		}
		return destPath, nil
	}
	return "", fmt.Errorf("no produkt_*.txt file found in %s", zipPath)
}
