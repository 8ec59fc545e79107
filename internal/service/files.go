package service

import (
	"io"
	"os"
	"path/filepath"
)

// FileStore owns the on-disk layout: originals under <root>/original with
// their uploaded extension, enhanced results under <root>/enhanced as PNG.
type FileStore struct {
	originalDir string
	enhancedDir string
}

func NewFileStore(root string) (*FileStore, error) {
	fs := &FileStore{
		originalDir: filepath.Join(root, "original"),
		enhancedDir: filepath.Join(root, "enhanced"),
	}
	for _, dir := range []string{fs.originalDir, fs.enhancedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func (f *FileStore) OriginalPath(id, ext string) string {
	return filepath.Join(f.originalDir, id+ext)
}

func (f *FileStore) EnhancedPath(id string) string {
	return filepath.Join(f.enhancedDir, id+".png")
}

func (f *FileStore) SaveOriginal(id, ext string, r io.Reader) (string, error) {
	path := f.OriginalPath(id, ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (f *FileStore) WriteEnhanced(id string, data []byte) (string, error) {
	path := f.EnhancedPath(id)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Cleanup removes both files for an id. Missing files are not an error.
func (f *FileStore) Cleanup(id, ext string) {
	os.Remove(f.OriginalPath(id, ext))
	os.Remove(f.EnhancedPath(id))
}
