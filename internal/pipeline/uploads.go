package pipeline

import (
	"os"
	"path/filepath"

	"docqa/internal/domain"
)

// spoolUploads writes each upload to a temporary file carrying the original
// extension, so extraction can dispatch on it. On error it returns the paths
// written so far; the caller removes them.
func spoolUploads(uploads []Upload) ([]string, error) {
	paths := make([]string, 0, len(uploads))
	for _, u := range uploads {
		f, err := os.CreateTemp("", "docqa-*"+filepath.Ext(u.Name))
		if err != nil {
			return paths, &domain.IngestionError{Path: u.Name, Err: err}
		}
		paths = append(paths, f.Name())
		if _, err := f.Write(u.Data); err != nil {
			f.Close()
			return paths, &domain.IngestionError{Path: u.Name, Err: err}
		}
		if err := f.Close(); err != nil {
			return paths, &domain.IngestionError{Path: u.Name, Err: err}
		}
	}
	return paths, nil
}

func removeAll(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
