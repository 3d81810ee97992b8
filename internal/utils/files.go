package utils

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// FindFiles recursively finds the files under dir accepted by match.
// Hidden directories below dir are not entered.
func FindFiles(dir string, match func(path string) bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if match(path) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
