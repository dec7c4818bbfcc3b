// fs.go walks an override directory for *.html files.  filepath.Glob has
// no "**", so operators may nest overrides however they like.
package view

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// CollectHTML walks rootDir recursively and returns every *.html path in
// lexical order.  A missing rootDir yields no files and no error.
func CollectHTML(rootDir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == rootDir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
