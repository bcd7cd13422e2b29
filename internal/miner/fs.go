// internal/miner/fs.go
package miner

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var unsafeChars = strings.NewReplacer(
	":", "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// Sanitize replaces characters that are not allowed in file names on common
// filesystems. Path separators are kept.
func Sanitize(name string) string {
	return unsafeChars.Replace(name)
}

// LocalName derives the working directory name of a clone URL: the URL path
// without a trailing .git, sanitized.
func LocalName(cloneURL string) string {
	name := strings.TrimSuffix(cloneURL, ".git")
	if u, err := url.Parse(name); err == nil && u.Host != "" {
		name = strings.Trim(u.Path, "/")
	}
	return Sanitize(name)
}

// removeTree deletes root and everything below it. Unlike os.RemoveAll it keeps
// going after a failed entry and returns every failure joined. A missing root is
// not an error.
func removeTree(root string) error {
	if _, err := os.Lstat(root); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	var errs []error
	var dirs []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
			return nil
		}
		if err := os.Remove(path); err != nil {
			errs = append(errs, err)
		}
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}

	// Children were visited after their parents.
	for i := len(dirs) - 1; i >= 0; i-- {
		if err := os.Remove(dirs[i]); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
