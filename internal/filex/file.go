// Package filex holds filesystem helpers for the local download sink.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates dir (and parents) when missing and returns its absolute
// path. A relative dir is resolved against the working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// SafeName strips any directory part of a server-supplied filename so it
// cannot escape the target directory. Empty or dot names become "file".
func SafeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == ".." || name == "/" || name == "" {
		return "file"
	}
	return name
}

// UniquePath returns dir/name, or dir/name (n).ext with the smallest n >= 1
// that does not exist yet.
func UniquePath(dir, name string) (string, error) {
	name = SafeName(name)
	candidate := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 1; ; n++ {
		_, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
	}
}
