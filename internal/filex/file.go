// Package filex holds filesystem helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DSNPath returns the file path inside a SQLite DSN such as
// "file:data/shop.db?_pragma=busy_timeout(5000)", or "" for in-memory
// databases.
func DSNPath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.HasPrefix(path, ":memory:") {
		return ""
	}
	return path
}

// EnsureParentDir creates the directory that will hold the database file
// named by dsn. It is a no-op for in-memory databases and files in the
// working directory.
func EnsureParentDir(dsn string) error {
	path := DSNPath(dsn)
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
