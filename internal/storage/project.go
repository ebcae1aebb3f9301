package storage

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ProjectDir returns the directory a store is scoped to: the enclosing git
// repository root, or the working directory when outside a repository.
func ProjectDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if root, ok := FindProjectRoot(cwd); ok {
		return root, nil
	}
	return cwd, nil
}

// FindProjectRoot walks up from dir looking for a .git directory.
func FindProjectRoot(dir string) (string, bool) {
	for {
		info, err := os.Stat(filepath.Join(dir, ".git"))
		if err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root without finding .git
			return "", false
		}
		dir = parent
	}
}

// SanitizePath converts an absolute path to a safe directory name.
// "/Users/abatilo/myproject" -> "Users-abatilo-myproject"
func SanitizePath(path string) string {
	result := strings.TrimPrefix(path, "/")

	re := regexp.MustCompile(`[^a-zA-Z0-9]+`)
	result = re.ReplaceAllString(result, "-")

	return strings.Trim(result, "-")
}
