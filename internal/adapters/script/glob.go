package script

import (
	"path/filepath"
	"strings"
)

// Glob enumerates files under dir matching pattern, excluding any path
// component that starts with a dot, mirroring the original's glob() helper.
func Glob(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, len(matches))
	for _, m := range matches {
		if hasDotComponent(m) {
			continue
		}
		result = append(result, m)
	}
	return result, nil
}

func hasDotComponent(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
