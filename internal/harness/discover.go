package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ScenarioNotFoundError is returned when a scenario path doesn't exist.
type ScenarioNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario path %q does not exist", e.Path)
}

// FindScenarios returns the scenario files under path, sorted. A file path
// is returned as is. For a directory, every *.yaml and *.yml file in it
// whose base name matches pattern (a filepath.Match glob, "" for all) is
// returned.
func FindScenarios(path, pattern string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &ScenarioNotFoundError{Path: path}
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	for _, ext := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(path, ext))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}

	if pattern != "" {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", pattern, err)
		}
		kept := files[:0]
		for _, f := range files {
			if ok, _ := filepath.Match(pattern, filepath.Base(f)); ok {
				kept = append(kept, f)
			}
		}
		files = kept
	}

	sort.Strings(files)
	return files, nil
}
