package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Init creates an empty store at dir: the directory, an empty metadata
// table and the default test-set declaration. Existing files are kept.
// It returns the paths it created.
func Init(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create problem store %s: %w", dir, err)
	}

	var created []string
	for name, v := range map[string]any{
		MetadataFile: &MetadataTable{Problems: []MetadataEntry{}},
		TestSetFile:  DefaultTestSet(),
	} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		data, err := yaml.Marshal(v)
		if err != nil {
			return created, fmt.Errorf("cannot marshal %s: %w", name, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return created, fmt.Errorf("cannot write %s: %w", path, err)
		}
		created = append(created, path)
	}
	return created, nil
}
