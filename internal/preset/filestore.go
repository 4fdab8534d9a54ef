package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore implements Store with one JSON file per preset in a
// directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir. The directory is
// created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("preset: invalid name %q", name)
	}
	return nil
}

func (f *FileStore) Save(name string, p Preset) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path(name), append(data, '\n'), 0o644)
}

func (f *FileStore) Load(name string) (Preset, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(name))
	if err != nil {
		return nil, fmt.Errorf("preset: %w", err)
	}
	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("preset: parsing %s: %w", name, err)
	}
	return p, nil
}

func (f *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func (f *FileStore) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	return os.Remove(f.path(name))
}

func (f *FileStore) Close() error { return nil }
