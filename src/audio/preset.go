package audio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const presetListFile = "_list.json"

type presetMetaJSON struct {
	Name string `json:"name"`
}
type presetMetaListJSON struct {
	Items []presetMetaJSON `json:"items"`
}

// PresetManager loads parameter presets from a directory holding a
// _list.json index and one <name>.json per preset.
type PresetManager struct {
	dir string

	mu   sync.Mutex
	list []string
}

func NewPresetManager(dir string) *PresetManager {
	return &PresetManager{
		dir: dir,
	}
}

// List returns the preset names in index order. The index is read once.
func (pm *PresetManager) List() ([]string, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pm.list == nil {
		if err := pm.loadList(); err != nil {
			return nil, err
		}
	}
	return append([]string(nil), pm.list...), nil
}

func (pm *PresetManager) loadList() error {
	bytes, err := os.ReadFile(filepath.Join(pm.dir, presetListFile))
	if err != nil {
		return fmt.Errorf("failed to read preset list: %w", err)
	}
	var metaListJSON presetMetaListJSON
	if err := json.Unmarshal(bytes, &metaListJSON); err != nil {
		return fmt.Errorf("failed to parse preset list: %w", err)
	}
	pm.list = make([]string, 0, len(metaListJSON.Items))
	for _, item := range metaListJSON.Items {
		pm.list = append(pm.list, item.Name)
	}
	return nil
}

// Apply loads the named preset into params.
func (pm *PresetManager) Apply(name string, target *Params) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid preset name %q", name)
	}
	bytes, err := os.ReadFile(filepath.Join(pm.dir, name+".json"))
	if err != nil {
		return fmt.Errorf("failed to load preset %q: %w", name, err)
	}
	return target.ApplyJSON(bytes)
}

// Save writes the current params as a preset and appends it to the index.
func (pm *PresetManager) Save(name string, source *Params) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid preset name %q", name)
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pm.list == nil {
		if err := pm.loadList(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if pm.list == nil {
			pm.list = []string{}
		}
	}
	if err := os.MkdirAll(pm.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create preset directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(pm.dir, name+".json"), source.ToJSON(), 0o644); err != nil {
		return fmt.Errorf("failed to save preset %q: %w", name, err)
	}
	for _, n := range pm.list {
		if n == name {
			return nil
		}
	}
	pm.list = append(pm.list, name)
	metaListJSON := presetMetaListJSON{Items: make([]presetMetaJSON, len(pm.list))}
	for i, n := range pm.list {
		metaListJSON.Items[i] = presetMetaJSON{Name: n}
	}
	if err := os.WriteFile(filepath.Join(pm.dir, presetListFile), toRawMessage(&metaListJSON), 0o644); err != nil {
		return fmt.Errorf("failed to save preset list: %w", err)
	}
	return nil
}
