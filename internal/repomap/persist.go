package repomap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"codemap/internal/model"
)

// Save writes the map as formatted JSON to {workDir}/{name}.json and
// returns the path. All paths inside the file are forward-slash strings
// and kinds are their string tags; sets serialize as sorted lists.
func (e *Engine) Save(rm *model.RepoMap) (string, error) {
	if e.workDir == "" {
		return "", fmt.Errorf("engine has no work directory")
	}
	if err := os.MkdirAll(e.workDir, 0o755); err != nil {
		return "", fmt.Errorf("creating work dir: %w", err)
	}
	data, err := json.MarshalIndent(rm, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding map: %w", err)
	}
	path := filepath.Join(e.workDir, rm.Name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	e.log.Debug("map persisted", "path", path, "files", len(rm.Impl.Files))
	return path, nil
}

// Load reads a previously saved map by name.
func (e *Engine) Load(name string) (*model.RepoMap, error) {
	path := filepath.Join(e.workDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var rm model.RepoMap
	if err := json.Unmarshal(data, &rm); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &rm, nil
}

// LoadFresh loads a saved map and reports whether it is still current:
// stale means some mapped file has been modified (or removed) since the
// map was assembled, and the caller should re-analyze.
func (e *Engine) LoadFresh(name string) (*model.RepoMap, bool, error) {
	rm, err := e.Load(name)
	if err != nil {
		return nil, false, err
	}
	root := filepath.FromSlash(rm.Root)
	for path, rec := range rm.Impl.Files {
		fi, err := os.Stat(filepath.Join(root, filepath.FromSlash(path)))
		if err != nil {
			return rm, false, nil
		}
		if fi.ModTime().After(rec.ModTime) {
			return rm, false, nil
		}
	}
	return rm, true, nil
}
