package policy

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/model"
)

func readFile(path string) (model.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Policy{}, err
	}
	pol := model.DefaultPolicy()
	if err := json.Unmarshal(data, &pol); err != nil {
		return model.Policy{}, err
	}
	return pol.Normalize(), nil
}

// writeFile rewrites the whole policy through a temp file so a crash never
// leaves a truncated document behind.
func writeFile(path string, pol model.Policy) error {
	data, err := json.MarshalIndent(pol, "", "    ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".policy-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
