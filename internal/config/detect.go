package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DetectProjectName infers the project name from the repository's meta.json,
// falling back to the base name of fallbackDir. Errors reading meta.json are
// silently ignored.
func DetectProjectName(repoDir, fallbackDir string) string {
	if name := detectFromMeta(repoDir); name != "" {
		return name
	}
	return filepath.Base(fallbackDir)
}

type metaJSON struct {
	Name string `json:"name"`
}

func detectFromMeta(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return ""
	}
	var m metaJSON
	if err := json.Unmarshal(data, &m); err != nil {
		return ""
	}
	return m.Name
}
