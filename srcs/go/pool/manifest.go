package pool

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest describes one dispatch run, so that later tools can find its machines.
type Manifest struct {
	ID        string     `yaml:"id"`
	JobName   string     `yaml:"job_name"`
	CreatedAt time.Time  `yaml:"created_at"`
	CurrDir   string     `yaml:"curr_dir"`
	DryRun    bool       `yaml:"dry_run"`
	Jobs      int        `yaml:"jobs"`
	Slots     []SlotHost `yaml:"slots"`
}

type SlotHost struct {
	SlotFile `yaml:",inline"`
	Host     string `yaml:"host"`
	Pool     string `yaml:"pool"`
}

func (m Manifest) Hosts() []string {
	var hs []string
	for _, s := range m.Slots {
		hs = append(hs, s.Host)
	}
	return hs
}

func (d Dir) WriteManifest(m Manifest) (string, error) {
	name := filepath.Join(d.Path, ManifestName)
	bs, err := yaml.Marshal(&m)
	if err != nil {
		return "", err
	}
	return name, os.WriteFile(name, bs, 0644)
}

// ReadManifest accepts either a manifest file or the pool directory holding it.
func ReadManifest(path string) (*Manifest, error) {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, ManifestName)
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(bs, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
