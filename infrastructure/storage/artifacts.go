package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"ui_probe/domain/entities"
	"ui_probe/domain/interfaces"

	"gopkg.in/yaml.v3"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type artifactStore struct {
	dir string
}

// NewArtifactStore - creates storage rooted at the artifact directory
func NewArtifactStore(dir string) interfaces.Storage {
	return &artifactStore{dir: dir}
}

// LoadProbe - reads a YAML probe definition
func (s *artifactStore) LoadProbe(path string) (entities.Probe, error) {
	f, err := os.Open(path)
	if err != nil {
		return entities.Probe{}, err
	}
	defer f.Close()

	var probe entities.Probe
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&probe); err != nil {
		return entities.Probe{}, fmt.Errorf("failed to parse probe %s: %w", path, err)
	}
	if probe.Name == "" {
		base := filepath.Base(path)
		probe.Name = base[:len(base)-len(filepath.Ext(base))]
	}
	return probe, nil
}

// SaveReport - writes <dir>/<probe>.report.json
func (s *artifactStore) SaveReport(report entities.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	path := s.path(report.Probe, ".report.json")
	if err := s.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// LoadReport - reads the last report written for a probe
func (s *artifactStore) LoadReport(probe string) (entities.Report, error) {
	data, err := os.ReadFile(s.path(probe, ".report.json"))
	if err != nil {
		return entities.Report{}, err
	}

	var report entities.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return entities.Report{}, err
	}
	return report, nil
}

// SaveMarkup - writes <dir>/<probe>.failure.html
func (s *artifactStore) SaveMarkup(probe string, markup string) (string, error) {
	path := s.path(probe, ".failure.html")
	if err := s.write(path, []byte(markup)); err != nil {
		return "", err
	}
	return path, nil
}

func (s *artifactStore) path(probe, suffix string) string {
	name := unsafeName.ReplaceAllString(probe, "_")
	if name == "" {
		name = "probe"
	}
	return filepath.Join(s.dir, name+suffix)
}

func (s *artifactStore) write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
