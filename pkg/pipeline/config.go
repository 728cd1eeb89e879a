package pipeline

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pranavkoushik/vaccination-project/pkg/source"
	"github.com/pranavkoushik/vaccination-project/pkg/warehouse"
)

// FileConfig is the optional YAML pipeline configuration: the dataset file
// mapping and the curated antigen/disease pairing list. Anything left unset
// falls back to the embedded defaults.
type FileConfig struct {
	Files    map[string]string   `yaml:"files"`
	Pairings []warehouse.Pairing `yaml:"pairings"`
}

// LoadFileConfig reads the YAML config at path. An empty path returns the
// defaults; a missing file is an error since the path was given explicitly.
func LoadFileConfig(path string) (*FileConfig, error) {
	cfg := &FileConfig{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if len(cfg.Pairings) == 0 {
		cfg.Pairings = warehouse.DefaultPairings()
	}
	for i, p := range cfg.Pairings {
		if p.Antigen == "" || p.Disease == "" {
			return nil, fmt.Errorf("pairing %d: antigen and disease are required", i)
		}
	}
	return cfg, nil
}

// SourceFiles resolves the configured file mapping against the defaults and
// rejects unknown dataset kinds.
func (c *FileConfig) SourceFiles() (map[source.Kind]string, error) {
	files := source.DefaultFiles()
	for name, file := range c.Files {
		kind := source.Kind(name)
		if _, ok := files[kind]; !ok {
			return nil, fmt.Errorf("unknown dataset kind %q in config", name)
		}
		if file == "" {
			return nil, errors.New("dataset file names must not be empty")
		}
		files[kind] = file
	}
	return files, nil
}
