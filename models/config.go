// Package models defines data structures shared across the engine packages.
package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration loaded from reader-lens.yaml.
// Every field has a usable zero-value default; the file is optional.
type Config struct {
	// Heuristic tables. When set they replace the built-in defaults,
	// so they can be tuned without a rebuild.
	NegativeKeywords []string `yaml:"negative_keywords,omitempty"`
	PositiveKeywords []string `yaml:"positive_keywords,omitempty"`
	CommonWords      []string `yaml:"common_words,omitempty"`

	// Inference collaborator endpoint (OpenAI-compatible chat API).
	Inference InferenceConfig `yaml:"inference"`

	// DBPath overrides the default database location next to the binary.
	DBPath string `yaml:"db_path,omitempty"`

	// OutputDir is where rendered reading surfaces are written.
	OutputDir string `yaml:"output_dir,omitempty"`
}

// InferenceConfig configures the text-inference collaborator.
type InferenceConfig struct {
	URL    string `yaml:"url,omitempty"`
	Model  string `yaml:"model,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
}

// LoadConfig reads a YAML config file. A missing file is not an error;
// it returns a zero Config so the defaults apply.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &config, nil
}
