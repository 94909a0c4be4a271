// Package config is the analogue of the teacher's settings package: an
// envconfig-tagged struct for environment-driven defaults, plus
// named size presets loaded from a YAML document.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config holds environment-driven defaults for constructing estimator
// engines. Every field has a sensible zero-argument default; callers
// that want a specific shape should use a Preset instead.
type Config struct {
	SketchWidth       uint32 `envconfig:"SKETCH_WIDTH" default:"65536"`
	SketchDepth       uint16 `envconfig:"SKETCH_DEPTH" default:"4"`
	TableBuckets      int64  `envconfig:"TABLE_BUCKETS" default:"65536"`
	TableUseUnicode   bool   `envconfig:"TABLE_USE_UNICODE" default:"true"`
	HeavyHitterMax    int    `envconfig:"HEAVY_HITTER_MAX" default:"1024"`
	HeavyHitterThresh int64  `envconfig:"HEAVY_HITTER_THRESHOLD" default:"100"`
	CacheTTLSeconds   int    `envconfig:"CACHE_TTL_SECONDS" default:"30"`
	CacheSizeBytes    int    `envconfig:"CACHE_SIZE_BYTES" default:"10485760"`
}

// FromEnv loads a Config from the process environment with the
// SKETCHBOUND_ prefix, falling back to each field's envconfig default.
func FromEnv() (Config, error) {
	var c Config
	if err := envconfig.Process("sketchbound", &c); err != nil {
		return Config{}, fmt.Errorf("config: loading from environment: %w", err)
	}
	return c, nil
}

// DefaultConfig returns Config's zero-argument defaults without
// touching the environment, mirroring the teacher's
// DefaultHotKeyDetectorConfig pattern.
func DefaultConfig() Config {
	return Config{
		SketchWidth:       65536,
		SketchDepth:       4,
		TableBuckets:      65536,
		TableUseUnicode:   true,
		HeavyHitterMax:    1024,
		HeavyHitterThresh: 100,
		CacheTTLSeconds:   30,
		CacheSizeBytes:    10 * 1024 * 1024,
	}
}

// Preset names a named width/depth/buckets combination.
type Preset struct {
	Name         string `yaml:"name"`
	SketchWidth  uint32 `yaml:"sketch_width"`
	SketchDepth  uint16 `yaml:"sketch_depth"`
	TableBuckets int64  `yaml:"table_buckets"`
}

// defaultPresetsYAML is the built-in "small"/"medium"/"large" preset
// document; ParsePresets also accepts a caller-supplied override.
const defaultPresetsYAML = `
presets:
  - name: small
    sketch_width: 4096
    sketch_depth: 3
    table_buckets: 4096
  - name: medium
    sketch_width: 65536
    sketch_depth: 4
    table_buckets: 65536
  - name: large
    sketch_width: 1048576
    sketch_depth: 5
    table_buckets: 1048576
`

type presetDocument struct {
	Presets []Preset `yaml:"presets"`
}

// ParsePresets decodes a YAML document of the defaultPresetsYAML shape
// into a name-indexed map.
func ParsePresets(doc []byte) (map[string]Preset, error) {
	var parsed presetDocument
	if err := yaml.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("config: parsing presets: %w", err)
	}
	out := make(map[string]Preset, len(parsed.Presets))
	for _, p := range parsed.Presets {
		out[p.Name] = p
	}
	return out, nil
}

// DefaultPresets returns the built-in "small"/"medium"/"large" presets.
func DefaultPresets() map[string]Preset {
	presets, err := ParsePresets([]byte(defaultPresetsYAML))
	if err != nil {
		// The built-in document is a compile-time constant; a failure
		// here means it was edited into invalid YAML.
		panic(err)
	}
	return presets
}
