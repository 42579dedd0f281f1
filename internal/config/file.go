package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is an on-disk encoding of the settings record.
type Format int

const (
	FormatJSON Format = iota
	FormatTOML
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "json"
	}
}

// DetectFormat picks the encoding from the file extension, defaulting to JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a settings record into a flat key/value map.
func Decode(content []byte, format Format) (map[string]any, error) {
	data := map[string]any{}
	if len(bytes.TrimSpace(content)) == 0 {
		return data, nil
	}
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("toml parse error: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("yaml parse error: %w", err)
		}
	default:
		if err := json.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("json parse error: %w", err)
		}
	}
	return data, nil
}

// Load reads the record at path on top of Defaults.
//
// A missing file yields Defaults and no error. A file that cannot be parsed
// returns an error together with Defaults. Individual malformed fields are
// returned as warnings.
func Load(path string) (Config, []error, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil, nil
		}
		return cfg, nil, fmt.Errorf("read config: %w", err)
	}
	values, err := Decode(content, DetectFormat(path))
	if err != nil {
		return cfg, nil, err
	}
	cfg, warnings := Apply(cfg, values)
	return cfg, warnings, nil
}

// Encode serializes cfg in the given format.
func Encode(cfg Config, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, fmt.Errorf("toml encode: %w", err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("yaml encode: %w", err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("json encode: %w", err)
		}
		return data, nil
	}
}

// Save writes cfg to path, picking the format from the extension.
func Save(path string, cfg Config) error {
	data, err := Encode(cfg, DetectFormat(path))
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
