package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	serrors "github.com/mkpages/mkpages/internal/errors"
)

// DefaultConfigFiles are probed in order when no explicit path is given.
var DefaultConfigFiles = []string{"mkpages.yml", "mkpages.yaml"}

// Load reads, normalizes, defaults, and validates a configuration file.
// Environment references (${VAR}) in the raw YAML are expanded after an
// optional .env file next to the config has been loaded. The returned
// warnings come from the normalization pass; they never prevent loading.
func Load(path string) (*Config, []Warning, error) {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, nil, err
	}

	// .env beside the config file, if present. Existing process env wins.
	envPath := filepath.Join(filepath.Dir(resolved), ".env")
	if _, statErr := os.Stat(envPath); statErr == nil {
		if loadErr := godotenv.Load(envPath); loadErr != nil {
			return nil, nil, serrors.Wrap(loadErr, serrors.CategoryConfig, serrors.SeverityFatal, "cannot load .env file").
				WithContext("path", envPath)
		}
	}

	raw, err := os.ReadFile(resolved) //nolint:gosec // path is user supplied by design
	if err != nil {
		return nil, nil, serrors.Wrap(err, serrors.CategoryConfig, serrors.SeverityFatal, "cannot read configuration file").
			WithContext("path", resolved)
	}

	cfg, warnings, err := Parse(os.ExpandEnv(string(raw)))
	if err != nil {
		return nil, nil, err
	}
	cfg.sourcePath = resolved
	return cfg, warnings, nil
}

// Parse decodes an already-expanded YAML document and runs the normalize,
// default, and validate passes in that order.
func Parse(doc string) (*Config, []Warning, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(doc)))
	// Unknown top-level keys are rejected; typos should not silently vanish.
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// an empty document is not a parse error; validation reports the
		// missing required fields instead
		if !errors.Is(err, io.EOF) {
			return nil, nil, serrors.Wrap(err, serrors.CategoryConfig, serrors.SeverityFatal, "cannot parse configuration")
		}
	}

	warnings := Normalize(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, warnings, err
	}
	return cfg, warnings, nil
}

// resolveConfigPath returns the explicit path, or the first default file
// that exists. A missing file is a distinct error from a malformed one.
func resolveConfigPath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return "", serrors.ConfigNotFound(path)
			}
			return "", serrors.Wrap(err, serrors.CategoryFileSystem, serrors.SeverityFatal, "cannot stat configuration file").
				WithContext("path", path)
		}
		return path, nil
	}
	for _, candidate := range DefaultConfigFiles {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", serrors.ConfigNotFound(fmt.Sprintf("%v", DefaultConfigFiles))
}
