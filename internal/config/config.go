// Package config loads venv-bootstrap settings.
//
// Settings come from three layers, later layers winning:
//  1. Built-in defaults (Default)
//  2. An optional project config file (YAML, or JSON with comments)
//  3. Command-line flags, applied by the cli package
//
// JSON config files may contain comments, so this package uses
// github.com/tidwall/jsonc to strip them before decoding with
// encoding/json. YAML files are decoded with gopkg.in/yaml.v3.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/venv-bootstrap/internal/model"
)

// Built-in defaults.
const (
	DefaultMinPython         = "3.10"
	DefaultEnvDir            = ".venv"
	DefaultPrimaryManifest   = "requirements.txt"
	DefaultSecondaryManifest = "pyproject.toml"
	DefaultSyncTool          = "uv"
)

// FileNames lists the config files searched in the project directory,
// in priority order.
var FileNames = []string{
	"venv-bootstrap.yaml",
	".venv-bootstrap.yaml",
	"venv-bootstrap.json",
}

// Config holds the effective settings for a run.
type Config struct {
	// MinPython is the minimum interpreter version as "major.minor".
	MinPython string

	// Interpreters are the executable names tried on PATH, in order.
	Interpreters []string

	// EnvDirs are the candidate environment directories, checked in order.
	EnvDirs []string

	// DefaultEnv is the directory created when no candidate exists.
	// It must be one of EnvDirs.
	DefaultEnv string

	PrimaryManifest   string
	SecondaryManifest string
	SyncTool          string

	// FallbackPackages is installed when neither manifest exists.
	// An empty list means the fallback only warns.
	FallbackPackages []string

	// UpgradePip upgrades pip inside the environment before installing.
	UpgradePip bool

	// LogFile, when set, receives a debug-level copy of all log output.
	LogFile string
}

// Default returns the built-in configuration.
//
// The environment candidates are checked .venv first, then venv; .venv is
// created when neither exists. The fallback installs rich, the one utility
// package the scaffolded project always uses.
func Default() Config {
	return Config{
		MinPython:         DefaultMinPython,
		Interpreters:      []string{"python3", "python"},
		EnvDirs:           []string{".venv", "venv"},
		DefaultEnv:        DefaultEnvDir,
		PrimaryManifest:   DefaultPrimaryManifest,
		SecondaryManifest: DefaultSecondaryManifest,
		SyncTool:          DefaultSyncTool,
		FallbackPackages:  []string{"rich"},
	}
}

// fileConfig mirrors the on-disk format. Pointer and nil-able fields
// distinguish "not set" from zero values so only present keys override
// the defaults.
type fileConfig struct {
	MinPython         *string   `yaml:"min_python" json:"min_python"`
	Interpreters      []string  `yaml:"interpreters" json:"interpreters"`
	EnvDirs           []string  `yaml:"env_dirs" json:"env_dirs"`
	DefaultEnv        *string   `yaml:"default_env" json:"default_env"`
	PrimaryManifest   *string   `yaml:"primary_manifest" json:"primary_manifest"`
	SecondaryManifest *string   `yaml:"secondary_manifest" json:"secondary_manifest"`
	SyncTool          *string   `yaml:"sync_tool" json:"sync_tool"`
	FallbackPackages  *[]string `yaml:"fallback_packages" json:"fallback_packages"`
	UpgradePip        *bool     `yaml:"upgrade_pip" json:"upgrade_pip"`
	LogFile           *string   `yaml:"log_file" json:"log_file"`
}

// Find returns the first config file present in projectDir.
// The boolean is false when there is none.
func Find(projectDir string) (string, bool) {
	for _, name := range FileNames {
		path := filepath.Join(projectDir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

// Load resolves the configuration for projectDir.
//
// If explicitPath is non-empty that file must exist. Otherwise the project
// directory is searched via Find, and defaults are used when nothing is
// found. The returned path is the file that was applied, or "".
func Load(projectDir, explicitPath string) (Config, string, error) {
	cfg := Default()

	path := explicitPath
	if path == "" {
		found, ok := Find(projectDir)
		if !ok {
			return cfg, "", nil
		}
		path = found
	}

	if err := cfg.ApplyFile(path); err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}

// ApplyFile overlays the keys present in the file at path onto c.
// The format is chosen by extension: .yaml/.yml, or .json/.jsonc.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.WrapCLIError(model.KindConfigInvalid,
				fmt.Sprintf("config file not found: %s", path), err)
		}
		return model.WrapCLIError(model.KindConfigInvalid,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	fc, err := decode(path, data)
	if err != nil {
		return model.WrapCLIError(model.KindConfigInvalid,
			fmt.Sprintf("failed to parse config file %s", path), err)
	}

	c.merge(fc)
	return nil
}

func decode(path string, data []byte) (*fileConfig, error) {
	var fc fileConfig

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil {
			// An empty or comment-only file decodes to io.EOF; treat it
			// as "no overrides".
			if errors.Is(err, io.EOF) {
				return &fc, nil
			}
			return nil, err
		}
	case ".json", ".jsonc":
		// Strip // and /* */ comments and trailing commas first.
		clean := jsonc.ToJSON(data)
		if len(bytes.TrimSpace(clean)) == 0 {
			return &fc, nil
		}
		dec := json.NewDecoder(bytes.NewReader(clean))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (use .yaml, .yml, .json or .jsonc)", filepath.Ext(path))
	}

	return &fc, nil
}

func (c *Config) merge(fc *fileConfig) {
	if fc.MinPython != nil {
		c.MinPython = *fc.MinPython
	}
	if fc.Interpreters != nil {
		c.Interpreters = fc.Interpreters
	}
	if fc.EnvDirs != nil {
		c.EnvDirs = fc.EnvDirs
	}
	if fc.DefaultEnv != nil {
		c.DefaultEnv = *fc.DefaultEnv
	}
	if fc.PrimaryManifest != nil {
		c.PrimaryManifest = *fc.PrimaryManifest
	}
	if fc.SecondaryManifest != nil {
		c.SecondaryManifest = *fc.SecondaryManifest
	}
	if fc.SyncTool != nil {
		c.SyncTool = *fc.SyncTool
	}
	if fc.FallbackPackages != nil {
		c.FallbackPackages = append([]string{}, (*fc.FallbackPackages)...)
	}
	if fc.UpgradePip != nil {
		c.UpgradePip = *fc.UpgradePip
	}
	if fc.LogFile != nil {
		c.LogFile = *fc.LogFile
	}
}

// MinVersion parses MinPython.
func (c Config) MinVersion() (model.Version, error) {
	return model.ParseVersion(c.MinPython)
}

// Validate checks the effective configuration before the pipeline starts.
func (c Config) Validate() error {
	if _, err := c.MinVersion(); err != nil {
		return model.WrapCLIError(model.KindConfigInvalid, "invalid min_python", err)
	}
	if len(c.Interpreters) == 0 {
		return model.NewCLIError(model.KindConfigInvalid, "interpreters must list at least one executable name")
	}
	if len(c.EnvDirs) == 0 {
		return model.NewCLIError(model.KindConfigInvalid, "env_dirs must list at least one directory")
	}
	for _, dir := range c.EnvDirs {
		if err := validateRelative("env_dirs entry", dir); err != nil {
			return err
		}
	}
	if !slices.Contains(c.EnvDirs, c.DefaultEnv) {
		return model.NewCLIError(model.KindConfigInvalid,
			fmt.Sprintf("default_env %q must be one of env_dirs %v", c.DefaultEnv, c.EnvDirs))
	}
	if err := validateRelative("primary_manifest", c.PrimaryManifest); err != nil {
		return err
	}
	if err := validateRelative("secondary_manifest", c.SecondaryManifest); err != nil {
		return err
	}
	if strings.TrimSpace(c.SyncTool) == "" {
		return model.NewCLIError(model.KindConfigInvalid, "sync_tool must not be empty")
	}
	return nil
}

// validateRelative rejects empty and absolute paths; project-relative
// names keep the tool confined to the project directory.
func validateRelative(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return model.NewCLIError(model.KindConfigInvalid, fmt.Sprintf("%s must not be empty", field))
	}
	if filepath.IsAbs(value) {
		return model.NewCLIError(model.KindConfigInvalid,
			fmt.Sprintf("%s %q must be relative to the project directory", field, value))
	}
	return nil
}
