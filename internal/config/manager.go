// Package config resolves the tutor's configuration from flags,
// environment, and a persisted JSON file, in that order of precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// File is the persisted part of the configuration, stored as JSON at
// <configDir>/dojo/config.json. API keys stay in the environment and
// are never written here.
type File struct {
	Provider    string `json:"provider,omitempty"`
	Model       string `json:"model,omitempty"`
	BaseURL     string `json:"base_url,omitempty"`
	DefaultMode string `json:"default_mode,omitempty"`
}

// Manager handles loading and saving the persisted configuration. Its
// directory also anchors the session database and progress files.
type Manager struct {
	dir string
}

// NewManager places the config under the platform user config dir.
func NewManager() (*Manager, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return NewManagerAt(filepath.Join(base, "dojo")), nil
}

// NewManagerAt uses an explicit directory instead of the platform
// default.
func NewManagerAt(dir string) *Manager {
	return &Manager{dir: dir}
}

// Dir returns the dojo config directory. Sibling stores (sessions.db,
// progress/) live under it.
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the absolute path of config.json.
func (m *Manager) Path() string {
	return filepath.Join(m.dir, "config.json")
}

// Exists reports whether a config file has been written before.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.Path())
	return err == nil
}

// Load reads the persisted configuration. A missing file is not an
// error; it just means nothing has been saved yet.
func (m *Manager) Load() (File, error) {
	data, err := os.ReadFile(m.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse config json: %w", err)
	}
	return f, nil
}

// Save writes the configuration with owner-only permissions. The write
// goes through a temp file and a rename so a crash cannot leave a
// half-written config behind.
func (m *Manager) Save(f File) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(m.dir, "config-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict config permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close config file: %w", err)
	}

	if err := os.Rename(tmpName, m.Path()); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}
