// Package store persists the bridge address and the credential obtained by
// pairing. The file is a small JSON object that users may edit by hand.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"huecli/internal/logging"
)

// Config is the persisted link state. Readers treat anything short of both
// fields being set as unlinked.
type Config struct {
	Bridge string `json:"bridge,omitempty"`
	User   string `json:"user,omitempty"`
}

// Linked reports whether both the bridge address and the credential are set.
func (c Config) Linked() bool {
	return c.Bridge != "" && c.User != ""
}

// BridgeAddress returns the configured bridge address or ErrNotConfigured.
func (c Config) BridgeAddress() (string, error) {
	if c.Bridge == "" {
		return "", ErrNotConfigured
	}
	return c.Bridge, nil
}

// Credential returns the paired user name or ErrNotLinked.
func (c Config) Credential() (string, error) {
	if c.User == "" {
		return "", ErrNotLinked
	}
	return c.User, nil
}

type Store struct {
	filePath string
	log      *logging.Logger
}

func New(path string, log *logging.Logger) *Store {
	return &Store{
		filePath: path,
		log:      logging.OrDiscard(log).Component("store"),
	}
}

func (s *Store) Path() string {
	return s.filePath
}

// Load reads the config file. A missing, unreadable or malformed file yields
// an empty Config: first runs have no file and that is not an error.
func (s *Store) Load() Config {
	var cfg Config

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		s.log.Debug("config not readable, starting empty", "path", s.filePath, "error", err)
		return Config{}
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		s.log.Debug("config not parseable, starting empty", "path", s.filePath, "error", err)
		return Config{}
	}
	return cfg
}

// Save replaces the config file as a whole. Errors are returned untouched:
// losing a credential silently is worse than a raw filesystem error.
func (s *Store) Save(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.filePath)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		return err
	}

	s.log.Debug("config saved", "path", s.filePath, "linked", cfg.Linked())
	return nil
}

// DefaultPath is ~/.hue, falling back to the working directory when the
// home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hue"
	}
	return filepath.Join(home, ".hue")
}
