package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded is the resolved runtime view: where the config came from, its
// values, and the card file it points at.
type Loaded struct {
	Path     string
	Exists   bool
	Config   Config
	CardPath string
	Warnings []Warning
}

// Load reads the config file at configPath (or the XDG default) and
// resolves the card file, with cardPath taking precedence over card.path.
// A missing config file yields the defaults and a warning.
func Load(configPath string, cardPath string) (Loaded, error) {
	path, err := ResolvePath(configPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: path, Config: Default()}
	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", path),
		})
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	default:
		cfg, warnings, err := Parse(string(content), loaded.Config)
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
		}
		loaded.Exists = true
		loaded.Config = cfg
		loaded.Warnings = warnings
	}

	loaded.CardPath, err = ResolveCardPath(cardPath, loaded.Config)
	if err != nil {
		return Loaded{}, err
	}
	return loaded, nil
}
