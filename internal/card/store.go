package card

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists the latest card as a JSON document.
type FileStore struct {
	Path string
}

// Load reads the stored card. A missing file yields a blank card and false.
func (s FileStore) Load() (Card, bool, error) {
	if strings.TrimSpace(s.Path) == "" {
		return Card{}, false, errors.New("card path is empty")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Card{}, false, nil
		}
		return Card{}, false, fmt.Errorf("read card %q: %w", s.Path, err)
	}

	var c Card
	if err := json.Unmarshal(data, &c); err != nil {
		return Card{}, true, fmt.Errorf("decode card %q: %w", s.Path, err)
	}
	return c, true, nil
}

// Save writes c through a same-directory temp file and rename.
func (s FileStore) Save(c Card) error {
	if strings.TrimSpace(s.Path) == "" {
		return errors.New("card path is empty")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode card: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create card directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".card-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp card: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp card: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp card: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp card: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace card: %w", err)
	}
	return nil
}
