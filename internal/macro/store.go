package macro

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a macro does not exist or holds no events.
var ErrNotFound = errors.New("macro not found")

const fileExt = ".json"

// Macro is a named, ordered event list.
type Macro struct {
	Name   string  `json:"name"`
	Events []Event `json:"events"`
}

// Entry is one item of the macro library listing.
type Entry struct {
	Name string
	Path string
}

// Info summarizes a stored macro.
type Info struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	EventCount  int       `json:"event_count"`
	DurationSec float64   `json:"duration_sec"`
	Modified    time.Time `json:"modified"`
}

// Store keeps macros as one JSON file each inside a directory.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore opens (creating if needed) the macro directory.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create macros directory %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger.Named("macro_store")}, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string { return s.dir }

// SafeFilename keeps letters, digits, spaces, underscores and dashes.
// An empty result becomes "macro".
func SafeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	safe := strings.TrimSpace(b.String())
	if safe == "" {
		return "macro"
	}
	return safe
}

func (s *Store) pathFor(nameOrPath string) string {
	if filepath.IsAbs(nameOrPath) {
		if st, err := os.Stat(nameOrPath); err == nil && !st.IsDir() {
			return nameOrPath
		}
	}
	return filepath.Join(s.dir, SafeFilename(nameOrPath)+fileExt)
}

// Save writes the macro and returns the file path. An existing macro with the
// same file name is replaced.
func (s *Store) Save(name string, events []Event) (string, error) {
	if events == nil {
		events = []Event{}
	}
	data, err := json.MarshalIndent(Macro{Name: name, Events: events}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode macro %q: %w", name, err)
	}
	path := filepath.Join(s.dir, SafeFilename(name)+fileExt)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write macro %q: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to write macro %q: %w", name, err)
	}
	s.logger.Info("Macro saved", zap.String("name", name), zap.String("path", path), zap.Int("events", len(events)))
	return path, nil
}

// Load reads a macro by display name or absolute path. Missing files and
// macros without events yield ErrNotFound.
func (s *Store) Load(nameOrPath string) (*Macro, error) {
	path := s.pathFor(nameOrPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, nameOrPath)
		}
		return nil, fmt.Errorf("failed to read macro %s: %w", path, err)
	}
	m, err := Decode(data, strings.TrimSuffix(filepath.Base(path), fileExt))
	if err != nil {
		return nil, fmt.Errorf("failed to decode macro %s: %w", path, err)
	}
	if len(m.Events) == 0 {
		return nil, fmt.Errorf("%w: %s has no events", ErrNotFound, nameOrPath)
	}
	return m, nil
}

// Decode parses a macro document. Both the {"name", "events"} object and a
// bare event array are accepted; fallbackName is used when no name is stored.
func Decode(data []byte, fallbackName string) (*Macro, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var events []Event
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, err
		}
		return &Macro{Name: fallbackName, Events: events}, nil
	}

	var m Macro
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = fallbackName
	}
	return &m, nil
}

// List returns every stored macro sorted case-insensitively by display name.
// Unreadable files are listed under their file name.
func (s *Store) List() ([]Entry, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list macros in %s: %w", s.dir, err)
	}

	var out []Entry
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), fileExt) {
			continue
		}
		path := filepath.Join(s.dir, de.Name())
		base := strings.TrimSuffix(de.Name(), fileExt)
		name := base
		if data, err := os.ReadFile(path); err == nil {
			if m, err := Decode(data, base); err == nil {
				name = m.Name
			} else {
				s.logger.Debug("Unreadable macro file", zap.String("path", path), zap.Error(err))
			}
		}
		out = append(out, Entry{Name: name, Path: path})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Info loads a macro and summarizes it.
func (s *Store) Info(nameOrPath string) (*Info, error) {
	m, err := s.Load(nameOrPath)
	if err != nil {
		return nil, err
	}
	path := s.pathFor(nameOrPath)
	info := &Info{
		Name:        m.Name,
		Path:        path,
		EventCount:  len(m.Events),
		DurationSec: Duration(m.Events),
	}
	if st, err := os.Stat(path); err == nil {
		info.Modified = st.ModTime()
	}
	return info, nil
}

// Delete removes a stored macro.
func (s *Store) Delete(nameOrPath string) error {
	path := s.pathFor(nameOrPath)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, nameOrPath)
		}
		return fmt.Errorf("failed to delete macro %s: %w", path, err)
	}
	s.logger.Info("Macro deleted", zap.String("path", path))
	return nil
}
