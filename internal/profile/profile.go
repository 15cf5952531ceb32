// Package profile stores named snapshots of the playback, humanization and
// quick action settings, and applies the built-in humanization presets.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/rere/internal/config"
)

// FileName is the single file holding every saved profile.
const FileName = "profiles.yaml"

// ErrNotFound is returned for a profile name that is not saved.
var ErrNotFound = errors.New("profile not found")

// Profile is one saved snapshot.
type Profile struct {
	Preset       string                    `yaml:"preset"`
	Playback     config.PlaybackConfig     `yaml:"playback"`
	Humanization config.HumanizationConfig `yaml:"humanization"`
	QuickActions config.QuickActionsConfig `yaml:"quick_actions"`
}

// Snapshot captures the current settings of cfg.
func Snapshot(cfg config.Interface) Profile {
	return Profile{
		Preset:       cfg.Profile(),
		Playback:     cfg.Playback(),
		Humanization: cfg.Humanization(),
		QuickActions: cfg.QuickActions(),
	}
}

// Apply copies the profile's humanization, speed and preset name into cfg.
// Quick action values are returned to the caller through the profile itself.
func (p Profile) Apply(cfg config.Interface) error {
	h := p.Humanization
	if err := h.Validate(); err != nil {
		return fmt.Errorf("profile humanization invalid: %w", err)
	}
	pb := p.Playback
	if err := pb.Validate(); err != nil {
		return fmt.Errorf("profile playback invalid: %w", err)
	}
	cfg.SetHumanization(h)
	cfg.SetPlaybackSpeed(pb.Speed)
	if p.Preset != "" {
		cfg.SetProfile(p.Preset)
	}
	return nil
}

// Store keeps profiles in one YAML file. A missing or unreadable file reads
// as no profiles; profiles are a convenience and never block startup.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewStore creates a store rooted at dir. The directory is created on first save.
func NewStore(dir string, logger *zap.Logger) *Store {
	return &Store{path: filepath.Join(dir, FileName), logger: logger.Named("profile")}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) load() map[string]Profile {
	out := map[string]Profile{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Could not read profiles", zap.String("path", s.path), zap.Error(err))
		}
		return out
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		s.logger.Warn("Ignoring corrupt profiles file", zap.String("path", s.path), zap.Error(err))
		return map[string]Profile{}
	}
	if out == nil {
		out = map[string]Profile{}
	}
	return out
}

func (s *Store) write(all map[string]Profile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	data, err := yaml.Marshal(all)
	if err != nil {
		return fmt.Errorf("failed to encode profiles: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace profiles: %w", err)
	}
	return nil
}

// List returns the saved profile names, sorted case-insensitively.
func (s *Store) List() []string {
	s.mu.Lock()
	all := s.load()
	s.mu.Unlock()

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// Get returns the named profile.
func (s *Store) Get(name string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.load()[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, nil
}

// Save stores p under name, replacing any existing profile.
func (s *Store) Save(name string, p Profile) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("profile name cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.load()
	all[name] = p
	if err := s.write(all); err != nil {
		return err
	}
	s.logger.Info("Profile saved", zap.String("name", name))
	return nil
}

// Delete removes the named profile.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.load()
	if _, ok := all[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(all, name)
	if err := s.write(all); err != nil {
		return err
	}
	s.logger.Info("Profile deleted", zap.String("name", name))
	return nil
}
