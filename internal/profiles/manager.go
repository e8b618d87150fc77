package profiles

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kitzberger/cli-browser/internal/config"
)

const defaultDir = "configs"

var fileNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9-_]`)

// Profile is a saved connection configuration.
type Profile struct {
	Name     string
	Path     string
	Type     string
	Server   string
	Modified time.Time
}

// Manager discovers and persists connection profiles under a directory.
type Manager struct {
	dir string
}

func NewManager(dir string) *Manager {
	if strings.TrimSpace(dir) == "" {
		dir = defaultDir
	}
	return &Manager{dir: dir}
}

func (m *Manager) Directory() string {
	return m.dir
}

// List returns the readable profiles sorted by name, optionally only those of
// one database type. Files that fail to load are skipped.
func (m *Manager) List(expectedType string) ([]Profile, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read profile directory: %w", err)
	}

	if expectedType != "" {
		expectedType = config.NormalizeDatabaseType(expectedType)
	}

	var profiles []Profile
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		cfg, err := config.LoadConfig(path)
		if err != nil {
			continue
		}
		if expectedType != "" && cfg.Database.Type != expectedType {
			continue
		}
		info, err := entry.Info()
		profiles = append(profiles, Profile{
			Name:     strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Path:     path,
			Type:     cfg.Database.Type,
			Server:   cfg.ServerLabel(),
			Modified: modifiedTime(info, err),
		})
	}

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

func modifiedTime(info os.FileInfo, err error) time.Time {
	if err != nil || info == nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Save writes cfg under alias and returns the resulting profile.
func (m *Manager) Save(alias string, cfg *config.Config) (Profile, error) {
	if cfg == nil {
		return Profile{}, fmt.Errorf("config cannot be nil")
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return Profile{}, fmt.Errorf("failed to create profile directory: %w", err)
	}

	base := strings.TrimSpace(alias)
	if base == "" {
		base = fmt.Sprintf("%s-%s", cfg.Database.Type, time.Now().Format("20060102_150405"))
	}
	if isYAML(base) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	base = ensureYAMLExt(sanitizeName(base))

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to encode profile: %w", err)
	}

	path := filepath.Join(m.dir, base)
	// profiles may hold passwords
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Profile{}, fmt.Errorf("failed to write profile: %w", err)
	}

	return Profile{
		Name:     strings.TrimSuffix(base, filepath.Ext(base)),
		Path:     path,
		Type:     cfg.Database.Type,
		Server:   cfg.ServerLabel(),
		Modified: time.Now(),
	}, nil
}

// Load reads a profile by alias or file path.
func (m *Manager) Load(alias string) (*config.Config, error) {
	path, err := m.resolve(alias)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", alias, err)
	}
	return cfg, nil
}

func (m *Manager) Delete(alias string) error {
	path, err := m.resolve(alias)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("profile not found: %s", alias)
	}
	return os.Remove(path)
}

func (m *Manager) resolve(alias string) (string, error) {
	if strings.TrimSpace(alias) == "" {
		return "", fmt.Errorf("profile alias cannot be empty")
	}
	if strings.ContainsRune(alias, os.PathSeparator) {
		return alias, nil
	}
	return filepath.Join(m.dir, ensureYAMLExt(alias)), nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func ensureYAMLExt(name string) string {
	if isYAML(name) {
		return name
	}
	return name + ".yaml"
}

func sanitizeName(input string) string {
	cleaned := fileNameSanitizer.ReplaceAllString(input, "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		return "profile"
	}
	return cleaned
}
