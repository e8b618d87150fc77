package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultTables []byte

type registryFile struct {
	Tables map[string]TableSchema `yaml:"tables"`
}

// Registry is a read-only lookup of table metadata.
type Registry struct {
	tables map[string]*TableSchema
}

func NewRegistry(tables map[string]TableSchema) *Registry {
	r := &Registry{tables: make(map[string]*TableSchema, len(tables))}
	for name, table := range tables {
		t := table
		t.Name = name
		r.tables[name] = &t
	}
	return r
}

// DefaultRegistry returns the metadata of the CMS core tables shipped with the binary.
func DefaultRegistry() (*Registry, error) {
	registry, err := ParseRegistry(defaultTables)
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in schema: %w", err)
	}
	return registry, nil
}

func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return NewRegistry(file.Tables), nil
}

func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	registry, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	return registry, nil
}

// Load returns the built-in registry, overlaid with the tables from path when set.
func Load(path string) (*Registry, error) {
	registry, err := DefaultRegistry()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return registry, nil
	}
	extra, err := LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	return registry.Merge(extra), nil
}

// Merge returns a registry holding both sets of tables; other wins on conflicts.
func (r *Registry) Merge(other *Registry) *Registry {
	merged := &Registry{tables: make(map[string]*TableSchema, len(r.tables)+len(other.tables))}
	for name, table := range r.tables {
		merged.tables[name] = table
	}
	for name, table := range other.tables {
		merged.tables[name] = table
	}
	return merged
}

func (r *Registry) Describe(name string) (*TableSchema, error) {
	name = strings.TrimSpace(name)
	table, ok := r.tables[name]
	if !ok {
		return nil, &SchemaError{Table: name, Reason: "table is not configured"}
	}
	if table.Label == "" {
		return nil, &SchemaError{Table: name, Reason: "label field is not defined"}
	}
	copied := *table
	return &copied, nil
}

func (r *Registry) Tables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
