// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

//go:embed tools.json
var defaultCatalog []byte

// Default returns the catalog compiled into the binary.
func Default() (*ToolRegistry, error) {
	return Parse(defaultCatalog)
}

func LoadRegistry(path string) (*ToolRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ToolRegistry, error) {
	var reg ToolRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse tool registry: %w", err)
	}
	seen := make(map[string]bool, len(reg.Tools))
	for _, t := range reg.Tools {
		if t.Name == "" {
			return nil, fmt.Errorf("parse tool registry: tool without name")
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("parse tool registry: duplicate tool %q", t.Name)
		}
		if len(t.InputSchema) == 0 {
			return nil, fmt.Errorf("parse tool registry: tool %q has no inputSchema", t.Name)
		}
		seen[t.Name] = true
	}
	return &reg, nil
}

// Get looks a tool up by name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	for _, t := range r.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

func (r *ToolRegistry) Names() []string {
	names := make([]string, len(r.Tools))
	for i, t := range r.Tools {
		names[i] = t.Name
	}
	return names
}

// TimeoutDuration parses Timeout, falling back to def when unset or invalid.
func (t Tool) TimeoutDuration(def time.Duration) time.Duration {
	d, err := time.ParseDuration(t.Timeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
