// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"titanic-agent/internal/common/validation"
	"titanic-agent/pkg/registry"
)

const defaultPath = "pkg/registry/tools.json"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var registryPath string

	root := &cobra.Command{
		Use:           "registry-updater",
		Short:         "Inspect and maintain the agent tool catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&registryPath, "path", defaultPath, "path to the tool catalog")

	root.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the catalog and compile every input schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := validateRegistry(registryPath)
			if err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Fprintf(out, "Registry validation passed. Found %d tools.\n", len(reg.Tools))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List catalog tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(registryPath)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			for _, t := range reg.Tools {
				fmt.Fprintf(out, "%-16s %-10s %-6s %s\n", t.Name, t.Category, t.Timeout, t.DisplayName)
			}
			return nil
		},
	})

	var name, field, value string
	update := &cobra.Command{
		Use:   "update",
		Short: "Update one field of a tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := updateTool(registryPath, name, field, value); err != nil {
				return err
			}
			fmt.Fprintf(out, "Updated tool %s, field %s to %s\n", name, field, value)
			return nil
		},
	}
	update.Flags().StringVar(&name, "name", "", "tool name")
	update.Flags().StringVar(&field, "field", "", "field to update (displayName, description, category, timeout, tags)")
	update.Flags().StringVar(&value, "value", "", "new value")
	_ = update.MarkFlagRequired("name")
	_ = update.MarkFlagRequired("field")
	_ = update.MarkFlagRequired("value")
	root.AddCommand(update)

	return root
}

func validateRegistry(path string) (*registry.ToolRegistry, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	if len(reg.Tools) == 0 {
		return nil, fmt.Errorf("registry contains no tools")
	}
	for _, t := range reg.Tools {
		if t.DisplayName == "" {
			return nil, fmt.Errorf("tool %s missing required field: displayName", t.Name)
		}
		if t.TaskType == "" {
			return nil, fmt.Errorf("tool %s missing required field: taskType", t.Name)
		}
		if t.Timeout != "" {
			if _, err := time.ParseDuration(t.Timeout); err != nil {
				return nil, fmt.Errorf("tool %s has invalid timeout %q", t.Name, t.Timeout)
			}
		}
		if _, err := validation.Compile(t.InputSchema); err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
	}
	return reg, nil
}

func updateTool(path, name, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	idx := -1
	for i := range reg.Tools {
		if reg.Tools[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("tool %s not found", name)
	}

	t := &reg.Tools[idx]
	switch field {
	case "displayName":
		t.DisplayName = value
	case "description":
		t.Description = value
	case "category":
		t.Category = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		t.Timeout = value
	case "tags":
		t.Tags = strings.Split(value, ",")
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return saveRegistry(reg, path)
}

func saveRegistry(reg *registry.ToolRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
