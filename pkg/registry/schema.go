// pkg/registry/schema.go
package registry

import "encoding/json"

type ToolRegistry struct {
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated"`
	Tools       []Tool `json:"tools"`
}

type Tool struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"displayName"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	TaskType    string          `json:"taskType"`
	Timeout     string          `json:"timeout"`
	InputSchema json.RawMessage `json:"inputSchema"`
	Tags        []string        `json:"tags"`
}
