// internal/workers/tools/analyze-data/models.go
package analyzedata

// Input is the tool-call argument object.
type Input struct {
	Query string `json:"query"`
}
