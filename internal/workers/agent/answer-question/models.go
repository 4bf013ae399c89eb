// internal/workers/agent/answer-question/models.go
package answerquestion

const (
	// ImageAnswer replaces the model's text whenever a chart was produced.
	ImageAnswer = "Here is the requested visualization:"

	IterationLimitAnswer = "Agent stopped due to iteration limit or time limit."
)

type Input struct {
	Question string `json:"question"`
}

// Output is the answer to one question. Image is a base64 PNG or nil.
type Output struct {
	Answer string  `json:"answer"`
	Image  *string `json:"image"`
}
