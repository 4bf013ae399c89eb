// internal/workers/agent/answer-question/config.go
package answerquestion

import "time"

type Config struct {
	MaxIterations int
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxIterations: 8,
		Timeout:       90 * time.Second,
	}
}
