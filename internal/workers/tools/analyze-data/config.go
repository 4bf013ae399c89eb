// internal/workers/tools/analyze-data/config.go
package analyzedata

import "time"

type Config struct {
	Timeout        time.Duration
	MaxOutputChars int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        10 * time.Second,
		MaxOutputChars: 8000,
	}
}
