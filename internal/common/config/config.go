// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig             `mapstructure:"app"`
	Server  ServerConfig          `mapstructure:"server"`
	LLM     LLMConfig             `mapstructure:"llm"`
	Dataset DatasetConfig         `mapstructure:"dataset"`
	Agent   AgentConfig           `mapstructure:"agent"`
	Chart   ChartConfig           `mapstructure:"chart"`
	Tools   map[string]ToolConfig `mapstructure:"tools"`
	Logging LoggingConfig         `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string   `mapstructure:"address"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

// LLMConfig points at any OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds, whole question
}

type DatasetConfig struct {
	Path string `mapstructure:"path"`
}

type AgentConfig struct {
	MaxIterations int `mapstructure:"max_iterations"`
}

// ChartConfig holds the default figure size in inches.
type ChartConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

// ToolConfig holds the settings applicable to every tool.
type ToolConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	Timeout        int  `mapstructure:"timeout"`          // milliseconds; 0 defers to the tool catalog
	MaxOutputChars int  `mapstructure:"max_output_chars"` // 0 means unlimited
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
