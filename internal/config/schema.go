package config

// Config holds booksmith configuration.
// Loaded from ./config.yaml or ~/.booksmith/config.yaml.
type Config struct {
	Provider ProviderCfg `mapstructure:"provider" yaml:"provider"`
	Defaults DefaultsCfg `mapstructure:"defaults" yaml:"defaults"`
}

// ProviderCfg configures the Groq provider.
type ProviderCfg struct {
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`                 // API key (supports ${ENV_VAR} syntax)
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`               // API base URL
	Model          string `mapstructure:"model" yaml:"model"`                     // Model name
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"` // HTTP timeout
}

// DefaultsCfg specifies default generation parameters.
type DefaultsCfg struct {
	WritingStyle    string `mapstructure:"writing_style" yaml:"writing_style"`
	ComplexityLevel string `mapstructure:"complexity_level" yaml:"complexity_level"`
	Output          string `mapstructure:"output" yaml:"output"` // Default output file for generated books
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderCfg{
			APIKey:         "${GROQ_API_KEY}",
			BaseURL:        "https://api.groq.com/openai/v1",
			Model:          "llama-3.3-70b-versatile",
			TimeoutSeconds: 120,
		},
		Defaults: DefaultsCfg{
			WritingStyle:    "Formal",
			ComplexityLevel: "Intermediate",
			Output:          "book.md",
		},
	}
}
