package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server ServerConfig `koanf:"server"`
	Data   DataConfig   `koanf:"data"`
	Ollama OllamaConfig `koanf:"ollama"`
	OpenAI OpenAIConfig `koanf:"openai"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type DataConfig struct {
	// Dir holds the JSON collection files (personas, questions, questionnaires).
	Dir string `koanf:"dir"`
	// ResultsDir holds one report file per completed experiment.
	ResultsDir string `koanf:"results_dir"`
}

type OllamaConfig struct {
	Endpoint string `koanf:"endpoint"`
	// Model is the operator-preferred local model. The gateway may override it
	// with whatever the local backend actually serves.
	Model string `koanf:"model"`
}

type OpenAIConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
}

// Load builds configuration from defaults, an optional config.yaml, the
// PERSONAKIT_ environment namespace, and the conventional provider
// environment variables (OLLAMA_ENDPOINT, OPENAI_API_KEY, ...), in that
// order of increasing precedence.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is Load with an explicit config file path. A missing file is not
// an error; anything else is.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	// Default values
	k.Set("server.port", 8080)
	k.Set("data.dir", "data")
	k.Set("data.results_dir", "results/experiments")
	k.Set("ollama.endpoint", "http://localhost:11434")
	k.Set("ollama.model", "qwen3-coder")
	k.Set("openai.model", "gpt-4o-mini")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	// Load environment variables
	if err := k.Load(env.Provider("PERSONAKIT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "PERSONAKIT_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// The provider variables predate the PERSONAKIT_ namespace and are what
	// the settings endpoint writes, so they take precedence.
	if v := os.Getenv("OLLAMA_ENDPOINT"); v != "" {
		cfg.Ollama.Endpoint = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Ollama.Model = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}

	return &cfg, nil
}
