package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadFile("")
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}

		if cfg.Server.Port != 8080 {
			t.Errorf("port = %v, want 8080", cfg.Server.Port)
		}
		if cfg.Data.Dir != "data" {
			t.Errorf("data dir = %v, want data", cfg.Data.Dir)
		}
		if cfg.Ollama.Endpoint != "http://localhost:11434" {
			t.Errorf("ollama endpoint = %v", cfg.Ollama.Endpoint)
		}
		if cfg.OpenAI.Model != "gpt-4o-mini" {
			t.Errorf("openai model = %v, want gpt-4o-mini", cfg.OpenAI.Model)
		}
	})

	t.Run("env var port override", func(t *testing.T) {
		t.Setenv("PERSONAKIT_SERVER_PORT", "9000")

		cfg, err := LoadFile("")
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}

		if cfg.Server.Port != 9000 {
			t.Errorf("port = %v, want 9000", cfg.Server.Port)
		}
	})

	t.Run("provider env vars win", func(t *testing.T) {
		t.Setenv("OLLAMA_ENDPOINT", "http://gpu-box:11434")
		t.Setenv("OPENAI_API_KEY", "sk-test")

		cfg, err := LoadFile("")
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}

		if cfg.Ollama.Endpoint != "http://gpu-box:11434" {
			t.Errorf("ollama endpoint = %v", cfg.Ollama.Endpoint)
		}
		if cfg.OpenAI.APIKey != "sk-test" {
			t.Errorf("api key = %v, want sk-test", cfg.OpenAI.APIKey)
		}
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := []byte("server:\n  port: 7070\nollama:\n  model: llama3\n")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}

		if cfg.Server.Port != 7070 {
			t.Errorf("port = %v, want 7070", cfg.Server.Port)
		}
		if cfg.Ollama.Model != "llama3" {
			t.Errorf("ollama model = %v, want llama3", cfg.Ollama.Model)
		}
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
	})
}
