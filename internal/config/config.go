package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AI struct {
		Provider    string `yaml:"provider"` // "openai" (any OpenAI-compatible endpoint) or "gemini"
		Model       string `yaml:"model"`
		APIKey      string `yaml:"api_key"`
		BaseURL     string `yaml:"base_url"`
		Personality string `yaml:"personality"`
	} `yaml:"ai"`
	Chunking struct {
		Size    int `yaml:"size"`
		Overlap int `yaml:"overlap"`
	} `yaml:"chunking"`
	Retrieval struct {
		TopK             int     `yaml:"top_k"`
		MinScore         float64 `yaml:"min_score"`
		MaxContextLength int     `yaml:"max_context_length"`
	} `yaml:"retrieval"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

func defaults() *Config {
	var cfg Config
	cfg.AI.Provider = "openai"
	cfg.AI.Model = "openai/gpt-oss-120b:free"
	cfg.AI.Personality = "general"
	cfg.Chunking.Size = 1000
	cfg.Chunking.Overlap = 200
	cfg.Retrieval.TopK = 3
	cfg.Retrieval.MinScore = 0.1
	cfg.Retrieval.MaxContextLength = 2000
	cfg.Log.Level = "info"
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := defaults()

	// 2. Load YAML config when present; a missing file keeps the defaults
	if file, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with environment variables if present
	if apiKey := os.Getenv("DOCANALYZER_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("DOCANALYZER_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if model := os.Getenv("DOCANALYZER_AI_MODEL"); model != "" {
		cfg.AI.Model = model
	}
	if baseURL := os.Getenv("DOCANALYZER_AI_BASE_URL"); baseURL != "" {
		cfg.AI.BaseURL = baseURL
	}

	return cfg, nil
}
