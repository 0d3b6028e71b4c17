package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		DBPath:             "./test.db",
		SourcesFile:        "./rss_feeds.yml",
		TemplatesDir:       "./templates",
		Port:               "8080",
		BatchSize:          20,
		DefaultDays:        7,
		LLMBackend:         "stub",
		OpenAIModel:        "gpt-4o-mini",
		OllamaURL:          "http://localhost:11434",
		OllamaModel:        "llama3.2",
		UnparsedDatePolicy: "now",
		UserAgent:          "Test Agent",
		Timezone:           "UTC",
		Debug:              true,
		Version:            "test-version",
	}

	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected DB path './test.db', got '%s'", cfg.DBPath)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.BatchSize != 20 {
		t.Errorf("Expected batch size 20, got %d", cfg.BatchSize)
	}
	if cfg.DefaultDays != 7 {
		t.Errorf("Expected default days 7, got %d", cfg.DefaultDays)
	}
	if cfg.LLMBackend != "stub" {
		t.Errorf("Expected LLM backend 'stub', got '%s'", cfg.LLMBackend)
	}
	if cfg.UnparsedDatePolicy != "now" {
		t.Errorf("Expected unparsed date policy 'now', got '%s'", cfg.UnparsedDatePolicy)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}

func TestSetAndGet(t *testing.T) {
	prev := globalCfg
	defer func() { globalCfg = prev }()

	want := &Cfg{Port: "9090", LLMBackend: "ollama"}
	Set(want)

	got := Get()
	if got.Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", got.Port)
	}
	if got.LLMBackend != "ollama" {
		t.Errorf("Expected LLM backend 'ollama', got '%s'", got.LLMBackend)
	}
}
