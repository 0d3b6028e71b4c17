package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./newsdigest.db" description:"SQLite database file path"`

	// Application configuration
	SourcesFile  string `long:"sources-file" env:"SOURCES_FILE" default:"./rss_feeds.yml" description:"YAML file mapping source names to feed endpoints"`
	TemplatesDir string `long:"templates-dir" env:"TEMPLATES_DIR" default:"./templates" description:"Directory for exported topic files"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BatchSize    int    `long:"batch-size" env:"BATCH_SIZE" default:"20" description:"Number of articles per persistence batch"`
	DefaultDays  int    `long:"default-days" env:"DEFAULT_DAYS" default:"7" description:"Collection window in days when no explicit dates are given"`

	// Generation backend configuration
	LLMBackend     string `long:"llm-backend" env:"LLM_BACKEND" default:"openai" choice:"openai" choice:"ollama" choice:"stub" description:"Generation backend"`
	OpenAIAPIKey   string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"API key for the OpenAI-compatible backend"`
	OpenAIEndpoint string `long:"openai-endpoint" env:"OPENAI_ENDPOINT" default:"https://api.openai.com/v1/chat/completions" description:"Chat completions endpoint"`
	OpenAIModel    string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4o-mini" description:"Model name for the OpenAI-compatible backend"`
	OllamaURL      string `long:"ollama-url" env:"OLLAMA_URL" default:"http://localhost:11434" description:"Ollama base URL"`
	OllamaModel    string `long:"ollama-model" env:"OLLAMA_MODEL" default:"llama3.2" description:"Model name for the Ollama backend"`

	UnparsedDatePolicy string `long:"unparsed-date-policy" env:"UNPARSED_DATE_POLICY" default:"now" choice:"now" choice:"reject" description:"How to treat entries whose publish date cannot be parsed"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Tokyo)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		SourcesFile:        raw.SourcesFile,
		TemplatesDir:       raw.TemplatesDir,
		Port:               raw.Port,
		BatchSize:          raw.BatchSize,
		DefaultDays:        raw.DefaultDays,
		LLMBackend:         raw.LLMBackend,
		OpenAIAPIKey:       raw.OpenAIAPIKey,
		OpenAIEndpoint:     raw.OpenAIEndpoint,
		OpenAIModel:        raw.OpenAIModel,
		OllamaURL:          raw.OllamaURL,
		OllamaModel:        raw.OllamaModel,
		UnparsedDatePolicy: raw.UnparsedDatePolicy,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set installs a configuration directly, bypassing flag parsing. Used by tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return err
		}
		time.Local = loc
	}
	return nil
}
