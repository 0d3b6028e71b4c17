package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	SourcesFile  string
	TemplatesDir string
	Port         string
	BatchSize    int
	DefaultDays  int

	// Generation backend configuration
	LLMBackend     string
	OpenAIAPIKey   string
	OpenAIEndpoint string
	OpenAIModel    string
	OllamaURL      string
	OllamaModel    string

	// Policy for entries whose publish date cannot be parsed:
	// "now" admits them with the fetch time, "reject" drops them.
	UnparsedDatePolicy string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
