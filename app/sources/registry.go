package sources

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Endpoint is a single feed URL belonging to a source.
type Endpoint struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Registry holds the static mapping from logical source name to feed
// endpoints, loaded once at startup from a YAML file. The file maps a
// source name to a list of endpoints:
//
//	eetimes:
//	  - name: "EE Times"
//	    url: "https://example.com/rss"
type Registry struct {
	sourcesFile string
	cache       map[string][]Endpoint
	mu          sync.RWMutex
}

func NewRegistry(sourcesFile string) *Registry {
	return &Registry{
		sourcesFile: sourcesFile,
		cache:       make(map[string][]Endpoint),
	}
}

// Load reads the sources file into the registry. A missing or malformed
// file degrades to an empty registry with a logged warning; startup is
// never aborted over source configuration.
func (r *Registry) Load() error {
	data, err := os.ReadFile(r.sourcesFile)
	if err != nil {
		slog.Warn("Failed to read sources file, continuing with empty registry",
			"file", r.sourcesFile, "error", err)
		return nil
	}

	var raw map[string][]Endpoint
	if err := yaml.Unmarshal(data, &raw); err != nil {
		slog.Warn("Failed to parse sources file, continuing with empty registry",
			"file", r.sourcesFile, "error", err)
		return nil
	}

	parsed := make(map[string][]Endpoint)
	for sourceName, endpoints := range raw {
		valid := make([]Endpoint, 0, len(endpoints))
		for _, ep := range endpoints {
			if ep.URL == "" {
				slog.Warn("Skipping endpoint without URL", "source", sourceName)
				continue
			}
			if ep.Name == "" {
				ep.Name = sourceName
			}
			valid = append(valid, ep)
		}
		if len(valid) == 0 {
			continue
		}
		parsed[sourceName] = valid
	}

	r.mu.Lock()
	r.cache = parsed
	r.mu.Unlock()

	slog.Info("Source registry loaded", "file", r.sourcesFile, "sources", len(parsed))
	return nil
}

// Endpoints returns the feed endpoints registered for a source name.
func (r *Registry) Endpoints(sourceName string) ([]Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	endpoints, ok := r.cache[sourceName]
	if !ok {
		return nil, fmt.Errorf("source '%s' not found in registry", sourceName)
	}
	return endpoints, nil
}

// Has reports whether a source name is registered.
func (r *Registry) Has(sourceName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.cache[sourceName]
	return ok
}

// Names returns all registered source names in stable order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.cache))
	for name := range r.cache {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
