package config

import (
	"os"
	"strings"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey         = "OPENAI_API_KEY"
	EnvFallbackAPIKey = "LLM_API_KEY"
	EnvBaseURL        = "OPENAI_BASE_URL"
	EnvModel          = "COTBENCH_MODEL"
)

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays environment values onto cfg. A nil lookup uses the
// process environment.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if key := firstEnv(lookup, EnvAPIKey, EnvFallbackAPIKey); key != "" {
		cfg.APIKey = key
	}
	if url := firstEnv(lookup, EnvBaseURL); url != "" {
		cfg.BaseURL = url
	}
	if model := firstEnv(lookup, EnvModel); model != "" {
		cfg.Model = model
	}
}

// firstEnv returns the first non-blank value among keys.
func firstEnv(lookup LookupFunc, keys ...string) string {
	for _, key := range keys {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
