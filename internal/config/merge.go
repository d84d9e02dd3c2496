package config

import (
	"os"
	"strconv"
)

// Config is the merged runtime configuration the REPL works with.
type Config struct {
	Provider string
	Model    string
	BaseURL  string
	Mode     string
	Root     string

	// Budget caps backend calls per session. Zero means the engine
	// default applies.
	Budget int

	// Research additionally records rejected artifacts for audit.
	Research bool
}

// Flags carries the command-line values. Zero values mean the flag was
// not given.
type Flags struct {
	Provider string
	Model    string
	Mode     string
	Root     string
	Budget   int
	Research bool
}

// Merge resolves the effective configuration: flags beat environment,
// environment beats the persisted file, the file beats built-in
// defaults.
func Merge(flags Flags, file File) Config {
	cfg := Config{
		Provider: "ollama",
		Root:     ".",
	}

	if file.Provider != "" {
		cfg.Provider = file.Provider
	}
	if file.Model != "" {
		cfg.Model = file.Model
	}
	if file.BaseURL != "" {
		cfg.BaseURL = file.BaseURL
	}
	if file.DefaultMode != "" {
		cfg.Mode = file.DefaultMode
	}

	if v := os.Getenv("DOJO_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("DOJO_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("DOJO_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("DOJO_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("DOJO_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Budget = n
		}
	}
	if envBool("DOJO_RESEARCH") {
		cfg.Research = true
	}

	if flags.Provider != "" {
		cfg.Provider = flags.Provider
	}
	if flags.Model != "" {
		cfg.Model = flags.Model
	}
	if flags.Mode != "" {
		cfg.Mode = flags.Mode
	}
	if flags.Root != "" {
		cfg.Root = flags.Root
	}
	if flags.Budget > 0 {
		cfg.Budget = flags.Budget
	}
	if flags.Research {
		cfg.Research = true
	}

	return cfg
}

func envBool(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "yes":
		return true
	}
	return false
}
