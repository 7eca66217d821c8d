package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that config is complete for the given run mode.
// Modes: "serve" (HTTP API), "chat" (interactive CLI).
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		problems = append(problems, c.commonProblems()...)
	case "chat":
		problems = append(problems, c.commonProblems()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: validation failed: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) commonProblems() []string {
	var problems []string

	if c.LLM.Key == "" {
		problems = append(problems, "llm.key is required")
	}
	if c.LLM.Model == "" {
		problems = append(problems, "llm.model is required")
	}
	if c.LLM.MaxTokens <= 0 {
		problems = append(problems, "llm.max_tokens must be > 0")
	}

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}

	w := c.Trust.SourceWeight + c.Trust.CostWeight + c.Trust.SpecificityWeight
	if w < 0.999 || w > 1.001 {
		problems = append(problems, "trust weights must sum to 1.0")
	}
	if c.Trust.MediumThreshold <= 0 || c.Trust.HighThreshold <= c.Trust.MediumThreshold {
		problems = append(problems, "trust thresholds must satisfy 0 < medium < high")
	}
	if c.Trust.MaxSources <= 0 {
		problems = append(problems, "trust.max_sources must be > 0")
	}

	if c.Agent.MaxExtractionRetries < 0 {
		problems = append(problems, "agent.max_extraction_retries must be >= 0")
	}

	return problems
}
