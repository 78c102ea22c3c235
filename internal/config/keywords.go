package config

import (
	"os"
	"slices"
	"strings"
)

const EnvKeywordsSeed = "COURSELENS_KEYWORDS_SEED"

var defaultSeedKeywords = []string{
	"python",
	"data science",
	"web development",
}

// KeywordsConfig lists the keywords queued for ingestion at startup.
type KeywordsConfig struct {
	Seed []string `toml:"seed"`
}

// Finalize applies defaults and environment variable overrides.
func (c *KeywordsConfig) Finalize() {
	if c.Seed == nil {
		c.Seed = slices.Clone(defaultSeedKeywords)
	}
	if v := os.Getenv(EnvKeywordsSeed); v != "" {
		c.Seed = make([]string, 0)
		for kw := range strings.SplitSeq(v, ",") {
			if trimmed := strings.TrimSpace(kw); trimmed != "" {
				c.Seed = append(c.Seed, trimmed)
			}
		}
	}
}

// Merge overwrites the seed list when the overlay sets one.
func (c *KeywordsConfig) Merge(overlay *KeywordsConfig) {
	if overlay.Seed != nil {
		c.Seed = overlay.Seed
	}
}
