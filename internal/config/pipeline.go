package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

const (
	EnvPipelineAlpha           = "COURSELENS_PIPELINE_ALPHA"
	EnvPipelineBeta            = "COURSELENS_PIPELINE_BETA"
	EnvPipelineTagThreshold    = "COURSELENS_PIPELINE_TAG_THRESHOLD"
	EnvPipelinePseudocount     = "COURSELENS_PIPELINE_PSEUDOCOUNT"
	EnvPipelineCandidateFactor = "COURSELENS_PIPELINE_CANDIDATE_FACTOR"
	EnvPipelineTagWorkers      = "COURSELENS_PIPELINE_TAG_WORKERS"
)

// PipelineConfig holds the tunable constants of the enrichment and ranking
// pipeline. Weights are pointers so an explicit zero in a config file is
// distinguishable from an omitted value.
type PipelineConfig struct {
	// Alpha weights text relevance against sentiment in the composite score.
	Alpha *float64 `toml:"alpha"`
	// Beta scales the additive popularity term.
	Beta *float64 `toml:"beta"`
	// TagThreshold is the fraction of the best relevance score a course
	// must reach to receive a category tag.
	TagThreshold *float64 `toml:"tag_threshold"`
	// Pseudocount is the prior weight C of the sentiment shrinkage.
	Pseudocount *float64 `toml:"pseudocount"`

	CandidateFactor int `toml:"candidate_factor"`
	TagWorkers      int `toml:"tag_workers"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites fields set in overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.Alpha != nil {
		c.Alpha = overlay.Alpha
	}
	if overlay.Beta != nil {
		c.Beta = overlay.Beta
	}
	if overlay.TagThreshold != nil {
		c.TagThreshold = overlay.TagThreshold
	}
	if overlay.Pseudocount != nil {
		c.Pseudocount = overlay.Pseudocount
	}
	if overlay.CandidateFactor != 0 {
		c.CandidateFactor = overlay.CandidateFactor
	}
	if overlay.TagWorkers != 0 {
		c.TagWorkers = overlay.TagWorkers
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.Alpha == nil {
		c.Alpha = floatPtr(0.7)
	}
	if c.Beta == nil {
		c.Beta = floatPtr(0.2)
	}
	if c.TagThreshold == nil {
		c.TagThreshold = floatPtr(0.2)
	}
	if c.Pseudocount == nil {
		c.Pseudocount = floatPtr(10)
	}
	if c.CandidateFactor <= 0 {
		c.CandidateFactor = 5
	}
	if c.TagWorkers <= 0 {
		c.TagWorkers = runtime.NumCPU()
	}
}

func (c *PipelineConfig) loadEnv() {
	envFloat(EnvPipelineAlpha, &c.Alpha)
	envFloat(EnvPipelineBeta, &c.Beta)
	envFloat(EnvPipelineTagThreshold, &c.TagThreshold)
	envFloat(EnvPipelinePseudocount, &c.Pseudocount)

	if v := os.Getenv(EnvPipelineCandidateFactor); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CandidateFactor = n
		}
	}
	if v := os.Getenv(EnvPipelineTagWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TagWorkers = n
		}
	}
}

func (c *PipelineConfig) validate() error {
	if *c.Alpha < 0 || *c.Alpha > 1 {
		return fmt.Errorf("alpha must be within [0, 1]: %v", *c.Alpha)
	}
	if *c.Beta < 0 {
		return fmt.Errorf("beta must not be negative: %v", *c.Beta)
	}
	if *c.TagThreshold <= 0 || *c.TagThreshold > 1 {
		return fmt.Errorf("tag_threshold must be within (0, 1]: %v", *c.TagThreshold)
	}
	if *c.Pseudocount < 0 {
		return fmt.Errorf("pseudocount must not be negative: %v", *c.Pseudocount)
	}
	if c.CandidateFactor < 1 {
		return fmt.Errorf("candidate_factor must be positive: %d", c.CandidateFactor)
	}
	if c.TagWorkers < 1 {
		return fmt.Errorf("tag_workers must be positive: %d", c.TagWorkers)
	}
	return nil
}

func envFloat(key string, dst **float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = &f
		}
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
