package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gptenrich/internal/enrich"
	"gptenrich/internal/recipe"
	"gptenrich/pkg/gpt"
)

// Load reads a YAML file, expanding ${VAR} references from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Recipe.Kind == "" {
		c.Recipe.Kind = string(recipe.KindGeneration)
	}
	if c.Recipe.Temperature == nil {
		t := gpt.DefaultTemperature
		c.Recipe.Temperature = &t
	}
	if c.Recipe.BatchSize == 0 {
		c.Recipe.BatchSize = 1
	}
	if c.API.Engine == "" {
		c.API.Engine = gpt.EngineOpenedAI
	}
	if c.API.ParallelWorkers == nil {
		c.API.ParallelWorkers = ptr(4)
	}
	if c.API.MaxAttempts == nil {
		c.API.MaxAttempts = ptr(3)
	}
	if c.API.WaitInterval == nil {
		c.API.WaitInterval = ptr(5 * time.Second)
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 24 * time.Hour
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if n := deref(c.API.ParallelWorkers); n < 1 {
		errs = append(errs, fmt.Errorf("api.parallel_workers must be positive, got %d", n))
	}
	if n := deref(c.API.MaxAttempts); n < 1 {
		errs = append(errs, fmt.Errorf("api.max_attempts must be positive, got %d", n))
	}
	if d := deref(c.API.WaitInterval); d < 0 {
		errs = append(errs, fmt.Errorf("api.wait_interval must not be negative, got %s", d))
	}
	if c.API.Engine == gpt.EngineOpenedAI && c.API.APIKey == "" {
		errs = append(errs, errors.New("api.api_key is required for the openedai engine"))
	}
	if c.Recipe.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("recipe.batch_size must be positive, got %d", c.Recipe.BatchSize))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	if err := c.RecipeParams().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("recipe: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", enrich.ErrConfig, errors.Join(errs...))
	}
	return nil
}

// RecipeParams converts the recipe section into typed parameters.
func (c *Config) RecipeParams() recipe.Params {
	r := c.Recipe
	p := recipe.Params{
		Kind:       recipe.Kind(strings.ToLower(r.Kind)),
		TextColumn: r.TextColumn,
		Task:       r.Task,
		InputDesc:  r.InputDesc,
		OutputDesc: r.OutputDesc,
		OutputMode: r.OutputMode,
		NumOutputs: r.NumOutputs,
	}
	if r.Temperature != nil {
		p.Temperature = *r.Temperature
	}
	switch {
	case r.OutputMode:
		for _, out := range r.OutputExamples {
			p.Examples = append(p.Examples, gpt.Example{Output: out})
		}
	case p.Kind == recipe.KindTasks:
		if r.ExampleIn != "" || r.ExampleOut != "" {
			p.Examples = []gpt.Example{{Input: r.ExampleIn, Output: r.ExampleOut}}
		}
	default:
		for _, ex := range r.Examples {
			p.Examples = append(p.Examples, gpt.Example{Input: ex.Input, Output: ex.Output})
		}
	}
	return p
}

// EngineConfig converts the recipe and API sections into engine settings.
func (c *Config) EngineConfig() enrich.Config {
	mode := enrich.ErrorHandlingLog
	if c.Recipe.FailOnError {
		mode = enrich.ErrorHandlingFail
	}
	return enrich.Config{
		ErrorHandling: mode,
		Concurrency:   deref(c.API.ParallelWorkers),
		BatchSize:     c.Recipe.BatchSize,
		ColumnPrefix:  c.Recipe.ColumnPrefix,
		Retry: enrich.RetryPolicy{
			MaxAttempts:  deref(c.API.MaxAttempts),
			WaitInterval: deref(c.API.WaitInterval),
			RetryOn:      []error{gpt.ErrAPI},
		},
	}
}

func ptr[T any](v T) *T { return &v }

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
