// Package config loads the service configuration from YAML.
package config

import (
	"time"
)

type Config struct {
	Recipe   RecipeConfig   `yaml:"recipe"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
	Storage  StorageConfig  `yaml:"storage"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Server   ServerConfig   `yaml:"server"`
}

// RecipeConfig mirrors the recipe form. Examples is used by the generation
// recipe, ExampleIn/ExampleOut by the tasks recipe and OutputExamples in
// output mode.
type RecipeConfig struct {
	Kind           string        `yaml:"kind"`
	TextColumn     string        `yaml:"text_column"`
	Task           string        `yaml:"task"`
	InputDesc      string        `yaml:"input_desc"`
	OutputDesc     string        `yaml:"output_desc"`
	Examples       []ExamplePair `yaml:"examples"`
	ExampleIn      string        `yaml:"example_in"`
	ExampleOut     string        `yaml:"example_out"`
	OutputExamples []string      `yaml:"output_examples"`
	Temperature    *float64      `yaml:"temperature"`
	OutputMode     bool          `yaml:"output_mode"`
	NumOutputs     int           `yaml:"num_outputs"`
	FailOnError    bool          `yaml:"fail_on_error"`
	BatchSize      int           `yaml:"batch_size"`
	ColumnPrefix   string        `yaml:"column_prefix"`
}

type ExamplePair struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// APIConfig is the API configuration preset. The pointer fields are nil
// when absent from the file so an explicit zero is kept and validated.
type APIConfig struct {
	Engine          string         `yaml:"engine"`
	APIKey          string         `yaml:"api_key"`
	URL             string         `yaml:"url"`
	ParallelWorkers *int           `yaml:"parallel_workers"`
	MaxAttempts     *int           `yaml:"max_attempts"`
	WaitInterval    *time.Duration `yaml:"wait_interval"`
	Timeout         time.Duration  `yaml:"timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StorageConfig struct {
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UseSSL       bool   `yaml:"use_ssl"`
	Region       string `yaml:"region"`
	OutputBucket string `yaml:"output_bucket"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	Topic       string   `yaml:"topic"`
	GroupID     string   `yaml:"group_id"`
	EventsTopic string   `yaml:"events_topic"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL string        `yaml:"url"`
	TTL time.Duration `yaml:"ttl"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}
