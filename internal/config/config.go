package config

import (
	"errors"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Fixed locations. These are deliberately not configurable.
const (
	SourceURL     = "https://covid.ourworldindata.org/data/owid-covid-data.csv"
	LocalDataPath = "data/owid-covid-data.csv"
	OutputDir     = "output"

	// PlotlyLibraryPath is the vendored Plotly.js inlined into the map page:
	//
	//	curl -o data/vendor/plotly-2.35.2.min.js https://cdn.plot.ly/plotly-2.35.2.min.js
	PlotlyLibraryPath = "data/vendor/plotly-2.35.2.min.js"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	SourceURL     string
	LocalDataPath string
	OutputDir     string
	PlotlyPath    string

	LogLevel        string
	LogFormat       string
	FetchTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Prometheus Pushgateway for run metrics; empty disables the push.
	PushgatewayURL string

	// Kafka publishing of cleaned observations.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("DATA_FETCH_TIMEOUT", "2m"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid DATA_FETCH_TIMEOUT")
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		SourceURL:     SourceURL,
		LocalDataPath: LocalDataPath,
		OutputDir:     OutputDir,
		PlotlyPath:    PlotlyLibraryPath,

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		FetchTimeout:    fetchTimeout,
		ShutdownTimeout: shutdownTimeout,

		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "covid-observations"),
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, errors.New("LOG_FORMAT must be json or text")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

// ParseList splits a comma-separated list, trimming whitespace and dropping
// empty items. Broker lists follow the same rules.
func ParseList(value string) []string {
	return sharedcfg.ParseBrokers(value)
}
