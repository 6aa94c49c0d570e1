package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Dataset backends.
const (
	BackendCopernicus = "copernicus"
	BackendSQLite     = "sqlite"
	BackendNetCDF     = "netcdf"
)

const (
	dateLayout       = "2006-01-02"
	defaultStorePath = "Data_Files/waves.db"
)

// Config holds all job settings, populated from environment variables.
type Config struct {
	IncidentsPath string
	ResultsPath   string
	MapPath       string

	DatasetBackend   string
	DatasetID        string
	DatasetURL       string
	DatasetPath      string
	DatasetStart     time.Time
	DatasetEnd       time.Time
	DatasetTimeout   time.Duration
	DatasetCacheSize int
	CredentialsFile  string

	SpatialBuffer float64
	TimeBuffer    time.Duration
	Workers       int

	ClassifyNarratives bool
	NarrativeColumn    string

	KafkaBrokers   []string
	KafkaSinkTopic string
	BatchSize      int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	datasetStart, err := parseDate("DATASET_START", "2021-09-30")
	if err != nil {
		return nil, err
	}
	datasetEnd, err := parseDate("DATASET_END", "2024-03-25")
	if err != nil {
		return nil, err
	}

	datasetTimeout, err := parsePositiveDuration("DATASET_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	timeBuffer, err := parsePositiveDuration("TIME_BUFFER", "30m")
	if err != nil {
		return nil, err
	}

	spatialBuffer, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("SPATIAL_BUFFER_DEG", "0.05"), 64)
	if err != nil || spatialBuffer < 0 {
		return nil, errors.New("invalid SPATIAL_BUFFER_DEG")
	}

	workers, err := strconv.Atoi(sharedcfg.EnvOrDefault("WORKERS", "8"))
	if err != nil || workers < 1 {
		return nil, errors.New("invalid WORKERS: must be a positive integer")
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	classify, err := strconv.ParseBool(sharedcfg.EnvOrDefault("CLASSIFY_NARRATIVES", "true"))
	if err != nil {
		return nil, errors.New("invalid CLASSIFY_NARRATIVES")
	}

	cfg := &Config{
		IncidentsPath: sharedcfg.EnvOrDefault("INCIDENTS_PATH", "Data_Files/[Clean] IMO Piracy - 2000 to 2022 (PDV 01-2023).csv"),
		ResultsPath:   sharedcfg.EnvOrDefault("RESULTS_PATH", "Results/piracy_df_waves1.csv"),
		MapPath:       os.Getenv("MAP_PATH"),

		DatasetBackend:   sharedcfg.EnvOrDefault("DATASET_BACKEND", BackendSQLite),
		DatasetID:        sharedcfg.EnvOrDefault("DATASET_ID", "cmems_mod_glo_wav_anfc_0.083deg_PT3H-i"),
		DatasetURL:       os.Getenv("DATASET_URL"),
		DatasetPath:      os.Getenv("DATASET_PATH"),
		DatasetStart:     datasetStart,
		DatasetEnd:       datasetEnd,
		DatasetTimeout:   datasetTimeout,
		DatasetCacheSize: cacheSize,
		CredentialsFile:  sharedcfg.EnvOrDefault("CREDENTIALS_FILE", "Data_Files/.copernicusmarine-credentials"),

		SpatialBuffer: spatialBuffer,
		TimeBuffer:    timeBuffer,
		Workers:       workers,

		ClassifyNarratives: classify,
		NarrativeColumn:    sharedcfg.EnvOrDefault("NARRATIVE_COLUMN", "Description"),

		KafkaBrokers:   parseOptionalBrokers(),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "enriched-piracy-incidents"),
		BatchSize:      batchSize,

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.IncidentsPath == "" {
		return nil, errors.New("INCIDENTS_PATH is required")
	}
	if cfg.DatasetEnd.Before(cfg.DatasetStart) {
		return nil, errors.New("DATASET_END is before DATASET_START")
	}
	switch cfg.DatasetBackend {
	case BackendCopernicus:
		if cfg.DatasetID == "" {
			return nil, errors.New("DATASET_ID is required for the copernicus backend")
		}
		if err := validateGatewayURL(cfg.DatasetURL); err != nil {
			return nil, err
		}
	case BackendSQLite, BackendNetCDF:
		if cfg.DatasetPath == "" && cfg.DatasetBackend == BackendSQLite {
			cfg.DatasetPath = defaultStorePath
		}
		if cfg.DatasetPath == "" {
			return nil, fmt.Errorf("DATASET_PATH is required for the %s backend", cfg.DatasetBackend)
		}
	default:
		return nil, fmt.Errorf("invalid DATASET_BACKEND %q", cfg.DatasetBackend)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether enriched incidents should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseDate(key, def string) (time.Time, error) {
	t, err := time.Parse(dateLayout, sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: expected YYYY-MM-DD", key)
	}
	return t, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseOptionalBrokers returns nil when KAFKA_BROKERS is unset; the sink is optional.
func parseOptionalBrokers() []string {
	v := os.Getenv("KAFKA_BROKERS")
	if v == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(v)
}

// parseCacheSize returns 0 (no cache) when DATASET_CACHE_SIZE is unset.
func parseCacheSize() (int, error) {
	s := os.Getenv("DATASET_CACHE_SIZE")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid DATASET_CACHE_SIZE: must be a non-negative integer")
	}
	return n, nil
}

// validateGatewayURL checks the base URL of the subsetting gateway. There is
// no default: the gateway is self-hosted.
func validateGatewayURL(raw string) error {
	if raw == "" {
		return errors.New("DATASET_URL is required for the copernicus backend")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid DATASET_URL %q: expected an http(s) base URL", raw)
	}
	return nil
}
