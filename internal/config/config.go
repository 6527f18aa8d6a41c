package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/opensea-data/odv-etl/internal/domain"
	"github.com/robfig/cron/v3"
)

// Config holds all converter settings, populated from environment variables.
type Config struct {
	DataDir      string
	InputGlob    string
	AllSheets    bool
	CSVDelimiter rune
	CSVEncoding  string
	HeaderFile   string
	OutputFile   string

	Station       domain.Station
	DatePrecision domain.DatePrecision
	Workers       int

	LogLevel    string
	LogFormat   string
	MetricsFile string

	// Kafka sink, enabled when KafkaBrokers is non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Re-run triggers for odv-etl; both off means a single run.
	Watch         bool
	WatchDebounce time.Duration
	Schedule      string

	HTTPAddr        string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

// Continuous reports whether odv-etl keeps running after the first conversion.
func (c *Config) Continuous() bool { return c.Watch || c.Schedule != "" }

// KafkaEnabled reports whether converted rows are also published to Kafka.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	precision, err := domain.ParseDatePrecision(sharedcfg.EnvOrDefault("DATE_PRECISION", string(domain.PrecisionMonth)))
	if err != nil {
		return nil, fmt.Errorf("invalid DATE_PRECISION: %w", err)
	}

	workers, err := parseBoundedInt("WORKERS", 1, 1, 64)
	if err != nil {
		return nil, err
	}

	maxUpload, err := parseBoundedInt("MAX_UPLOAD_BYTES", 32<<20, 1, 1<<30)
	if err != nil {
		return nil, err
	}

	delimiter, err := parseDelimiter(sharedcfg.EnvOrDefault("CSV_DELIMITER", ","))
	if err != nil {
		return nil, err
	}

	allSheets, err := parseSheets(sharedcfg.EnvOrDefault("INPUT_SHEETS", "first"))
	if err != nil {
		return nil, err
	}

	watch, err := strconv.ParseBool(sharedcfg.EnvOrDefault("WATCH", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCH: %w", err)
	}
	debounce, err := time.ParseDuration(sharedcfg.EnvOrDefault("WATCH_DEBOUNCE", "2s"))
	if err != nil || debounce <= 0 {
		return nil, fmt.Errorf("invalid WATCH_DEBOUNCE %q: must be a positive duration", os.Getenv("WATCH_DEBOUNCE"))
	}
	schedule := strings.TrimSpace(os.Getenv("SCHEDULE"))
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid SCHEDULE: %w", err)
		}
	}

	station := domain.Station{
		Cruise: sharedcfg.EnvOrDefault("CRUISE_NAME", "Helgoland_OpenSea"),
		Name:   sharedcfg.EnvOrDefault("STATION_NAME", "Felswatt"),
		Type:   sharedcfg.EnvOrDefault("TYPE_NAME", "B"),
	}

	dataDir := sharedcfg.EnvOrDefault("DATA_DIR", ".")
	outputFile := os.Getenv("OUTPUT_FILE")
	if outputFile == "" {
		outputFile = filepath.Join(dataDir, fmt.Sprintf("%s_%s.txt", station.Cruise, station.Name))
	}

	var brokers []string
	if raw := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		DataDir:      dataDir,
		InputGlob:    sharedcfg.EnvOrDefault("INPUT_GLOB", "*.xlsx"),
		AllSheets:    allSheets,
		CSVDelimiter: delimiter,
		CSVEncoding:  strings.ToLower(sharedcfg.EnvOrDefault("CSV_ENCODING", "utf-8")),
		HeaderFile:   os.Getenv("HEADER_FILE"),
		OutputFile:   outputFile,

		Station:       station,
		DatePrecision: precision,
		Workers:       workers,

		LogLevel:    sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:   sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		MetricsFile: os.Getenv("METRICS_FILE"),

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "odv-observations"),

		Watch:         watch,
		WatchDebounce: debounce,
		Schedule:      schedule,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		MaxUploadBytes:  int64(maxUpload),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.Station.Cruise == "" {
		return nil, errors.New("CRUISE_NAME is required")
	}
	if cfg.Station.Name == "" {
		return nil, errors.New("STATION_NAME is required")
	}
	if _, err := filepath.Match(cfg.InputGlob, ""); err != nil {
		return nil, fmt.Errorf("invalid INPUT_GLOB: %w", err)
	}
	switch cfg.CSVEncoding {
	case "utf-8", "utf8", "latin1", "iso-8859-1", "windows-1252", "cp1252":
	default:
		return nil, fmt.Errorf("invalid CSV_ENCODING %q", cfg.CSVEncoding)
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseBoundedInt(name string, def, lo, hi int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s %q: must be an integer in [%d, %d]", name, s, lo, hi)
	}
	return n, nil
}

func parseDelimiter(s string) (rune, error) {
	if s == `\t` || s == "tab" {
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 || r[0] == '\n' || r[0] == '\r' || r[0] == '"' {
		return 0, fmt.Errorf("invalid CSV_DELIMITER %q: must be a single character", s)
	}
	return r[0], nil
}

func parseSheets(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "first":
		return false, nil
	case "all":
		return true, nil
	default:
		return false, fmt.Errorf("invalid INPUT_SHEETS %q: must be first or all", s)
	}
}
