package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatasetPath     string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DefaultMagTypes is how many distinct magnitude types the default
	// filter accepts, in source order.
	DefaultMagTypes int
	SessionTTL      time.Duration

	AnimationMaxFrames  int
	AnimationFrameDelay time.Duration
	AnimationTrend      string

	// Tectonic plate overlay.
	PlatesEnabled bool
	PlatesURL     string
	PlatesTimeout time.Duration

	// Interaction event publishing.
	KafkaEnabled           bool
	KafkaBrokers           []string
	KafkaInteractionsTopic string
}

// DefaultPlatesURL serves the PB2002 plate boundaries as GeoJSON.
const DefaultPlatesURL = "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json"

var topicPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,249}$`)

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	defaultMagTypes, err := positiveInt("DEFAULT_MAG_TYPES", "5")
	if err != nil {
		return nil, err
	}
	maxFrames, err := positiveInt("ANIMATION_MAX_FRAMES", "20")
	if err != nil {
		return nil, err
	}
	frameDelay, err := positiveDuration("ANIMATION_FRAME_DELAY", "150ms")
	if err != nil {
		return nil, err
	}
	sessionTTL, err := positiveDuration("SESSION_TTL", "30m")
	if err != nil {
		return nil, err
	}
	platesTimeout, err := positiveDuration("PLATES_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	platesEnabled, err := boolean("PLATES_ENABLED", "true")
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := boolean("KAFKA_ENABLED", "false")
	if err != nil {
		return nil, err
	}

	trend := strings.ToLower(sharedcfg.EnvOrDefault("ANIMATION_TREND", "rolling"))
	if trend != "rolling" && trend != "centered" {
		return nil, fmt.Errorf("invalid ANIMATION_TREND %q: want rolling or centered", trend)
	}

	cfg := &Config{
		DatasetPath:     sharedcfg.EnvOrDefault("DATASET_PATH", "data/earthquakes.csv"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DefaultMagTypes: defaultMagTypes,
		SessionTTL:      sessionTTL,

		AnimationMaxFrames:  maxFrames,
		AnimationFrameDelay: frameDelay,
		AnimationTrend:      trend,

		PlatesEnabled: platesEnabled,
		PlatesURL:     sharedcfg.EnvOrDefault("PLATES_URL", DefaultPlatesURL),
		PlatesTimeout: platesTimeout,

		KafkaEnabled:           kafkaEnabled,
		KafkaBrokers:           sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaInteractionsTopic: sharedcfg.EnvOrDefault("KAFKA_INTERACTIONS_TOPIC", "dashboard-interactions"),
	}

	if cfg.DatasetPath == "" {
		return nil, errors.New("DATASET_PATH is required")
	}
	if cfg.PlatesEnabled {
		if u, err := url.Parse(cfg.PlatesURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("invalid PLATES_URL %q: must be an http(s) URL", cfg.PlatesURL)
		}
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && !topicPattern.MatchString(cfg.KafkaInteractionsTopic) {
		return nil, fmt.Errorf("invalid KAFKA_INTERACTIONS_TOPIC %q", cfg.KafkaInteractionsTopic)
	}

	return cfg, nil
}

func positiveInt(key, def string) (int, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, s)
	}
	return n, nil
}

func positiveDuration(key, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, s)
	}
	return d, nil
}

func boolean(key, def string) (bool, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: must be true or false", key, s)
	}
	return b, nil
}
