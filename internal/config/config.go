package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Analytics holds the optional query-event pipeline settings shared by every
// service.
type Analytics struct {
	KafkaBrokers       []string
	KafkaTopic         string
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Gateway configures the chat-gateway HTTP service.
type Gateway struct {
	Analytics
	Token           string
	BindAddr        string
	WikiSourceURL   string
	RSASourceURL    string
	SearchAPIPrefix string
	SearchAPISuffix string
	HubBaseURL      string
	SessionCapacity int
	SessionTTL      time.Duration
}

// Worker configures the Kafka -> Elasticsearch analytics indexer.
type Worker struct {
	Analytics
	KafkaConsumer string
}

// Retention configures the analytics cleanup loop.
type Retention struct {
	Analytics
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

// LoadGateway builds a Gateway config from environment variables. The
// gateway token and both corpus source URLs are required; the analytics
// pipeline stays disabled when KAFKA_BROKERS is unset.
func LoadGateway() (*Gateway, error) {
	c := &Gateway{
		Analytics:       loadAnalytics(),
		Token:           strings.TrimSpace(os.Getenv("GATEWAY_TOKEN")),
		BindAddr:        getEnv("GATEWAY_BIND_ADDR", "0.0.0.0:8080"),
		WikiSourceURL:   strings.TrimSpace(os.Getenv("WIKI_SOURCE_URL")),
		RSASourceURL:    strings.TrimSpace(os.Getenv("RSA_SOURCE_URL")),
		SearchAPIPrefix: getEnv("SEARCH_API_PREFIX", "https://developer.roblox.com/search-api/search?query="),
		SearchAPISuffix: getEnv("SEARCH_API_SUFFIX", ""),
		HubBaseURL:      getEnv("HUB_BASE_URL", "https://developer.roblox.com/en-us"),
		SessionCapacity: getInt("SESSION_CAPACITY", 10000),
		SessionTTL:      getDuration("SESSION_TTL", "15m"),
	}

	if c.Token == "" {
		return nil, fmt.Errorf("GATEWAY_TOKEN must be set")
	}
	if c.WikiSourceURL == "" {
		return nil, fmt.Errorf("WIKI_SOURCE_URL must be set")
	}
	if c.RSASourceURL == "" {
		return nil, fmt.Errorf("RSA_SOURCE_URL must be set")
	}
	if c.SearchAPIPrefix == "" {
		return nil, fmt.Errorf("SEARCH_API_PREFIX must not be empty")
	}
	if c.SessionCapacity <= 0 {
		return nil, fmt.Errorf("SESSION_CAPACITY must be positive")
	}
	if c.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}

	return c, nil
}

// LoadWorker builds a Worker config from environment variables. The worker
// exists solely for the analytics pipeline, so brokers and Elasticsearch are
// mandatory here.
func LoadWorker() (*Worker, error) {
	c := &Worker{
		Analytics:     loadAnalytics(),
		KafkaConsumer: getEnv("KAFKA_CONSUMER_GROUP", "query-events-worker"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.ElasticsearchAddr == "" {
		return nil, fmt.Errorf("ELASTICSEARCH_ADDR must be set")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Analytics: loadAnalytics(),
		Interval:  getDuration("RETENTION_INTERVAL", "24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "720h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.ElasticsearchAddr == "" {
		return nil, fmt.Errorf("ELASTICSEARCH_ADDR must be set")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_INTERVAL must be positive")
	}
	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

func loadAnalytics() Analytics {
	return Analytics{
		KafkaBrokers:       splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "query_events"),
		ElasticsearchAddr:  strings.TrimSpace(os.Getenv("ELASTICSEARCH_ADDR")),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "query_events"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
