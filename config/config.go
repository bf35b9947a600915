package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server ServerConfig
	Kafka  KafkaConfig
	Observ ObservabilityConfig
	Policy PolicyConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type KafkaConfig struct {
	Brokers        []string
	TopicDecisions string
	ConsumerGroup  string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
	PrometheusPort string
}

// PolicyConfig names the business constants with documented defaults:
// 7% tax, 10%/5% discount split at 500, approval above 1000, 7-day
// replenishment lead time, single-warehouse routing.
type PolicyConfig struct {
	TaxRate           decimal.Decimal
	DiscountRateHigh  decimal.Decimal
	DiscountRateLow   decimal.Decimal
	DiscountThreshold decimal.Decimal
	ApprovalThreshold decimal.Decimal
	LeadTimeDays      int
	Warehouse         string
}

func Load() *Config {
	_ = godotenv.Load()

	leadTime, _ := strconv.Atoi(getEnv("REPLENISHMENT_LEAD_TIME_DAYS", "7"))

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Kafka: KafkaConfig{
			Brokers:        strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicDecisions: getEnv("KAFKA_TOPIC_DECISION_EVENTS", "decision-events"),
			ConsumerGroup:  getEnv("KAFKA_CONSUMER_GROUP", "allocation-service-group"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			PrometheusPort: getEnv("PROMETHEUS_PORT", "9090"),
		},
		Policy: PolicyConfig{
			TaxRate:           getDecimal("POLICY_TAX_RATE", "0.07"),
			DiscountRateHigh:  getDecimal("POLICY_DISCOUNT_RATE_HIGH", "0.10"),
			DiscountRateLow:   getDecimal("POLICY_DISCOUNT_RATE_LOW", "0.05"),
			DiscountThreshold: getDecimal("POLICY_DISCOUNT_THRESHOLD", "500"),
			ApprovalThreshold: getDecimal("POLICY_APPROVAL_THRESHOLD", "1000"),
			LeadTimeDays:      leadTime,
			Warehouse:         getEnv("POLICY_WAREHOUSE", "Main Warehouse"),
		},
	}

	log.Printf("Config loaded: env=%s, port=%s", cfg.Server.Env, cfg.Server.Port)
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDecimal(key, defaultVal string) decimal.Decimal {
	raw := getEnv(key, defaultVal)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("Invalid decimal for %s=%q, using default %s", key, raw, defaultVal)
		d, _ = decimal.NewFromString(defaultVal)
	}
	return d
}
