package config

import (
	"strings"

	"github.com/spf13/viper"
)

// All services run from environment variables (the pods set DB, AWS and
// Kafka settings per deployment); defaults match the local docker-compose
// stack with LocalStack and Redpanda.

type Config struct {
	DBHost             string `mapstructure:"DB_HOST"`
	DBPort             string `mapstructure:"DB_PORT"`
	DBUser             string `mapstructure:"DB_USER"`
	DBPassword         string `mapstructure:"DB_PASSWORD"`
	DBName             string `mapstructure:"DB_NAME"`
	ServerPort         string `mapstructure:"SERVER_PORT"`
	ChangelogHTTPPort  string `mapstructure:"CHANGELOG_HTTP_PORT"`
	AWSRegion          string `mapstructure:"AWS_REGION"`
	AWSEndpoint        string `mapstructure:"AWS_ENDPOINT"`
	EmailSQSQueueURL   string `mapstructure:"EMAIL_SQS_QUEUE_URL"`
	DeadLetterQueueURL string `mapstructure:"DEAD_LETTER_SQS_QUEUE_URL"`
	EmailSender        string `mapstructure:"EMAIL_SENDER"`
	KafkaBrokers       string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic         string `mapstructure:"KAFKA_TOPIC"`
	KafkaGroupID       string `mapstructure:"KAFKA_GROUP_ID"`
	OTLPEndpoint       string `mapstructure:"OTLP_ENDPOINT"`
	IsLocalDev         bool   `mapstructure:"IS_LOCAL_DEV"`
}

// Brokers splits the comma-separated broker list.
func (c Config) Brokers() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "attendance_db")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("CHANGELOG_HTTP_PORT", "8082")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("EMAIL_SQS_QUEUE_URL", "http://localstack:4566/000000000000/email-queue")
	viper.SetDefault("DEAD_LETTER_SQS_QUEUE_URL", "http://localstack:4566/000000000000/change-log-dlq")
	viper.SetDefault("EMAIL_SENDER", "noreply@attendance-service.com")
	viper.SetDefault("KAFKA_BROKERS", "kafka:9092")
	viper.SetDefault("KAFKA_TOPIC", "employee-data-changes")
	viper.SetDefault("KAFKA_GROUP_ID", "logging-service")
	viper.SetDefault("OTLP_ENDPOINT", "jaeger:4317")
	viper.SetDefault("IS_LOCAL_DEV", false)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}
