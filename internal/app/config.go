package app

import (
	"strings"

	"github.com/yungbote/traffic-backend/internal/logger"
	"github.com/yungbote/traffic-backend/internal/utils"
)

type KafkaConfig struct {
	ClientID string
	Brokers  []string
	Topic    string
	GroupID  string
}

type Config struct {
	Port         string
	Environment  string
	Kafka        KafkaConfig
	UseMockData  bool
	RedisAddr    string
	RedisChannel string
}

func LoadConfig(log *logger.Logger) Config {
	brokers := strings.Split(utils.GetEnv("KAFKA_BROKERS", "localhost:9092", log), ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	return Config{
		Port:        utils.GetEnv("PORT", "5001", log),
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Kafka: KafkaConfig{
			ClientID: utils.GetEnv("KAFKA_CLIENT_ID", "customer-traffic-consumer", log),
			Brokers:  brokers,
			Topic:    utils.GetEnv("KAFKA_TOPIC", "location-customer-traffic", log),
			GroupID:  utils.GetEnv("KAFKA_GROUP_ID", "customer-traffic-group", log),
		},
		UseMockData:  utils.GetEnvAsBool("USE_MOCK_DATA", false, log),
		RedisAddr:    utils.GetEnv("REDIS_ADDR", "", log),
		RedisChannel: utils.GetEnv("REDIS_CHANNEL", "traffic", log),
	}
}
