package config

import (
	"os"
	"strconv"
)

type ExtractorConfig struct {
	Port        string
	SiteFilter  string
	Species     string
	UTCOffset   string
	Overwrite   bool
	BETYCfg     BETYConfig
	ClowderCfg  ClowderConfig
	RabbitMQCfg RabbitMQConfig
	MinioCfg    MinioConfig
}

type BETYConfig struct {
	URL string
	Key string
}

type ClowderConfig struct {
	Host string
	Key  string
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type MinioConfig struct {
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioLocation  string
	MinioSecure    string
	MinioBucket    string
}

func New() *ExtractorConfig {
	return &ExtractorConfig{
		Port:       getEnvOrDefault("PORT", "8086"),
		SiteFilter: getEnvOrDefault("SITE_FILTER", "Maricopa"),
		Species:    getEnvOrDefault("TRAIT_SPECIES", "Sorghum bicolor"),
		UTCOffset:  getEnvOrDefault("UTC_OFFSET", "-07:00"),
		Overwrite:  getEnvBool("OVERWRITE", false),
		BETYCfg: BETYConfig{
			URL: getEnvOrDefault("BETYDB_URL", "https://terraref.ncsa.illinois.edu/bety"),
			Key: getEnvOrDefault("BETYDB_KEY", ""),
		},
		ClowderCfg: ClowderConfig{
			Host: getEnvOrDefault("CLOWDER_HOST", "http://localhost:9000/"),
			Key:  getEnvOrDefault("CLOWDER_KEY", ""),
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "guest"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "guest"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		MinioCfg: MinioConfig{
			MinioURL:       getEnvOrDefault("MINIO_ENDPOINT", ""),
			MinioAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:  getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:    getEnvOrDefault("MINIO_SECURE", "false"),
			MinioBucket:    getEnvOrDefault("MINIO_BUCKET", "fullfield-rasters"),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
