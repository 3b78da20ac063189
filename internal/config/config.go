package config

import (
	"time"

	"github.com/SevaDrive/service-ambulance/internal/platform/config"
)

// ServiceConfig holds all configuration for the ambulance service.
type ServiceConfig struct {
	Port             string
	AppEnv           string
	GoogleMapsAPIKey string
	CORSOrigins      []string

	DatasetPath string
	ModelPath   string

	MapsTimeout        time.Duration
	CacheDir           string
	DirectionsCacheTTL time.Duration
	GeocodeCacheTTL    time.Duration

	DBConfig    config.DatabaseConfig
	KafkaConfig config.KafkaConfig
}

// Load reads configuration from environment variables and .env.
func Load() (*ServiceConfig, error) {
	l, err := config.Load("AMBULANCE")
	if err != nil {
		return nil, err
	}
	return fromLoader(l), nil
}

func fromLoader(l *config.Loader) *ServiceConfig {
	return &ServiceConfig{
		Port:             config.GetServicePort(l, "PORT", "5001"),
		AppEnv:           config.GetAppEnv(l),
		GoogleMapsAPIKey: l.String("GOOGLE_MAPS_API_KEY", ""),
		CORSOrigins:      l.List("CORS_ORIGINS", []string{"http://localhost:3000"}),

		DatasetPath: l.String("DATASET_PATH", "final_dataset.csv"),
		ModelPath:   l.String("MODEL_PATH", "model.json"),

		MapsTimeout:        l.Duration("MAPS_TIMEOUT", 10*time.Second),
		CacheDir:           l.String("CACHE_DIR", ""),
		DirectionsCacheTTL: l.Duration("DIRECTIONS_CACHE_TTL", 2*time.Minute),
		GeocodeCacheTTL:    l.Duration("GEOCODE_CACHE_TTL", 24*time.Hour),

		DBConfig:    config.LoadDatabaseConfig(l),
		KafkaConfig: config.LoadKafkaConfig(l),
	}
}
