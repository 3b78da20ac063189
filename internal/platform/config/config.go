// Package config loads service configuration from the environment and an
// optional .env file using viper.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Enabled reports whether a database host was configured.
func (c DatabaseConfig) Enabled() bool { return c.Host != "" }

// KafkaConfig holds Kafka connection settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// Enabled reports whether any broker was configured.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// Loader resolves keys against the environment, preferring the prefixed form
// PREFIX_KEY over the plain KEY.
type Loader struct {
	v      *viper.Viper
	prefix string
}

// Load builds a Loader. Values from the .env file in the working directory, if
// present, are used when neither form of a key is set in the environment.
func Load(prefix string) (*Loader, error) {
	return LoadFile(prefix, ".env")
}

// LoadFile is Load with an explicit env file path.
func LoadFile(prefix, envFile string) (*Loader, error) {
	v := viper.New()
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		}
	}

	return &Loader{v: v, prefix: strings.ToUpper(prefix)}, nil
}

func (l *Loader) key(key string) (string, bool) {
	if l.prefix != "" {
		if prefixed := l.prefix + "_" + key; l.v.IsSet(prefixed) {
			return prefixed, true
		}
	}
	return key, l.v.IsSet(key)
}

// String returns the value of key, or def when unset or empty.
func (l *Loader) String(key, def string) string {
	k, ok := l.key(key)
	if !ok {
		return def
	}
	if s := strings.TrimSpace(l.v.GetString(k)); s != "" {
		return s
	}
	return def
}

// Duration returns key parsed as a time.Duration, or def when unset or invalid.
func (l *Loader) Duration(key string, def time.Duration) time.Duration {
	s := l.String(key, "")
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// List returns key split on commas with blanks removed, or def when unset.
func (l *Loader) List(key string, def []string) []string {
	s := l.String(key, "")
	if s == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetAppEnv returns APP_ENV, defaulting to "development".
func GetAppEnv(l *Loader) string {
	return l.String("APP_ENV", "development")
}

// GetServicePort returns key as a listen address, prefixing ":" to bare ports.
func GetServicePort(l *Loader, key, def string) string {
	port := l.String(key, def)
	if !strings.Contains(port, ":") {
		port = ":" + port
	}
	return port
}

// LoadDatabaseConfig reads the DB_* keys.
func LoadDatabaseConfig(l *Loader) DatabaseConfig {
	return DatabaseConfig{
		Host:     l.String("DB_HOST", ""),
		Port:     l.String("DB_PORT", "5432"),
		User:     l.String("DB_USER", "postgres"),
		Password: l.String("DB_PASSWORD", ""),
		DBName:   l.String("DB_NAME", "ambulance"),
		SSLMode:  l.String("DB_SSLMODE", "disable"),
	}
}

// LoadKafkaConfig reads KAFKA_BROKERS and KAFKA_GROUP_PREFIX.
func LoadKafkaConfig(l *Loader) KafkaConfig {
	return KafkaConfig{
		Brokers:     l.List("KAFKA_BROKERS", nil),
		GroupPrefix: l.String("KAFKA_GROUP_PREFIX", ""),
	}
}
