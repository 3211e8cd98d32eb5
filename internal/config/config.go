// Package config loads the service configuration from environment variables.
package config

import (
	"errors"

	"github.com/caarlos0/env/v6"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port string `env:"SERVER_PORT" envDefault:"3000"`
}

// Addr returns the host:port the server binds to.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	URI      string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"MONGODB_DATABASE" envDefault:"fleetstore"`
}

// RedisConfig holds the optional Redis pub/sub bridge settings. An empty Addr
// disables the bridge and realtime events stay process-local.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	Database int    `env:"REDIS_DATABASE" envDefault:"0"`
	Channel  string `env:"REDIS_CHANNEL" envDefault:"fleetstore.documentos"`
}

// Enabled reports whether the bridge should start.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// AuthConfig holds JWT validation settings.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
}

// RealtimeConfig holds websocket settings.
type RealtimeConfig struct {
	WebSocketPath string `env:"WEBSOCKET_PATH" envDefault:"/ws/v1/escuchar"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Config is the whole service configuration.
type Config struct {
	Server   ServerConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Realtime RealtimeConfig
	Log      LogConfig
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("no se pudo cargar la configuración del entorno: " + err.Error())
	}

	if cfg.Mongo.URI == "" {
		return nil, errors.New("MONGODB_URI no puede estar vacío")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET es obligatorio")
	}
	return cfg, nil
}
