// Package config collects every runtime setting in one place so startup
// validates the whole set at once instead of failing midway through the
// first event.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/facturave/reciboscan/internal/pkg/blobstore"
	"github.com/facturave/reciboscan/internal/pkg/cache"
	"github.com/facturave/reciboscan/internal/pkg/cosmosdoc"
	"github.com/facturave/reciboscan/internal/pkg/docintel"
	"github.com/facturave/reciboscan/internal/pkg/env"
	"github.com/facturave/reciboscan/internal/pkg/usernames"
)

type ServerConfig struct {
	Host string `validate:"required"`
	Port string `validate:"required"`
}

func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Config aggregates the per-component settings. Storage, Extraction and
// DocumentDB are mandatory; Relational and Cache are optional groups
// whose absence degrades a feature instead of blocking startup.
type Config struct {
	Server     ServerConfig
	Storage    blobstore.Config
	Extraction docintel.Config
	DocumentDB cosmosdoc.Config

	Relational usernames.Config `validate:"-"`
	Cache      cache.Config     `validate:"-"`
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: env.GetEnv("APP_HOST", "0.0.0.0"),
			Port: env.GetEnv("APP_PORT", "8080"),
		},
		Storage: blobstore.Config{
			ConnectionString: env.GetEnv("AZURE_STORAGE_CONNECTION_STRING", ""),
		},
		Extraction: docintel.Config{
			Endpoint: env.GetEnv("DI_ENDPOINT", ""),
			Key:      env.GetEnv("DI_KEY", ""),
			ModelID:  env.GetEnv("DI_MODEL_ID", docintel.DefaultModelID),
		},
		DocumentDB: cosmosdoc.Config{
			Endpoint:      env.GetEnv("COSMOS_ENDPOINT", ""),
			Key:           env.GetEnv("COSMOS_KEY", ""),
			DatabaseName:  env.GetEnv("COSMOS_DATABASE_NAME", ""),
			ContainerName: env.GetEnv("COSMOS_CONTAINER_NAME", ""),
		},
		Relational: usernames.Config{
			Host:       env.GetEnv("MYSQL_HOST", ""),
			User:       env.GetEnv("MYSQL_USER", ""),
			Password:   env.GetEnv("MYSQL_PASSWORD", ""),
			Database:   env.GetEnv("MYSQL_DATABASE", ""),
			CACertPath: env.GetEnv("DB_SSL_CA_PATH", ""),
		},
		Cache: cache.Config{
			Host: env.GetEnv("CACHE_HOST", ""),
			Port: env.GetEnv("CACHE_PORT", "6379"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	return cfg, nil
}
