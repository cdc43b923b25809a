package config

import (
	"os"
	"sync"
)

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

var (
	dbConfig *DBConfig
	dbOnce   sync.Once
)

// LoadDBConfig reads the connection settings once. Only the credentials have
// no default; everything else falls back to a local development setup.
func LoadDBConfig() *DBConfig {
	dbOnce.Do(func() {
		dbConfig = &DBConfig{
			Host:     envString("DB_HOST", "localhost"),
			Port:     envString("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     envString("DB_NAME", "rag_pipeline"),
			SSLMode:  envString("DB_SSLMODE", "disable"),
		}
	})
	return dbConfig
}
