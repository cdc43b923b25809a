package config

import (
	"log"
	"os"
	"sync"
)

type AppConfig struct {
	Name string
	Env  string
	Port string
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
			log.Printf("Warning: APP_ENV not set, defaulting to %s", env)
		}
		appConfig = &AppConfig{
			Name: envString("APP_NAME", "rag-pipeline"),
			Env:  env,
			Port: envString("APP_PORT", ":3000"),
		}
	})
	return appConfig
}
