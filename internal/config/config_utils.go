package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyEmbeddingKeyFallback()
	c.applyStoreDefaults()
	c.applyObservabilityDefaults()
}

// applyEmbeddingKeyFallback picks up the conventional Gemini key variable.
func (c *Config) applyEmbeddingKeyFallback() {
	if c.Embedding.APIKey == "" {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			c.Embedding.APIKey = key
		}
	}
}

// applyStoreDefaults expands the sqlite path
func (c *Config) applyStoreDefaults() {
	if c.Store.SQLitePath != "" && c.Store.SQLitePath != ":memory:" {
		c.Store.SQLitePath = filepath.Clean(os.ExpandEnv(c.Store.SQLitePath))
	}
	if c.Worker.QueueSize < c.Worker.Concurrency {
		c.Worker.QueueSize = c.Worker.Concurrency
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// CurrentYearOr returns the pinned pipeline year, or fallback when none is set.
func (c *Config) CurrentYearOr(fallback int) int {
	if c.Pipeline.CurrentYear > 0 {
		return c.Pipeline.CurrentYear
	}
	return fallback
}

func maskSecret(value string) string {
	switch {
	case value == "":
		return "***NOT SET***"
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	default:
		return "****"
	}
}

// maskURL hides the userinfo part of a connection URL.
func maskURL(raw string) string {
	if raw == "" {
		return "***NOT SET***"
	}
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return raw
	}
	return raw[:scheme+3] + "***@" + raw[at+1:]
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"RESUMESCREEN_EMBEDDING_APIKEY",
		"RESUMESCREEN_EMBEDDING_PROVIDER",
		"RESUMESCREEN_EMBEDDING_MODEL",
		"RESUMESCREEN_STORE_DRIVER",
		"RESUMESCREEN_STORE_POSTGRESURL",
		"RESUMESCREEN_CACHE_JD_REDISURL",
		"RESUMESCREEN_APP_LOGLEVEL",
		"RESUMESCREEN_VAULT_ENABLED",
		"GEMINI_API_KEY",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			lower := strings.ToLower(envVar)
			if strings.Contains(lower, "key") || strings.Contains(lower, "url") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] Embedding Provider: %s", c.Embedding.Provider)
	if c.Embedding.Provider == "gemini" {
		log.Printf("[CONFIG] Embedding Model: %s", c.Embedding.Model)
		log.Printf("[CONFIG] Embedding API Key: %s", maskSecret(c.Embedding.APIKey))
	} else {
		log.Printf("[CONFIG] Embedding Dimensions: %d", c.Embedding.Dimensions)
	}
	log.Printf("[CONFIG] Store Driver: %s", c.Store.Driver)
	switch c.Store.Driver {
	case "sqlite":
		log.Printf("[CONFIG] SQLite Path: %s", c.Store.SQLitePath)
	case "postgres":
		log.Printf("[CONFIG] Postgres URL: %s", maskURL(c.Store.PostgresURL))
	}
	log.Printf("[CONFIG] JD Cache Enabled: %t (redis: %s)", c.Cache.JD.Enabled, maskURL(c.Cache.JD.RedisURL))
	log.Printf("[CONFIG] Worker Concurrency: %d", c.Worker.Concurrency)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] =====================================")
}
