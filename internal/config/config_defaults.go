package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Application
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 10*1024*1024) // 10MB

	// Pipeline
	v.SetDefault("pipeline.currentYear", 0)
	v.SetDefault("pipeline.minTextLength", 30)
	v.SetDefault("pipeline.extractedTextLimit", 5000)
	v.SetDefault("pipeline.nameHeaderChars", 800)

	// Embedding
	v.SetDefault("embedding.provider", "hash")
	v.SetDefault("embedding.model", "text-embedding-004")
	v.SetDefault("embedding.apiKey", "")
	v.SetDefault("embedding.dimensions", 256)
	v.SetDefault("embedding.timeout", 30*time.Second)
	v.SetDefault("embedding.maxRetries", 2)
	v.SetDefault("embedding.batchSize", 64)
	v.SetDefault("embedding.requestsPerMin", 600)
	v.SetDefault("embedding.burstCapacity", 10)
	v.SetDefault("embedding.circuitBreaker.enabled", true)
	v.SetDefault("embedding.circuitBreaker.maxRequests", 3)
	v.SetDefault("embedding.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("embedding.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("embedding.circuitBreaker.minRequests", 3)
	v.SetDefault("embedding.circuitBreaker.failureThreshold", 0.6)

	// Worker pool
	v.SetDefault("worker.concurrency", 2)
	v.SetDefault("worker.queueSize", 16)
	v.SetDefault("worker.inbox.debounceDelay", time.Second)
	v.SetDefault("worker.inbox.extensions", []string{".pdf", ".docx", ".txt", ".md", ".html", ".htm"})

	// Store
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlitePath", "$HOME/.resumescreen/resumescreen.db")
	v.SetDefault("store.postgresUrl", "")
	v.SetDefault("store.maxConns", 10)

	// JD profile cache
	v.SetDefault("cache.jd.enabled", true)
	v.SetDefault("cache.jd.ttl", time.Hour)
	v.SetDefault("cache.jd.maxEntries", 256)
	v.SetDefault("cache.jd.cleanupInterval", 5*time.Minute)
	v.SetDefault("cache.jd.redisUrl", "")

	// Vault
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.geminiKey", "secret/data/resumescreen/gemini")
	v.SetDefault("vault.secrets.postgres", "secret/data/resumescreen/postgres")
	v.SetDefault("vault.secrets.redis", "secret/data/resumescreen/redis")

	// Observability
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "resumescreen")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 30*time.Second)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
}
