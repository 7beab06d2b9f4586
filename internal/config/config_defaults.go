package config

import (
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the config layer
const EnvPrefix = "RESUMEFORGE"

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.useSystemPrompts", true)

	// Keyword extraction wants repeatable output
	setOperationDefaults(v, OpExtractKeywords, 60*time.Second, 2, 0.1)
	// Fit assessment is factual, like evaluation
	setOperationDefaults(v, OpAssessFit, 60*time.Second, 2, 0.2)
	// Generation benefits from a little variety
	setOperationDefaults(v, OpCoverLetter, 90*time.Second, 2, 0.7)
	setOperationDefaults(v, OpSummary, 60*time.Second, 2, 0.6)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 150*time.Second) // Must outlive the slowest AI operation
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 10*1024*1024) // 10MB, room for base64 documents
	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})
	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", 10*time.Minute)
	// Prompt hot reload
	v.SetDefault("server.promptWatch.enabled", true)
	v.SetDefault("server.promptWatch.debounceDelay", time.Second)
	// Vault API key rotation
	v.SetDefault("server.vaultWatcher.enabled", false)
	v.SetDefault("server.vaultWatcher.pollInterval", 5*time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 5*1024*1024) // 5MB, PDFs are larger than plain text

	// Cache Configuration
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.username", "")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.keyPrefix", "resumeforge:keywords:")
	v.SetDefault("cache.timeout", 2*time.Second)

	// Storage Configuration
	v.SetDefault("storage.s3.enabled", false)
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.accessKeyId", "")
	v.SetDefault("storage.s3.secretAccessKey", "")
	v.SetDefault("storage.s3.usePathStyle", false)

	// Extractor Configuration
	v.SetDefault("extractor.metadataCommand", "exiftool")
	v.SetDefault("extractor.metadataArgs", []string{"-json"})
	v.SetDefault("extractor.metadataTimeout", 10*time.Second)
	v.SetDefault("extractor.maxPages", 2)
	v.SetDefault("extractor.maxFonts", 3)
	v.SetDefault("extractor.minFontSize", 9.0)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.redis", "")
	v.SetDefault("vault.secrets.s3", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumeforge")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackModelInfo", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackSuccessRates", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackContentSizes", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackScores", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackCacheHits", true)

	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}

func setOperationDefaults(v *viper.Viper, op Operation, timeout time.Duration, maxRetries int, temperature float64) {
	prefix := "ai.operations." + string(op) + "."
	v.SetDefault(prefix+"provider", "gemini")
	v.SetDefault(prefix+"model", "")
	v.SetDefault(prefix+"timeout", timeout)
	v.SetDefault(prefix+"apiKey", "")
	v.SetDefault(prefix+"maxRetries", maxRetries)
	v.SetDefault(prefix+"temperature", temperature)
	v.SetDefault(prefix+"useSystemPrompts", true)

	v.SetDefault(prefix+"circuitBreaker.enabled", true)
	v.SetDefault(prefix+"circuitBreaker.maxRequests", 3)
	v.SetDefault(prefix+"circuitBreaker.interval", 60*time.Second)
	v.SetDefault(prefix+"circuitBreaker.timeout", 60*time.Second)
	v.SetDefault(prefix+"circuitBreaker.minRequests", 3)
	v.SetDefault(prefix+"circuitBreaker.failureThreshold", 0.6)
}
