// main.go
package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"messenger-bridge/openai"
)

const defaultGraphURL = "https://graph.facebook.com/v19.0/me/messages"

// Config holds all process-wide settings. It is built once at startup and
// handed to each component at construction; nothing reads the environment
// after loadConfig returns.
type Config struct {
	VerifyToken     string
	PageAccessToken string
	OpenAIKey       string
	OpenAIModel     string
	AIEnabled       bool
	Port            string
}

func loadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("💡 Using platform environment variables (no .env file)")
	}

	config := Config{
		VerifyToken:     os.Getenv("FB_VERIFY_TOKEN"),
		PageAccessToken: os.Getenv("FB_PAGE_ACCESS_TOKEN"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     os.Getenv("OPENAI_MODEL"),
		AIEnabled:       strings.EqualFold(getEnvOrDefault("AI_ENABLED", "true"), "true"),
		Port:            getEnvOrDefault("PORT", "8080"),
	}

	// Missing secrets are not fatal: verification simply never matches and
	// Send API calls come back unauthorized.
	if config.VerifyToken == "" {
		LogWarn("FB_VERIFY_TOKEN is not set - webhook verification will always fail")
	}
	if config.PageAccessToken == "" {
		LogWarn("FB_PAGE_ACCESS_TOKEN is not set - Send API calls will be rejected")
	}
	if config.AIEnabled && config.OpenAIKey == "" {
		LogWarn("OPENAI_API_KEY is not set - generated replies will fall back to the default")
	}

	return config
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func recoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				LogError("PANIC RECOVERED: %v", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("🚀 Starting Messenger Bridge...")

	config := loadConfig()

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}

	relay := NewMessengerRelay(MessengerConfig{
		AccessToken: config.PageAccessToken,
		GraphURL:    defaultGraphURL,
	}, httpClient)

	generatorConfig := openai.DefaultConfig()
	generatorConfig.APIKey = config.OpenAIKey
	generatorConfig.Model = config.OpenAIModel
	generator := openai.New(generatorConfig)

	dispatcher := NewDispatcher(relay, generator, config.AIEnabled)

	router := http.NewServeMux()
	router.HandleFunc("/health", handleHealth)
	router.HandleFunc("/webhook", recoverMiddleware(newWebhookHandler(config.VerifyToken, dispatcher)))

	log.Printf("🌐 Server starting on port %s (AI enabled: %v)", config.Port, config.AIEnabled)
	log.Fatal(http.ListenAndServe(":"+config.Port, router))
}
