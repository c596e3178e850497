package config

import (
	"fmt"
	"os"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	Port               string
	PostgresURI        string
	RedisURI           string
	FrontendURL        string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	OpenAIAPIKey       string
	KlingAPIKey        string
	KlingAPISecret     string
	R2                 R2
	EncryptionKey      string
	SecretKey          string
	CookieName         string
}

// LoadConfig reads configuration from the environment. Secrets carry no
// fallback values: a missing encryption key, signing key or database URI
// is a startup error, never silently defaulted.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		PostgresURI:        os.Getenv("POSTGRES_URI"),
		RedisURI:           getEnv("REDIS_URI", "127.0.0.1:6379"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  os.Getenv("GOOGLE_REDIRECT_URI"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		KlingAPIKey:        os.Getenv("KLING_API_KEY"),
		KlingAPISecret:     os.Getenv("KLING_API_SECRET"),
		R2: R2{
			AccountID:  os.Getenv("R2_ACCOUNT_ID"),
			AccessKey:  os.Getenv("R2_ACCESS_KEY"),
			SecretKey:  os.Getenv("R2_SECRET_KEY"),
			BucketName: os.Getenv("R2_BUCKET_NAME"),
			PublicURL:  os.Getenv("R2_PUBLIC_URL"),
		},
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
		SecretKey:     os.Getenv("SECRET_KEY"),
		CookieName:    getEnv("COOKIE_NAME", "cf_session"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string

	if c.PostgresURI == "" {
		missing = append(missing, "POSTGRES_URI")
	}
	if c.EncryptionKey == "" {
		missing = append(missing, "ENCRYPTION_KEY")
	}
	if c.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
