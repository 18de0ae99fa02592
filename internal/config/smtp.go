package config

import (
	"os"
	"strconv"
)

type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
}

func LoadSMTPConfig() *SMTPConfig {
	return &SMTPConfig{
		Host:     getEnv("SMTP_HOST", "localhost"),
		Port:     getEnvAsInt("SMTP_PORT", 587),
		From:     getEnv("SMTP_EMAIL", "ledger@stewardbooks.org"),
		Password: getEnv("SMTP_PASS", ""),
	}
}

// Enabled reports whether outbound SMTP is configured at all.
func (c *SMTPConfig) Enabled() bool {
	return c.Password != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
