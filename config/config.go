package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// QR ordering policies. "request" drops encodings that finish after a newer
// one was requested; "completion" lets whichever encoding finishes last win.
const (
	QROrderingRequest    = "request"
	QROrderingCompletion = "completion"
)

type ServerConfig struct {
	Environment      string
	Port             string
	LetterConfigPath string
}

type RenderConfig struct {
	QROrdering string
	ChromeURL  string
}

// Validate ensures all configuration sections have the required environment
// variables set and that optional values are well-formed.
func Validate() error {
	LoadEnv()

	if err := ValidateServerConfig(); err != nil {
		return fmt.Errorf("server configuration: %w", err)
	}

	if err := ValidateRenderConfig(); err != nil {
		return fmt.Errorf("render configuration: %w", err)
	}

	if err := ValidateStorageConfig(); err != nil {
		return fmt.Errorf("storage configuration: %w", err)
	}

	if _, err := LoadLetterConfig(os.Getenv("LETTER_CONFIG_PATH")); err != nil {
		return fmt.Errorf("letter configuration: %w", err)
	}

	return nil
}

// ValidateServerConfig checks the listen port when one is given.
func ValidateServerConfig() error {
	if port := strings.TrimSpace(os.Getenv("HTTP_PORT")); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n <= 0 || n > 65535 {
			return fmt.Errorf("HTTP_PORT must be a port number, got %q", port)
		}
	}
	return nil
}

// ValidateRenderConfig checks the QR ordering policy.
func ValidateRenderConfig() error {
	switch strings.TrimSpace(os.Getenv("QR_ORDERING")) {
	case "", QROrderingRequest, QROrderingCompletion:
		return nil
	default:
		return fmt.Errorf("QR_ORDERING must be %q or %q", QROrderingRequest, QROrderingCompletion)
	}
}

func LoadServerConfig() ServerConfig {
	LoadEnv()

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}
	port := strings.TrimSpace(os.Getenv("HTTP_PORT"))
	if port == "" {
		port = "8080"
	}

	return ServerConfig{
		Environment:      env,
		Port:             port,
		LetterConfigPath: os.Getenv("LETTER_CONFIG_PATH"),
	}
}

func LoadRenderConfig() RenderConfig {
	ordering := strings.TrimSpace(os.Getenv("QR_ORDERING"))
	if ordering == "" {
		ordering = QROrderingRequest
	}

	return RenderConfig{
		QROrdering: ordering,
		ChromeURL:  strings.TrimSpace(os.Getenv("EXPORT_CHROME_URL")),
	}
}
