package gateway

import (
	"time"

	"github.com/raysh454/phishguard/internal/model"
)

// Config describes how to reach the remote analysis backend.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds every request made to the backend.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRPS limits outgoing requests per second (0 = unlimited).
	MaxRPS float64 `yaml:"max_rps"`

	// ReportedBy is sent with every phishing report.
	ReportedBy string `yaml:"reported_by"`
}

// DefaultConfig points at a backend on localhost:8000.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:8000/api",
		Timeout:    30 * time.Second,
		ReportedBy: model.ReportedByExtension,
	}
}
