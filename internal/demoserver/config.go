package demoserver

// Config holds configuration for the demo server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int `yaml:"port"`

	// HistoryCap bounds the in-memory scan history.
	HistoryCap int `yaml:"history_cap"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:       9999,
		HistoryCap: 100,
	}
}
