package cache

import "time"

// Config controls entry lifetime and sweep cadence.
type Config struct {
	// TTL is how long a stored result is served from cache.
	TTL time.Duration `yaml:"ttl"`

	// SweepInterval is how often expired entries are purged.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// DefaultConfig returns the one hour TTL swept every ten minutes.
func DefaultConfig() Config {
	return Config{
		TTL:           time.Hour,
		SweepInterval: 10 * time.Minute,
	}
}
