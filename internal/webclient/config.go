package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

// Config selects and tunes the page loader backend.
type Config struct {
	Client    Client        `yaml:"client"`
	Timeout   time.Duration `yaml:"timeout"`
	IdleAfter time.Duration `yaml:"idle_after"`
	// ShowBrowser runs chromedp with a visible window.
	ShowBrowser bool   `yaml:"show_browser"`
	UserAgent   string `yaml:"user_agent"`
}

func DefaultConfig() Config {
	return Config{
		Client:    ClientNetHTTP,
		Timeout:   30 * time.Second,
		IdleAfter: 2 * time.Second,
		UserAgent: "phishguard/1.0",
	}
}
