package server

import "github.com/raysh454/phishguard/internal/logging"

type Config struct {
	// ListenAddr is the HTTP listen address of the background API.
	ListenAddr string `yaml:"listen_addr"`
	// HistoryLimit is the default page size for /api/history.
	HistoryLimit int `yaml:"history_limit"`

	Logger logging.Logger `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:   "127.0.0.1:8787",
		HistoryLimit: 20,
	}
}
