package config

import (
	"runtime"
	"time"
)

type Config struct {
	// Output is the directory posts are downloaded into.
	Output   string `toml:"output"`
	Database string `toml:"database"`

	// Concurrency is the number of media files downloaded at the same time.
	Concurrency  int `toml:"concurrency"`
	ParseWorkers int `toml:"parse_workers"`

	UserAgent         string  `toml:"user_agent"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	RequestBurst      int     `toml:"request_burst"`

	// Timeout limits a whole request including its body. 0 disables it.
	Timeout time.Duration `toml:"timeout"`

	Progress bool `toml:"progress"`
}

// Defaults returns the value of every key not present in the config file.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"output":              ".",
		"database":            "tumblr.db",
		"concurrency":         4,
		"parse_workers":       runtime.NumCPU(),
		"user_agent":          "",
		"requests_per_second": 0.0,
		"request_burst":       1,
		"timeout":             "0s",
		"progress":            false,
	}
}
