// internal/diagnosis/matching/config.go
package matching

import "time"

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func LoadConfig(baseURL string, timeoutMillis int) *Config {
	timeout := 30 * time.Second
	if timeoutMillis > 0 {
		timeout = time.Duration(timeoutMillis) * time.Millisecond
	}
	return &Config{
		BaseURL: baseURL,
		Timeout: timeout,
	}
}
