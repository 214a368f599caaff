package main

import (
	"fmt"

	"github.com/phrazzld/agentdesk/internal/config"
)

// loadAppConfig reads and validates configuration from the environment.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
