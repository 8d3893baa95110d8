package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/shopkeeper/internal/flagx"
	"github.com/dmitrijs2005/shopkeeper/internal/timex"
)

// JSONConfig is the on-disk shape. Pointer fields tell an absent key from a
// zero value.
type JSONConfig struct {
	ServerURL      *string         `json:"server_url"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	DatabasePath   *string         `json:"database_path"`
	KeyFile        *string         `json:"key_file"`
	LogLevel       *string         `json:"log_level"`
	PageSize       *int            `json:"page_size"`
}

// parseJSON overlays cfg with the JSON file selected by flagx.ConfigFile.
// No file selected means no changes.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.KeyFile != nil {
		cfg.KeyFile = *jc.KeyFile
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	if jc.PageSize != nil {
		cfg.PageSize = *jc.PageSize
	}
	return nil
}
