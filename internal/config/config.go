package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

type rawConfig struct {
	Server *struct {
		Address string `json:"address"`
	} `json:"server"`
	Database *struct {
		Path string `json:"path"`
	} `json:"database"`
	// Path to the rules catalog (weapons, spells, classes, monsters).
	CatalogPath string `json:"catalog_path"`
	Grid        *struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"grid"`
	// Seconds a player has to submit an action before the turn is forfeited.
	ActionTimeoutSeconds int `json:"action_timeout_seconds"`
	// Optional fixed dice seed. Zero means seed from the clock per encounter.
	DiceSeed int64 `json:"dice_seed"`
}

// envOverrides are applied on top of the config file so deployments can
// tweak a setting without editing the file.
type envOverrides struct {
	ServerAddress        string `env:"COMBAT_SERVER_ADDRESS"`
	DatabasePath         string `env:"COMBAT_DATABASE_PATH"`
	CatalogPath          string `env:"COMBAT_CATALOG_PATH"`
	ActionTimeoutSeconds int    `env:"COMBAT_ACTION_TIMEOUT_SECONDS"`
}

// LoadedConfig is the resolved runtime configuration.
type LoadedConfig struct {
	ServerAddress        string
	DatabasePath         string
	CatalogPath          string
	GridWidth            int
	GridHeight           int
	ActionTimeoutSeconds int
	DiceSeed             int64
}

// LoadConfig reads the configuration file at path, applies environment
// overrides and validates the result. It requires a catalog path: the
// server cannot resolve a single attack without rules data.
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	out := &LoadedConfig{
		ServerAddress:        ":8080",
		DatabasePath:         "combat.db",
		CatalogPath:          strings.TrimSpace(rc.CatalogPath),
		GridWidth:            12,
		GridHeight:           12,
		ActionTimeoutSeconds: 120,
		DiceSeed:             rc.DiceSeed,
	}
	if rc.Server != nil && rc.Server.Address != "" {
		out.ServerAddress = rc.Server.Address
	}
	if rc.Database != nil && rc.Database.Path != "" {
		out.DatabasePath = rc.Database.Path
	}
	if rc.Grid != nil {
		if rc.Grid.Width > 0 {
			out.GridWidth = rc.Grid.Width
		}
		if rc.Grid.Height > 0 {
			out.GridHeight = rc.Grid.Height
		}
	}
	if rc.ActionTimeoutSeconds > 0 {
		out.ActionTimeoutSeconds = rc.ActionTimeoutSeconds
	}

	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}
	if ov.ServerAddress != "" {
		out.ServerAddress = ov.ServerAddress
	}
	if ov.DatabasePath != "" {
		out.DatabasePath = ov.DatabasePath
	}
	if ov.CatalogPath != "" {
		out.CatalogPath = ov.CatalogPath
	}
	if ov.ActionTimeoutSeconds > 0 {
		out.ActionTimeoutSeconds = ov.ActionTimeoutSeconds
	}

	if out.CatalogPath == "" {
		return nil, fmt.Errorf("config file %s: catalog_path is required", path)
	}
	if out.GridWidth < 4 || out.GridHeight < 4 || out.GridWidth > 64 || out.GridHeight > 64 {
		return nil, fmt.Errorf("config file %s: grid dimensions must be between 4 and 64", path)
	}
	return out, nil
}
