// GameWatch Core
// Copyright (c) 2026 The GameWatch Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of GameWatch Core.
//
// GameWatch Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GameWatch Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GameWatch Core.  If not, see <http://www.gnu.org/licenses/>.

// Package config loads and persists the GameWatch TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/GameWatchProject/gamewatch-core/pkg/helpers/syncutil"
	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "GAMEWATCH_CFG"
	CfgFile       = "config.toml"
	AppName       = "gamewatch"
)

// Values is the on-disk configuration schema.
type Values struct {
	Detector     Detector `toml:"detector,omitempty"`
	Mappings     Mappings `toml:"mappings,omitempty"`
	Steam        Steam    `toml:"steam,omitempty"`
	ConfigSchema int      `toml:"config_schema"`
	DebugLogging bool     `toml:"debug_logging"`
}

// Detector configures the running-game poll loop.
type Detector struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds,omitempty"`
}

// Mappings configures the remote game-mapping document fetch.
type Mappings struct {
	URL            string `toml:"url,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`
}

// Steam configures the Steam library scanner.
type Steam struct {
	ExtraLibraryDirs []string `toml:"extra_library_dirs,omitempty,multiline"`
}

// BaseDefaults are the values written on first run and used for any field
// missing from an existing config file.
var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Detector: Detector{
		PollIntervalSeconds: 15,
	},
	Mappings: Mappings{
		TimeoutSeconds: 10,
	},
}

// Instance is a thread-safe view of a loaded configuration.
type Instance struct {
	cfgPath string
	vals    Values
	mu      syncutil.RWMutex
}

// DefaultConfigDir returns the directory holding the config file, honoring
// the GAMEWATCH_CFG environment override.
func DefaultConfigDir() string {
	if env := os.Getenv(CfgEnv); env != "" {
		return env
	}
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultLogDir returns the directory used for rotating log files.
func DefaultLogDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// NewConfig loads the config file from cfgDir, creating it with defaults on
// first run. A malformed file is an error; a missing one is not.
func NewConfig(cfgDir string, defaults Values) (*Instance, error) {
	cfg := Instance{
		cfgPath: filepath.Join(cfgDir, CfgFile),
		vals:    defaults,
	}

	if _, err := os.Stat(cfg.cfgPath); err == nil {
		if err := cfg.Load(); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", cfg.cfgPath).Msg("saving new default config")
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("error saving default config: %w", err)
		}
	} else {
		return nil, fmt.Errorf("error checking config file: %w", err)
	}

	return &cfg, nil
}

// Load re-reads the config file from disk.
func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	var newVals Values
	if err := toml.Unmarshal(data, &newVals); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	if newVals.Detector.PollIntervalSeconds <= 0 {
		newVals.Detector.PollIntervalSeconds = BaseDefaults.Detector.PollIntervalSeconds
	}
	if newVals.Mappings.TimeoutSeconds <= 0 {
		newVals.Mappings.TimeoutSeconds = BaseDefaults.Mappings.TimeoutSeconds
	}

	c.vals = newVals
	return nil
}

// Save writes the current values to disk.
func (c *Instance) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	if err := os.MkdirAll(filepath.Dir(c.cfgPath), 0o750); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("error marshalling config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// DebugLogging reports whether debug-level logging is enabled.
func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

// SetDebugLogging toggles debug-level logging.
func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

// PollInterval returns the detector poll interval.
func (c *Instance) PollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Detector.PollIntervalSeconds) * time.Second
}

// MappingsURL returns the remote mapping document URL, empty when the remote
// scanner is disabled.
func (c *Instance) MappingsURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Mappings.URL
}

// MappingsTimeout returns the remote fetch timeout.
func (c *Instance) MappingsTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Mappings.TimeoutSeconds) * time.Second
}

// SteamExtraLibraryDirs returns user-configured Steam library directories
// scanned in addition to those discovered from libraryfolders.vdf.
func (c *Instance) SteamExtraLibraryDirs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dirs := make([]string, len(c.vals.Steam.ExtraLibraryDirs))
	copy(dirs, c.vals.Steam.ExtraLibraryDirs)
	return dirs
}
