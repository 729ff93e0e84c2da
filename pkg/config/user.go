/*
Podcastr
Copyright (C) 2024 The Podcastr Authors

This file is part of Podcastr.

Podcastr is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Podcastr is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Podcastr.  If not, see <http://www.gnu.org/licenses/>.
*/

package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

const (
	UserConfigEnv = "PODCASTR_CONFIG"
	UserDataEnv   = "PODCASTR_DATA"
)

type PodcastrConfig struct {
	Debug          bool `ini:"debug"`
	ConsoleLogging bool `ini:"console_logging"`
}

type EpisodesConfig struct {
	ApiUrl    string `ini:"api_url"`
	CacheTtl  int    `ini:"cache_ttl"` // seconds
	Prerender int    `ini:"prerender"`
}

type ApiConfig struct {
	Port        string   `ini:"port"`
	AllowOrigin []string `ini:"allow_origin,omitempty,allowshadow"`
	Advertise   bool     `ini:"advertise"`
}

type UserConfig struct {
	mu       sync.RWMutex   `ini:"-"`
	DataDir  string         `ini:"-"`
	IniPath  string         `ini:"-"`
	Podcastr PodcastrConfig `ini:"podcastr"`
	Episodes EpisodesConfig `ini:"episodes"`
	Api      ApiConfig      `ini:"api"`
}

// NewDefaults returns a config populated with the values written to disk
// when no config file exists yet.
func NewDefaults() *UserConfig {
	return &UserConfig{
		Episodes: EpisodesConfig{
			ApiUrl:    DefaultApiUrl,
			CacheTtl:  DefaultCacheTtl,
			Prerender: DefaultPrerender,
		},
		Api: ApiConfig{
			Port: DefaultApiPort,
		},
	}
}

func (c *UserConfig) GetDebug() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Podcastr.Debug
}

func (c *UserConfig) SetDebug(debug bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Podcastr.Debug = debug
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func (c *UserConfig) GetConsoleLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Podcastr.ConsoleLogging
}

func (c *UserConfig) GetApiUrl() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Episodes.ApiUrl
}

func (c *UserConfig) SetApiUrl(apiUrl string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Episodes.ApiUrl = apiUrl
}

func (c *UserConfig) GetCacheTtl() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Episodes.CacheTtl <= 0 {
		return DefaultCacheTtl * time.Second
	}
	return time.Duration(c.Episodes.CacheTtl) * time.Second
}

func (c *UserConfig) SetCacheTtl(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Episodes.CacheTtl = int(ttl / time.Second)
}

func (c *UserConfig) GetPrerender() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Episodes.Prerender
}

// GetLatestLimit returns prerender as a usable page size for latest
// episode listings: unset falls back to the default and large values are
// capped at MaxPrerender.
func (c *UserConfig) GetLatestLimit() int {
	n := c.GetPrerender()
	switch {
	case n <= 0:
		return DefaultPrerender
	case n > MaxPrerender:
		return MaxPrerender
	default:
		return n
	}
}

func (c *UserConfig) SetPrerender(prerender int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Episodes.Prerender = prerender
}

func (c *UserConfig) GetApiPort() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Api.Port == "" {
		return DefaultApiPort
	}
	return c.Api.Port
}

func (c *UserConfig) GetAllowOrigin() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Api.AllowOrigin
}

func (c *UserConfig) SetAllowOrigin(origins []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Api.AllowOrigin = origins
}

func (c *UserConfig) GetAdvertise() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Api.Advertise
}

func (c *UserConfig) SetAdvertise(advertise bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Api.Advertise = advertise
}

func (c *UserConfig) LoadConfig() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, err := ini.ShadowLoad(c.IniPath)
	if err != nil {
		return err
	}

	// shadowed keys append, so start from an empty list on reload
	c.Api.AllowOrigin = nil

	return cfg.StrictMapTo(c)
}

func (c *UserConfig) SaveConfig() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg := ini.Empty(ini.LoadOptions{AllowShadows: true})

	ini.PrettyEqual = true
	ini.PrettyFormat = false

	err := cfg.ReflectFrom(c)
	if err != nil {
		return err
	}

	return cfg.SaveTo(c.IniPath)
}

// NewUserConfig resolves the config file location, writes the defaults to
// disk if the file doesn't exist yet and otherwise loads it over them.
func NewUserConfig(defaultConfig *UserConfig) (*UserConfig, error) {
	dataDir := DataDir()

	iniPath := os.Getenv(UserConfigEnv)
	if iniPath == "" {
		iniPath = filepath.Join(dataDir, AppName+".ini")
	}

	defaultConfig.DataDir = dataDir
	defaultConfig.IniPath = iniPath

	err := os.MkdirAll(filepath.Dir(iniPath), 0755)
	if err != nil {
		return defaultConfig, err
	}

	if _, err := os.Stat(iniPath); os.IsNotExist(err) {
		err := defaultConfig.SaveConfig()
		if err != nil {
			log.Error().Err(err).Msg("failed to save new user config to disk")
			return defaultConfig, err
		}

		return defaultConfig, nil
	}

	err = defaultConfig.LoadConfig()
	if err != nil {
		log.Error().Err(err).Msg("failed to load user config")
		return defaultConfig, err
	}

	return defaultConfig, nil
}
