package config

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	Version          = "1.0.0"
	AppName          = "podcastr"
	DbFilename       = "podcastr.db"
	LogFilename      = "podcastr.log"
	DefaultApiPort   = "7373"
	DefaultApiUrl    = "http://localhost:3333"
	DefaultCacheTtl  = 60 * 60 * 24 // 24 hours
	DefaultPrerender = 2
	MaxPrerender     = 50
	ServiceType      = "_podcastr._tcp"
)

// DataDir returns the folder holding the config, database and log files.
// PODCASTR_DATA overrides the per-user default.
func DataDir() string {
	if dir := os.Getenv(UserDataEnv); dir != "" {
		return dir
	}

	base, err := os.UserConfigDir()
	if err != nil {
		log.Warn().Err(err).Msg("no user config dir, using temp dir")
		base = os.TempDir()
	}

	return filepath.Join(base, AppName)
}
