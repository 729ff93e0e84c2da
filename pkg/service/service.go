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

package service

import (
	"context"
	"time"

	"github.com/podcastr/podcastr/pkg/api"
	"github.com/podcastr/podcastr/pkg/config"
	"github.com/podcastr/podcastr/pkg/database"
	"github.com/podcastr/podcastr/pkg/episodes"
	"github.com/podcastr/podcastr/pkg/player"
	"github.com/rs/zerolog/log"
)

// notifications are dropped by the player if this fills up
const notificationBuffer = 100

const prerenderTimeout = 2 * time.Minute

func prerender(ctx context.Context, lookup *episodes.Lookup, limit int) {
	if limit <= 0 {
		log.Debug().Msg("prerender disabled")
		return
	} else if limit > config.MaxPrerender {
		limit = config.MaxPrerender
	}

	ctx, cancel := context.WithTimeout(ctx, prerenderTimeout)
	defer cancel()

	ids, err := lookup.Prerender(ctx, limit)
	if err != nil {
		log.Warn().Err(err).Msg("error prerendering latest episodes")
		return
	}

	log.Debug().Int("count", len(ids)).Msg("prerender finished")
}

func Start(cfg *config.UserConfig) (func() error, error) {
	log.Info().Msgf("Podcastr v%s", config.Version)
	log.Info().Msgf("config path = %s", cfg.IniPath)
	log.Info().Msgf("data path = %s", cfg.DataDir)
	log.Info().Msgf("api_url = %s", cfg.GetApiUrl())
	log.Info().Msgf("cache_ttl = %s", cfg.GetCacheTtl())
	log.Info().Msgf("prerender = %d", cfg.GetPrerender())
	log.Info().Msgf("port = %s", cfg.GetApiPort())
	log.Info().Msgf("allow_origin = %s", cfg.GetAllowOrigin())
	log.Info().Msgf("advertise = %t", cfg.GetAdvertise())
	log.Info().Msgf("debug = %t", cfg.GetDebug())

	log.Debug().Msg("opening database")
	db, err := database.Open(cfg.DataDir)
	if err != nil {
		log.Error().Err(err).Msgf("error opening database")
		return nil, err
	}

	ns := make(chan player.Notification, notificationBuffer)
	st := player.NewState(player.WithNotifications(ns))

	client := episodes.NewClient(cfg.GetApiUrl)
	lookup := episodes.NewLookup(client, db, cfg.GetCacheTtl)

	stopApi, err := api.Start(cfg, st, lookup, db, ns)
	if err != nil {
		log.Error().Err(err).Msg("error starting api server")
		_ = db.Close()
		return nil, err
	}

	stopWatcher, err := config.StartWatcher(cfg, func(c *config.UserConfig) {
		// reapply the log level, the rest is read on demand
		c.SetDebug(c.GetDebug())
	})
	if err != nil {
		log.Warn().Err(err).Msg("error starting config watcher, changes need a restart")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go prerender(ctx, lookup, cfg.GetPrerender())

	var stopAdvertise func()
	if cfg.GetAdvertise() {
		stopAdvertise, err = advertise(cfg.GetApiPort())
		if err != nil {
			log.Warn().Err(err).Msg("error advertising service")
		}
	}

	return func() error {
		cancel()

		if stopAdvertise != nil {
			stopAdvertise()
		}

		if stopWatcher != nil {
			err := stopWatcher()
			if err != nil {
				log.Warn().Err(err).Msg("error stopping config watcher")
			}
		}

		err := stopApi()
		if err != nil {
			log.Warn().Err(err).Msg("error stopping api server")
		}

		lookup.Wait()

		return db.Close()
	}, nil
}
