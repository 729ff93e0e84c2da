package methods

import (
	"encoding/json"
	"time"

	"github.com/podcastr/podcastr/pkg/api/models"
	"github.com/podcastr/podcastr/pkg/api/models/requests"
	"github.com/podcastr/podcastr/pkg/config"
	"github.com/rs/zerolog/log"
)

func HandleSettings(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received settings request")

	resp := models.SettingsResponse{
		ApiUrl:      env.Config.GetApiUrl(),
		CacheTtl:    int(env.Config.GetCacheTtl() / time.Second),
		Prerender:   env.Config.GetPrerender(),
		Port:        env.Config.GetApiPort(),
		AllowOrigin: make([]string, 0),
		Advertise:   env.Config.GetAdvertise(),
		Debug:       env.Config.GetDebug(),
	}

	resp.AllowOrigin = append(resp.AllowOrigin, env.Config.GetAllowOrigin()...)

	return resp, nil
}

func HandleSettingsUpdate(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received settings update request")

	if len(env.Params) == 0 {
		return nil, ErrMissingParams
	}

	var params models.UpdateSettingsParams
	err := json.Unmarshal(env.Params, &params)
	if err != nil {
		return nil, ErrInvalidParams
	}

	if params.ApiUrl != nil {
		log.Info().Str("apiUrl", *params.ApiUrl).Msg("updating api url")
		env.Config.SetApiUrl(*params.ApiUrl)
	}

	if params.CacheTtl != nil {
		if *params.CacheTtl <= 0 {
			return nil, ErrInvalidParams
		}
		log.Info().Int("cacheTtl", *params.CacheTtl).Msg("updating cache ttl")
		env.Config.SetCacheTtl(time.Duration(*params.CacheTtl) * time.Second)
	}

	if params.Prerender != nil {
		if *params.Prerender < 0 || *params.Prerender > config.MaxPrerender {
			return nil, ErrInvalidParams
		}
		log.Info().Int("prerender", *params.Prerender).Msg("updating prerender")
		env.Config.SetPrerender(*params.Prerender)
	}

	if params.AllowOrigin != nil {
		log.Info().Strs("allowOrigin", *params.AllowOrigin).Msg("updating allow origin")
		env.Config.SetAllowOrigin(*params.AllowOrigin)
	}

	if params.Advertise != nil {
		log.Info().Bool("advertise", *params.Advertise).Msg("updating advertise")
		env.Config.SetAdvertise(*params.Advertise)
	}

	if params.Debug != nil {
		log.Info().Bool("debug", *params.Debug).Msg("updating debug")
		env.Config.SetDebug(*params.Debug)
	}

	return nil, env.Config.SaveConfig()
}

func HandleVersion(_ requests.RequestEnv) (any, error) {
	log.Info().Msg("received version request")
	return models.VersionResponse{
		Version: config.Version,
	}, nil
}
