package methods

import (
	"encoding/json"

	"github.com/podcastr/podcastr/pkg/api/models"
	"github.com/podcastr/podcastr/pkg/api/models/requests"
	"github.com/podcastr/podcastr/pkg/config"
	"github.com/rs/zerolog/log"
)

func HandleEpisode(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received episode request")

	if len(env.Params) == 0 {
		return nil, ErrMissingParams
	}

	var params models.EpisodeParams
	err := json.Unmarshal(env.Params, &params)
	if err != nil || params.Id == "" {
		return nil, ErrInvalidParams
	}

	d, err := env.Episodes.Get(env.Context, params.Id)
	if err != nil {
		return nil, err
	}

	return models.EpisodeResponse{Details: d}, nil
}

func HandleEpisodesLatest(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received latest episodes request")

	limit := env.Config.GetLatestLimit()

	if len(env.Params) > 0 {
		var params models.LatestParams
		err := json.Unmarshal(env.Params, &params)
		if err != nil {
			return nil, ErrInvalidParams
		}
		if params.Limit != nil {
			limit = *params.Limit
		}
	}

	if limit <= 0 || limit > config.MaxPrerender {
		return nil, ErrInvalidParams
	}

	ds, err := env.Episodes.Latest(env.Context, limit)
	if err != nil {
		return nil, err
	}

	return models.EpisodesResponse{Episodes: ds}, nil
}
