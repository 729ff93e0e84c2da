package methods

import (
	"encoding/json"
	"fmt"

	"github.com/podcastr/podcastr/pkg/api/models"
	"github.com/podcastr/podcastr/pkg/api/models/requests"
	"github.com/podcastr/podcastr/pkg/player"
	"github.com/rs/zerolog/log"
)

func HandlePlayer(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received player request")
	return models.NewPlayerResponse(env.Player.Snapshot()), nil
}

func HandlePlay(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received play request")

	if len(env.Params) == 0 {
		return nil, ErrMissingParams
	}

	var params models.PlayParams
	err := json.Unmarshal(env.Params, &params)
	if err != nil {
		return nil, ErrInvalidParams
	}

	var episode player.Episode
	if params.Id != nil {
		d, err := env.Episodes.Get(env.Context, *params.Id)
		if err != nil {
			log.Error().Err(err).Str("id", *params.Id).Msg("error looking up episode")
			return nil, fmt.Errorf("error looking up episode: %w", err)
		}
		episode = d.Episode()
	} else if params.Episode != nil {
		episode = *params.Episode
	} else {
		return nil, ErrInvalidParams
	}

	snap := env.Player.Play(episode)
	recordHistory(env, snap)

	return models.NewPlayerResponse(snap), nil
}

func HandlePlayList(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received play list request")

	if len(env.Params) == 0 {
		return nil, ErrMissingParams
	}

	var params models.PlayListParams
	err := json.Unmarshal(env.Params, &params)
	if err != nil {
		return nil, ErrInvalidParams
	}

	list := params.Episodes
	if len(params.Ids) > 0 {
		list = make([]player.Episode, 0, len(params.Ids))
		for _, id := range params.Ids {
			d, err := env.Episodes.Get(env.Context, id)
			if err != nil {
				log.Error().Err(err).Str("id", id).Msg("error looking up episode")
				return nil, fmt.Errorf("error looking up episode %s: %w", id, err)
			}
			list = append(list, d.Episode())
		}
	}

	snap, err := env.Player.PlayList(list, params.Index)
	if err != nil {
		return nil, err
	}
	recordHistory(env, snap)

	return models.NewPlayerResponse(snap), nil
}

func HandleNext(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received next request")
	return move(env, player.StepNext), nil
}

func HandlePrevious(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received previous request")
	return move(env, player.StepPrevious), nil
}

func HandleEnded(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received ended request")
	return move(env, player.StepEnded), nil
}

func HandleToggleLoop(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received toggle loop request")
	return models.NewPlayerResponse(env.Player.ToggleLoop()), nil
}

func HandleTogglePlay(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received toggle play request")
	return models.NewPlayerResponse(env.Player.TogglePlay()), nil
}

func HandleToggleShuffle(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received toggle shuffle request")
	return models.NewPlayerResponse(env.Player.ToggleShuffle()), nil
}

func HandleSetPlaying(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received set playing request")

	if len(env.Params) == 0 {
		return nil, ErrMissingParams
	}

	var params models.SetPlayingParams
	err := json.Unmarshal(env.Params, &params)
	if err != nil {
		return nil, ErrInvalidParams
	}

	return models.NewPlayerResponse(env.Player.SetPlayingState(params.Playing)), nil
}

func HandleClear(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received clear request")
	return models.NewPlayerResponse(env.Player.ClearPlayerState()), nil
}
