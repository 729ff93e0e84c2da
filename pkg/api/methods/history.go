package methods

import (
	"encoding/json"
	"errors"

	"github.com/podcastr/podcastr/pkg/api/models"
	"github.com/podcastr/podcastr/pkg/api/models/requests"
	"github.com/rs/zerolog/log"
)

const DefaultHistoryResults = 25

func HandleHistory(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received history request")

	maxResults := DefaultHistoryResults
	if len(env.Params) > 0 {
		var params models.HistoryParams
		err := json.Unmarshal(env.Params, &params)
		if err != nil {
			return nil, ErrInvalidParams
		}
		if params.MaxResults != nil {
			maxResults = *params.MaxResults
		}
	}

	entries, err := env.Database.GetHistory(maxResults)
	if err != nil {
		log.Error().Err(err).Msgf("error getting history")
		return nil, errors.New("error getting history")
	}

	resp := models.HistoryResponse{
		Entries: make([]models.HistoryResponseEntry, len(entries)),
	}

	for i, e := range entries {
		resp.Entries[i] = models.HistoryResponseEntry{
			Time:      e.Time,
			EpisodeID: e.EpisodeID,
			Title:     e.Title,
			URL:       e.URL,
		}
	}

	return resp, nil
}
