package methods

import (
	"errors"
	"time"

	"github.com/podcastr/podcastr/pkg/api/models"
	"github.com/podcastr/podcastr/pkg/api/models/requests"
	"github.com/podcastr/podcastr/pkg/database"
	"github.com/podcastr/podcastr/pkg/player"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingParams = errors.New("missing params")
	ErrInvalidParams = errors.New("invalid params")
)

// recordHistory adds the current episode of snap to the play history.
func recordHistory(env requests.RequestEnv, snap player.Snapshot) {
	e, ok := snap.Current()
	if !ok || env.Database == nil {
		return
	}

	err := env.Database.AddHistory(database.HistoryEntry{
		Time:      time.Now(),
		EpisodeID: e.ID,
		Title:     e.Title,
		URL:       e.URL,
	})
	if err != nil {
		log.Error().Err(err).Msg("error adding history")
	}
}

// move applies a cursor step, recording history if it changed the
// current episode.
func move(env requests.RequestEnv, step player.Step) models.PlayerResponse {
	snap, changed := env.Player.Move(step)
	if changed {
		recordHistory(env, snap)
	}
	return models.NewPlayerResponse(snap)
}
