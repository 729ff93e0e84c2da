package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gocarina/gocsv"
	"github.com/podcastr/podcastr/pkg/api/methods"
	"github.com/podcastr/podcastr/pkg/api/models"
	"github.com/podcastr/podcastr/pkg/api/models/requests"
	"github.com/podcastr/podcastr/pkg/episodes"
	"github.com/podcastr/podcastr/pkg/player"
	"github.com/rs/zerolog/log"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, episodes.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, methods.ErrMissingParams),
		errors.Is(err, methods.ErrInvalidParams),
		errors.Is(err, player.ErrIndexOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// restEnv returns a copy of env for a single REST request.
func restEnv(env requests.RequestEnv, r *http.Request, params any) (requests.RequestEnv, error) {
	env.Context = r.Context()
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return env, err
		}
		env.Params = data
	}
	return env, nil
}

func handlePlayer(env requests.RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := models.NewPlayerResponse(env.Player.Snapshot())

		err := render.Render(w, r, &resp)
		if err != nil {
			log.Error().Err(err).Msg("error encoding player response")
		}
	}
}

func handleEpisodePaths(env requests.RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info().Msg("received episode paths request")

		ds, err := env.Episodes.Latest(r.Context(), env.Config.GetLatestLimit())
		if err != nil {
			log.Error().Err(err).Msg("error getting latest episodes")
			http.Error(w, err.Error(), errorStatus(err))
			return
		}

		resp := models.PathsResponse{Ids: make([]string, 0, len(ds))}
		for _, d := range ds {
			resp.Ids = append(resp.Ids, d.ID)
		}

		err = render.Render(w, r, &resp)
		if err != nil {
			log.Error().Err(err).Msg("error encoding paths response")
		}
	}
}

func handleEpisode(env requests.RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := restEnv(env, r, models.EpisodeParams{Id: chi.URLParam(r, "slug")})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		res, err := methods.HandleEpisode(env)
		if err != nil {
			http.Error(w, err.Error(), errorStatus(err))
			return
		}

		resp := res.(models.EpisodeResponse)
		err = render.Render(w, r, &resp)
		if err != nil {
			log.Error().Err(err).Msg("error encoding episode response")
		}
	}
}

func handlePlayEpisode(env requests.RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		env, err := restEnv(env, r, models.PlayParams{Id: &slug})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		res, err := methods.HandlePlay(env)
		if err != nil {
			http.Error(w, err.Error(), errorStatus(err))
			return
		}

		resp := res.(models.PlayerResponse)
		err = render.Render(w, r, &resp)
		if err != nil {
			log.Error().Err(err).Msg("error encoding player response")
		}
	}
}

func handleHistory(env requests.RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := restEnv(env, r, nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		res, err := methods.HandleHistory(env)
		if err != nil {
			http.Error(w, err.Error(), errorStatus(err))
			return
		}

		resp := res.(models.HistoryResponse)
		err = render.Render(w, r, &resp)
		if err != nil {
			log.Error().Err(err).Msg("error encoding history response")
		}
	}
}

func handleHistoryCsv(env requests.RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info().Msg("received history export request")

		entries, err := env.Database.GetHistory(0)
		if err != nil {
			log.Error().Err(err).Msgf("error getting history")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="history.csv"`)

		err = gocsv.Marshal(entries, w)
		if err != nil {
			log.Error().Err(err).Msg("error encoding history csv")
		}
	}
}
