package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/olahol/melody"
	"github.com/podcastr/podcastr/pkg/api/methods"
	"github.com/podcastr/podcastr/pkg/api/models"
	"github.com/podcastr/podcastr/pkg/api/models/requests"
	"github.com/podcastr/podcastr/pkg/config"
	"github.com/podcastr/podcastr/pkg/database"
	"github.com/podcastr/podcastr/pkg/episodes"
	"github.com/podcastr/podcastr/pkg/player"
	"github.com/rs/zerolog/log"
)

const (
	RequestTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

var methodMap = map[string]func(requests.RequestEnv) (any, error){
	// player
	models.MethodPlayer:        methods.HandlePlayer,
	models.MethodPlay:          methods.HandlePlay,
	models.MethodPlayList:      methods.HandlePlayList,
	models.MethodNext:          methods.HandleNext,
	models.MethodPrevious:      methods.HandlePrevious,
	models.MethodToggleLoop:    methods.HandleToggleLoop,
	models.MethodTogglePlay:    methods.HandleTogglePlay,
	models.MethodToggleShuffle: methods.HandleToggleShuffle,
	models.MethodSetPlaying:    methods.HandleSetPlaying,
	models.MethodEnded:         methods.HandleEnded,
	models.MethodClear:         methods.HandleClear,
	// episodes
	models.MethodEpisode:        methods.HandleEpisode,
	models.MethodEpisodesLatest: methods.HandleEpisodesLatest,
	// history
	models.MethodHistory: methods.HandleHistory,
	// settings
	models.MethodSettings:       methods.HandleSettings,
	models.MethodSettingsUpdate: methods.HandleSettingsUpdate,
	// utils
	models.MethodVersion: methods.HandleVersion,
}

func handleRequest(env requests.RequestEnv, req models.RequestObject) (any, error) {
	log.Debug().Interface("request", req).Msg("received request")

	fn, ok := methodMap[req.Method]
	if !ok {
		return nil, errors.New("unknown method")
	}

	if req.Id == nil {
		return nil, errors.New("missing request id")
	}

	var params []byte
	if req.Params != nil {
		var err error
		// double unmarshal to use json decode on params later
		params, err = json.Marshal(req.Params)
		if err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
	defer cancel()

	env.Context = ctx
	env.Id = *req.Id
	env.Params = params

	return fn(env)
}

func sendResponse(s *melody.Session, id uuid.UUID, result any) error {
	log.Debug().Interface("result", result).Msg("sending response")

	resp := models.ResponseObject{
		JsonRpc: "2.0",
		Id:      id,
		Result:  result,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return s.Write(data)
}

func sendError(s *melody.Session, id uuid.UUID, code int, message string) error {
	log.Debug().Int("code", code).Str("message", message).Msg("sending error")

	resp := models.ResponseObject{
		JsonRpc: "2.0",
		Id:      id,
		Error: &models.ErrorObject{
			Code:    code,
			Message: message,
		},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return s.Write(data)
}

func handleMessage(env requests.RequestEnv) func(*melody.Session, []byte) {
	return func(s *melody.Session, msg []byte) {
		// ping command for heartbeat operation
		if bytes.Equal(msg, []byte("ping")) {
			err := s.Write([]byte("pong"))
			if err != nil {
				log.Error().Err(err).Msg("sending pong")
			} else {
				log.Debug().Msg("sent pong")
			}
			return
		}

		if !json.Valid(msg) {
			log.Error().Msg("data not valid json")
			return
		}

		var req models.RequestObject
		err := json.Unmarshal(msg, &req)
		if err != nil {
			log.Error().Err(err).Msg("message does not match known types")
			return
		}

		if req.JsonRpc != "2.0" {
			log.Error().Str("jsonrpc", req.JsonRpc).Msg("unsupported payload version")
			return
		}

		if req.Method == "" {
			log.Debug().Msg("received response, ignoring")
			return
		}

		if req.Id == nil {
			log.Info().Interface("req", req).Msg("received notification, ignoring")
			return
		}

		resp, err := handleRequest(env, req)
		if err != nil {
			err := sendError(s, *req.Id, 1, err.Error())
			if err != nil {
				log.Error().Err(err).Msg("error sending error response")
			}
			return
		}

		err = sendResponse(s, *req.Id, resp)
		if err != nil {
			log.Error().Err(err).Msg("error sending response")
		}
	}
}

// broadcastNotifications forwards player notifications to every connected
// websocket session until ns is closed or done is.
func broadcastNotifications(
	m *melody.Melody,
	ns <-chan player.Notification,
	done <-chan struct{},
) {
	for {
		select {
		case n, ok := <-ns:
			if !ok {
				return
			}

			ro := models.RequestObject{
				JsonRpc: "2.0",
				Method:  n.Method,
				Params:  n.Params,
			}

			data, err := json.Marshal(ro)
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification request")
				continue
			}

			err = m.Broadcast(data)
			if err != nil {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		case <-done:
			return
		}
	}
}

func newRouter(env requests.RequestEnv, m *melody.Melody) chi.Router {
	r := chi.NewRouter()

	allowed := originMatcher(env.Config)

	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(&log.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return allowed(origin)
		},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{},
	}))

	m.Upgrader.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// non-browser clients don't send an origin
		return origin == "" || allowed(origin)
	}
	m.HandleMessage(handleMessage(env))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		err := m.HandleRequest(w, r)
		if err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(middleware.Timeout(RequestTimeout))

		r.Get("/player", handlePlayer(env))
		r.Get("/episodes", handleEpisodePaths(env))
		r.Get("/episodes/{slug}", handleEpisode(env))
		r.Post("/episodes/{slug}/play", handlePlayEpisode(env))
		r.Get("/history", handleHistory(env))
		r.Get("/history.csv", handleHistoryCsv(env))
	})

	return r
}

// Start runs the API server in the background and returns a function which
// shuts it down. Player notifications received on ns are broadcast to all
// websocket sessions.
func Start(
	cfg *config.UserConfig,
	st *player.State,
	lookup *episodes.Lookup,
	db *database.Database,
	ns <-chan player.Notification,
) (func() error, error) {
	env := requests.RequestEnv{
		Config:   cfg,
		Player:   st,
		Episodes: lookup,
		Database: db,
	}

	m := melody.New()
	r := newRouter(env, m)

	l, err := net.Listen("tcp", ":"+cfg.GetApiPort())
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go broadcastNotifications(m, ns, done)

	go func() {
		log.Info().Str("addr", l.Addr().String()).Msg("starting api server")
		err := srv.Serve(l)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("error starting http server")
		}
	}()

	return func() error {
		close(done)

		err := m.Close()
		if err != nil {
			log.Warn().Err(err).Msg("error closing websocket sessions")
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(ctx)
	}, nil
}
