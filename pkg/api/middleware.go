package api

import (
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gobwas/glob"
	"github.com/podcastr/podcastr/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// https://github.com/ironstar-io/chizerolog/blob/master/main.go
func LoggerMiddleware(logger *zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			log := logger.With().Logger()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			t1 := time.Now()
			defer func() {
				t2 := time.Now()

				if rec := recover(); rec != nil {
					log.Error().
						Str("type", "error").
						Timestamp().
						Interface("recover_info", rec).
						Bytes("debug_stack", debug.Stack()).
						Msg("log system error")
					http.Error(ww, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}

				log.Debug().
					Str("type", "access").
					Timestamp().
					Fields(map[string]interface{}{
						"remote_ip":  r.RemoteAddr,
						"url":        r.URL.Path,
						"method":     r.Method,
						"user_agent": r.Header.Get("User-Agent"),
						"status":     ww.Status(),
						"latency_ms": float64(t2.Sub(t1).Nanoseconds()) / 1000000.0,
						"bytes_out":  ww.BytesWritten(),
					}).
					Msg("incoming_request")
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

type originGlobs struct {
	cfg   *config.UserConfig
	mu    sync.RWMutex
	cache map[string]glob.Glob // nil for invalid patterns
}

func (o *originGlobs) compile(pattern string) glob.Glob {
	o.mu.RLock()
	g, ok := o.cache[pattern]
	o.mu.RUnlock()
	if ok {
		return g
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		log.Warn().Err(err).Str("pattern", pattern).Msg("invalid allow_origin pattern")
		g = nil
	}

	o.mu.Lock()
	o.cache[pattern] = g
	o.mu.Unlock()

	return g
}

func (o *originGlobs) allowed(origin string) bool {
	patterns := o.cfg.GetAllowOrigin()
	if len(patterns) == 0 {
		return true
	}

	for _, p := range patterns {
		g := o.compile(p)
		if g != nil && g.Match(origin) {
			return true
		}
	}

	log.Debug().Str("origin", origin).Msg("origin not allowed")
	return false
}

func newOriginGlobs(cfg *config.UserConfig) *originGlobs {
	return &originGlobs{
		cfg:   cfg,
		cache: make(map[string]glob.Glob),
	}
}

// originMatcher checks request origins against the allow_origin glob
// patterns in the config. Patterns are read on every call so config
// reloads apply without a restart, and each one is only compiled once.
// An empty list allows everything.
func originMatcher(cfg *config.UserConfig) func(origin string) bool {
	return newOriginGlobs(cfg).allowed
}
