package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/olahol/melody"
	"github.com/podcastr/podcastr/pkg/api/models"
	"github.com/podcastr/podcastr/pkg/api/models/requests"
	"github.com/podcastr/podcastr/pkg/config"
	"github.com/podcastr/podcastr/pkg/database"
	"github.com/podcastr/podcastr/pkg/episodes"
	"github.com/podcastr/podcastr/pkg/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const episodeJSON = `{
	"id": "faladev-30",
	"title": "Faladev #30",
	"members": "Diego, Bruna",
	"published_at": "2021-01-08 16:00:00",
	"thumbnail": "https://cdn.local/30.jpg",
	"description": "<p>Open Source</p>",
	"file": {"url": "https://cdn.local/30.m4a", "type": "audio/x-m4a", "duration": 3981}
}`

type testServer struct {
	srv *httptest.Server
	env requests.RequestEnv
	ns  chan player.Notification

	limits chan string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	limits := make(chan string, 10)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/episodes":
			select {
			case limits <- r.URL.Query().Get("_limit"):
			default:
			}
			_, _ = w.Write([]byte("[" + episodeJSON + "]"))
		case "/episodes/faladev-30":
			_, _ = w.Write([]byte(episodeJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	dir := t.TempDir()
	db, err := database.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.NewDefaults()
	cfg.DataDir = dir
	cfg.IniPath = filepath.Join(dir, "podcastr.ini")
	cfg.SetApiUrl(upstream.URL)

	lookup := episodes.NewLookup(episodes.NewClient(cfg.GetApiUrl), db, cfg.GetCacheTtl)
	t.Cleanup(lookup.Wait)

	ns := make(chan player.Notification, 10)
	env := requests.RequestEnv{
		Config:   cfg,
		Player:   player.NewState(player.WithNotifications(ns)),
		Episodes: lookup,
		Database: db,
	}

	m := melody.New()
	srv := httptest.NewServer(newRouter(env, m))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = m.Close() })

	done := make(chan struct{})
	go broadcastNotifications(m, ns, done)
	t.Cleanup(func() { close(done) })

	return &testServer{srv: srv, env: env, ns: ns, limits: limits}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	u := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/"
	c, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	// round trip a ping so the session is registered
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("ping")))
	_, msg, err := c.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "pong", string(msg))

	return c
}

func call(t *testing.T, c *websocket.Conn, method string, params any) models.ResponseObject {
	t.Helper()

	id := uuid.New()
	require.NoError(t, c.WriteJSON(models.RequestObject{
		JsonRpc: "2.0",
		Id:      &id,
		Method:  method,
		Params:  params,
	}))

	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var resp models.ResponseObject
		require.NoError(t, c.ReadJSON(&resp))
		if resp.Id == id {
			return resp
		}
	}
}

func TestOriginMatcher(t *testing.T) {
	tests := map[string]struct {
		patterns []string
		origin   string
		want     bool
	}{
		"empty allows all":  {patterns: nil, origin: "https://evil.example", want: true},
		"exact match":       {patterns: []string{"http://localhost:3000"}, origin: "http://localhost:3000", want: true},
		"wildcard match":    {patterns: []string{"https://*.podcastr.app"}, origin: "https://web.podcastr.app", want: true},
		"no match":          {patterns: []string{"https://*.podcastr.app"}, origin: "https://evil.example", want: false},
		"invalid skipped":   {patterns: []string{"[", "http://*"}, origin: "http://host", want: true},
		"only invalid fail": {patterns: []string{"["}, origin: "http://host", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := config.NewDefaults()
			cfg.SetAllowOrigin(tt.patterns)
			assert.Equal(t, tt.want, originMatcher(cfg)(tt.origin))
		})
	}
}

func TestOriginGlobsCompileOnce(t *testing.T) {
	cfg := config.NewDefaults()
	cfg.SetAllowOrigin([]string{"https://*.podcastr.app", "["})
	o := newOriginGlobs(cfg)

	assert.True(t, o.allowed("https://web.podcastr.app"))
	require.Len(t, o.cache, 2)
	first := o.cache["https://*.podcastr.app"]
	require.NotNil(t, first)
	assert.Nil(t, o.cache["["])

	for i := 0; i < 5; i++ {
		assert.False(t, o.allowed("https://evil.example"))
	}
	assert.Len(t, o.cache, 2)
	assert.Equal(t, first, o.cache["https://*.podcastr.app"])

	cfg.SetAllowOrigin([]string{"http://localhost:*"})
	assert.True(t, o.allowed("http://localhost:3000"))
	assert.False(t, o.allowed("https://web.podcastr.app"))
	assert.Len(t, o.cache, 3)
}

func TestRestPlayer(t *testing.T) {
	ts := newTestServer(t)
	ts.env.Player.Play(player.Episode{Title: "A", URL: "https://cdn.local/a.m4a"})

	resp, err := http.Get(ts.srv.URL + "/api/v1/player")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.PlayerResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.IsPlaying)
	require.NotNil(t, body.CurrentEpisode)
	assert.Equal(t, "A", body.CurrentEpisode.Title)
}

func TestRestEpisode(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/v1/episodes/faladev-30")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body episodes.Details
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "faladev-30", body.ID)
	assert.Equal(t, "01:06:21", body.DurationAsString)
	assert.Equal(t, "8 jan 21", body.PublishedAt)

	missing, err := http.Get(ts.srv.URL + "/api/v1/episodes/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestRestEpisodePaths(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/v1/episodes")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.PathsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"faladev-30"}, body.Ids)
}

func TestRestEpisodePathsLimit(t *testing.T) {
	tests := map[string]struct {
		prerender int
		want      string
	}{
		"configured": {prerender: 5, want: "5"},
		"zero":       {prerender: 0, want: "2"},
		"negative":   {prerender: -3, want: "2"},
		"too large":  {prerender: 500, want: "50"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.env.Config.SetPrerender(tt.prerender)

			resp, err := http.Get(ts.srv.URL + "/api/v1/episodes")
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			select {
			case got := <-ts.limits:
				assert.Equal(t, tt.want, got)
			case <-time.After(time.Second):
				t.Fatal("upstream was not called")
			}
		})
	}
}

func TestRestPlayEpisodeAndHistory(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.srv.URL+"/api/v1/episodes/faladev-30/play", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	snap := ts.env.Player.Snapshot()
	assert.True(t, snap.IsPlaying)
	e, ok := snap.Current()
	require.True(t, ok)
	assert.Equal(t, "https://cdn.local/30.m4a", e.URL)

	hist, err := http.Get(ts.srv.URL + "/api/v1/history")
	require.NoError(t, err)
	defer hist.Body.Close()

	var body models.HistoryResponse
	require.NoError(t, json.NewDecoder(hist.Body).Decode(&body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "faladev-30", body.Entries[0].EpisodeID)

	export, err := http.Get(ts.srv.URL + "/api/v1/history.csv")
	require.NoError(t, err)
	defer export.Body.Close()
	assert.Contains(t, export.Header.Get("Content-Type"), "text/csv")

	data, err := io.ReadAll(export.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "time,episode_id,title,url", lines[0])
	assert.Contains(t, lines[1], "faladev-30")
}

func TestWebsocketCall(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t)

	resp := call(t, c, models.MethodPlayList, map[string]any{
		"episodes": []player.Episode{{Title: "A"}, {Title: "B"}},
		"index":    0,
	})
	require.Nil(t, resp.Error)

	resp = call(t, c, models.MethodNext, nil)
	require.Nil(t, resp.Error)
	assert.Equal(t, 1, ts.env.Player.Snapshot().CurrentIndex)

	resp = call(t, c, "player.unknown", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, 1, resp.Error.Code)
	assert.Equal(t, "unknown method", resp.Error.Message)

	resp = call(t, c, models.MethodPlayList, map[string]any{
		"episodes": []player.Episode{{Title: "A"}},
		"index":    5,
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, player.ErrIndexOutOfRange.Error(), resp.Error.Message)
}

func TestNotificationsBroadcast(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t)
	listener := ts.dial(t)

	resp := call(t, c, models.MethodToggleShuffle, nil)
	require.Nil(t, resp.Error)

	require.NoError(t, listener.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := listener.ReadMessage()
	require.NoError(t, err)

	var n struct {
		JsonRpc string          `json:"jsonrpc"`
		Id      *uuid.UUID      `json:"id"`
		Method  string          `json:"method"`
		Params  player.Snapshot `json:"params"`
	}
	require.NoError(t, json.Unmarshal(msg, &n), fmt.Sprintf("message: %s", msg))
	assert.Equal(t, "2.0", n.JsonRpc)
	assert.Nil(t, n.Id)
	assert.Equal(t, player.NotificationChanged, n.Method)
	assert.True(t, n.Params.IsShuffling)
}
