package cli

import (
	"bytes"
	"net"
	"strings"
	"testing"

	"github.com/podcastr/podcastr/pkg/api/models"
	"github.com/podcastr/podcastr/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApiArgs(t *testing.T) {
	tests := map[string]struct {
		arg    string
		method string
		params string
	}{
		"method only": {arg: "player", method: "player"},
		"with params": {arg: `player.play:{"id":"x"}`, method: "player.play", params: `{"id":"x"}`},
		"colon in params": {
			arg:    `player.play:{"episode":{"url":"https://cdn.local/a.m4a"}}`,
			method: "player.play",
			params: `{"episode":{"url":"https://cdn.local/a.m4a"}}`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			method, params := apiArgs(tt.arg)
			assert.Equal(t, tt.method, method)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestToggleMethod(t *testing.T) {
	tests := map[string]struct {
		name string
		want string
		err  error
	}{
		"play":    {name: "play", want: models.MethodTogglePlay},
		"loop":    {name: "LOOP", want: models.MethodToggleLoop},
		"shuffle": {name: "shuffle", want: models.MethodToggleShuffle},
		"unknown": {name: "repeat", err: ErrUnknownToggle},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := toggleMethod(tt.name)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlayerAddress(t *testing.T) {
	tests := map[string]struct {
		ip   string
		port string
		want string
	}{
		"ipv4": {ip: "192.168.1.10", port: "7373", want: "http://192.168.1.10:7373/api/v1/player"},
		"ipv6": {ip: "fe80::1", port: "8080", want: "http://[fe80::1]:8080/api/v1/player"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlayerAddress(net.ParseIP(tt.ip), tt.port))
		})
	}
}

func TestLocalPlayerAddress(t *testing.T) {
	cfg := config.NewDefaults()
	cfg.Api.Port = "7474"

	addr, err := LocalPlayerAddress(cfg)
	if err != nil {
		t.Skipf("no local network: %v", err)
	}

	assert.True(t, strings.HasPrefix(addr, "http://"))
	assert.True(t, strings.HasSuffix(addr, ":7474/api/v1/player"))
}

func TestPrintPlayer(t *testing.T) {
	tests := map[string]struct {
		resp string
		want string
	}{
		"empty": {
			resp: `{"episodeList":[],"currentIndex":0,"isPlaying":false}`,
			want: "Nothing queued\n",
		},
		"playing": {
			resp: `{"episodeList":[{"title":"A"},{"title":"B"}],"currentIndex":1,"isPlaying":true,` +
				`"currentEpisode":{"title":"B"}}`,
			want: "Playing: B (2/2)\n",
		},
		"paused with flags": {
			resp: `{"episodeList":[{"title":"A"}],"currentIndex":0,"isLooping":true,"isShuffling":true,` +
				`"currentEpisode":{"title":"A"}}`,
			want: "Paused: A (1/1) [loop, shuffle]\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, printPlayer(&buf, tt.resp))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
