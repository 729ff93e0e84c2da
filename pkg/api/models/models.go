package models

import (
	"github.com/google/uuid"
)

const (
	MethodPlayer         = "player"
	MethodPlay           = "player.play"
	MethodPlayList       = "player.playList"
	MethodNext           = "player.next"
	MethodPrevious       = "player.previous"
	MethodToggleLoop     = "player.toggleLoop"
	MethodTogglePlay     = "player.togglePlay"
	MethodToggleShuffle  = "player.toggleShuffle"
	MethodSetPlaying     = "player.setPlaying"
	MethodEnded          = "player.ended"
	MethodClear          = "player.clear"
	MethodEpisode        = "episodes.get"
	MethodEpisodesLatest = "episodes.latest"
	MethodHistory        = "history"
	MethodSettings       = "settings"
	MethodSettingsUpdate = "settings.update"
	MethodVersion        = "version"
)

type RequestObject struct {
	JsonRpc string     `json:"jsonrpc"`
	Id      *uuid.UUID `json:"id,omitempty"` // no id means notification
	Method  string     `json:"method"`
	Params  any        `json:"params,omitempty"`
}

type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ResponseObject struct {
	JsonRpc string       `json:"jsonrpc"`
	Id      uuid.UUID    `json:"id"`
	Result  any          `json:"result,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
}
