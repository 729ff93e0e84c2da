package models

import (
	"net/http"
	"time"

	"github.com/podcastr/podcastr/pkg/episodes"
	"github.com/podcastr/podcastr/pkg/player"
)

type PlayerResponse struct {
	player.Snapshot
	CurrentEpisode *player.Episode `json:"currentEpisode"`
}

func (pr *PlayerResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func NewPlayerResponse(snap player.Snapshot) PlayerResponse {
	resp := PlayerResponse{Snapshot: snap}
	if e, ok := snap.Current(); ok {
		resp.CurrentEpisode = &e
	}
	return resp
}

type EpisodeResponse struct {
	episodes.Details
}

func (er *EpisodeResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type EpisodesResponse struct {
	Episodes []episodes.Details `json:"episodes"`
}

func (er *EpisodesResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type PathsResponse struct {
	Ids []string `json:"ids"`
}

func (pr *PathsResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type HistoryResponseEntry struct {
	Time      time.Time `json:"time"`
	EpisodeID string    `json:"episodeId"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
}

type HistoryResponse struct {
	Entries []HistoryResponseEntry `json:"entries"`
}

func (hr *HistoryResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type SettingsResponse struct {
	ApiUrl      string   `json:"apiUrl"`
	CacheTtl    int      `json:"cacheTtl"`
	Prerender   int      `json:"prerender"`
	Port        string   `json:"port"`
	AllowOrigin []string `json:"allowOrigin"`
	Advertise   bool     `json:"advertise"`
	Debug       bool     `json:"debug"`
}

type VersionResponse struct {
	Version string `json:"version"`
}
