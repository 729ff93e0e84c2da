package models

import "github.com/podcastr/podcastr/pkg/player"

// PlayParams plays either an episode from the episodes API by id or an
// episode given inline.
type PlayParams struct {
	Id      *string         `json:"id"`
	Episode *player.Episode `json:"episode"`
}

// PlayListParams queues either episode ids or inline episodes. Ids take
// precedence if both are set.
type PlayListParams struct {
	Ids      []string         `json:"ids"`
	Episodes []player.Episode `json:"episodes"`
	Index    int              `json:"index"`
}

type SetPlayingParams struct {
	Playing bool `json:"playing"`
}

type EpisodeParams struct {
	Id string `json:"id"`
}

type LatestParams struct {
	Limit *int `json:"limit"`
}

type HistoryParams struct {
	MaxResults *int `json:"maxResults"`
}

type UpdateSettingsParams struct {
	ApiUrl      *string   `json:"apiUrl"`
	CacheTtl    *int      `json:"cacheTtl"`
	Prerender   *int      `json:"prerender"`
	AllowOrigin *[]string `json:"allowOrigin"`
	Advertise   *bool     `json:"advertise"`
	Debug       *bool     `json:"debug"`
}
