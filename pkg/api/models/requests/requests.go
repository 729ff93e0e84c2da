package requests

import (
	"context"

	"github.com/google/uuid"
	"github.com/podcastr/podcastr/pkg/config"
	"github.com/podcastr/podcastr/pkg/database"
	"github.com/podcastr/podcastr/pkg/episodes"
	"github.com/podcastr/podcastr/pkg/player"
)

type RequestEnv struct {
	Context  context.Context
	Config   *config.UserConfig
	Player   *player.State
	Episodes *episodes.Lookup
	Database *database.Database
	Id       uuid.UUID
	Params   []byte
}
