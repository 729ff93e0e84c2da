package service

import (
	"os"
	"strconv"

	"github.com/libp2p/zeroconf/v2"
	"github.com/podcastr/podcastr/pkg/config"
	"github.com/rs/zerolog/log"
)

// advertise registers the API on the local network over mDNS so clients
// can find the daemon without knowing its address.
func advertise(port string) (func(), error) {
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, err
	}

	instance, err := os.Hostname()
	if err != nil || instance == "" {
		instance = config.AppName
	}

	server, err := zeroconf.Register(
		instance,
		config.ServiceType,
		"local.",
		p,
		[]string{"version=" + config.Version, "path=/"},
		nil,
	)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("instance", instance).
		Str("service", config.ServiceType).
		Int("port", p).
		Msg("advertising service")

	return server.Shutdown, nil
}
