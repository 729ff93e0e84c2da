//go:build windows

/*
Podcastr
Copyright (C) 2024 The Podcastr Authors

This file is part of Podcastr.

Podcastr is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Podcastr is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Podcastr.  If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"fmt"
	"os"

	"github.com/podcastr/podcastr/pkg/cli"
	"github.com/podcastr/podcastr/pkg/config"
	"github.com/podcastr/podcastr/pkg/service"
	"github.com/rs/zerolog/log"
)

// No background daemon on Windows, the service runs in this console until
// Enter is pressed.
func main() {
	flags := cli.SetupFlags()
	flags.Pre()

	cfg := cli.Setup(config.NewDefaults())
	flags.Post(cfg)

	fmt.Println("Podcastr v" + config.Version)

	stopSvc, err := service.Start(cfg)
	if err != nil {
		log.Error().Msgf("error starting service: %s", err)
		fmt.Println("Error starting service:", err)
		os.Exit(1)
	}

	printAddress(cfg)
	fmt.Println("Press Enter to exit")
	_, _ = fmt.Scanln()

	err = stopSvc()
	if err != nil {
		log.Error().Msgf("error stopping service: %s", err)
		fmt.Println("Error stopping service:", err)
		os.Exit(1)
	}

	os.Exit(0)
}
