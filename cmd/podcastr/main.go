//go:build linux || darwin

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
	"flag"
	"fmt"
	"os"

	"github.com/podcastr/podcastr/pkg/cli"
	"github.com/podcastr/podcastr/pkg/config"
	"github.com/podcastr/podcastr/pkg/service"
	"github.com/podcastr/podcastr/pkg/utils"
	"github.com/rs/zerolog/log"
)

func main() {
	flags := cli.SetupFlags()
	serviceFlag := flag.String(
		"service",
		"",
		"manage Podcastr service (start|stop|restart|status)",
	)
	foreground := flag.Bool(
		"foreground",
		false,
		"run the service in this process until Enter is pressed",
	)
	flags.Pre()

	cfg := cli.Setup(config.NewDefaults())

	svc := utils.NewService(utils.ServiceArgs{
		Entry: func() (func() error, error) {
			return service.Start(cfg)
		},
		DataDir: cfg.DataDir,
	})
	svc.ServiceHandler(serviceFlag)
	flags.Post(cfg)

	if *foreground {
		if svc.Running() {
			fmt.Println("Service is already running in the background.")
			os.Exit(1)
		}

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

	if !svc.Running() {
		err := svc.Start()
		fmt.Println("Service not running, starting...")
		if err != nil {
			log.Error().Err(err).Msg("error starting service")
			fmt.Println("Error starting service:", err)
		} else {
			log.Info().Msg("service started manually")
			fmt.Println("Service started.")
		}
	} else {
		fmt.Println("Service is running.")
	}

	printAddress(cfg)

	os.Exit(0)
}
