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

	"github.com/podcastr/podcastr/pkg/cli"
	"github.com/podcastr/podcastr/pkg/config"
)

func printAddress(cfg *config.UserConfig) {
	addr, err := cli.LocalPlayerAddress(cfg)
	if err != nil {
		fmt.Println("Player address: Unknown")
	} else {
		fmt.Println("Player address:", addr)
	}
}
