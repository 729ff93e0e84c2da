//go:build mage

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
	"path/filepath"
	"runtime"

	_ "github.com/joho/godotenv/autoload"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var (
	cwd, _         = os.Getwd()
	binDir         = filepath.Join(cwd, "_bin")
	binReleasesDir = filepath.Join(binDir, "releases")
	appPath        = filepath.Join(cwd, "cmd", "podcastr")
	upxBin         = os.Getenv("UPX_BIN")
)

type target struct {
	goos   string
	goarch string
	goarm  string
}

func (t target) platform() string {
	return t.goos + "_" + t.goarch
}

func (t target) bin() string {
	if t.goos == "windows" {
		return "podcastr.exe"
	}
	return "podcastr"
}

var targets = []target{
	{goos: "linux", goarch: "amd64"},
	{goos: "linux", goarch: "arm64"},
	{goos: "linux", goarch: "arm", goarm: "7"},
	{goos: "darwin", goarch: "arm64"},
	{goos: "windows", goarch: "amd64"},
}

func getTarget(platform string) *target {
	for _, t := range targets {
		if t.platform() == platform {
			return &t
		}
	}
	return nil
}

func cleanPlatform(name string) {
	_ = sh.Rm(filepath.Join(binDir, name))
}

func Clean() {
	_ = sh.Rm(binDir)
}

func buildTarget(t target, out string) error {
	env := map[string]string{
		"CGO_ENABLED": "0",
		"GOOS":        t.goos,
		"GOARCH":      t.goarch,
	}
	if t.goarm != "" {
		env["GOARM"] = t.goarm
	}
	return sh.RunWithV(env, "go", "build", "-trimpath", "-ldflags", "-s -w", "-o", out, appPath)
}

// Build builds the daemon for a platform such as linux_arm64, "all" for
// every release platform or "native" for the host.
func Build(platform string) {
	if platform == "native" {
		platform = runtime.GOOS + "_" + runtime.GOARCH
		t := target{goos: runtime.GOOS, goarch: runtime.GOARCH}
		mg.Deps(func() { cleanPlatform(platform) })
		err := buildTarget(t, filepath.Join(binDir, platform, t.bin()))
		if err != nil {
			fmt.Println("Error building", platform, err)
			os.Exit(1)
		}
		return
	}

	var ts []target
	if platform == "all" {
		ts = targets
	} else {
		t := getTarget(platform)
		if t == nil {
			fmt.Println("Unknown platform", platform)
			os.Exit(1)
		}
		ts = []target{*t}
	}

	for _, t := range ts {
		fmt.Println("Building", t.platform())
		cleanPlatform(t.platform())
		err := buildTarget(t, filepath.Join(binDir, t.platform(), t.bin()))
		if err != nil {
			fmt.Println("Error building", t.platform(), err)
			os.Exit(1)
		}
	}
}

// Release builds every platform and collects the binaries in the releases
// folder, compressed with UPX if UPX_BIN is set.
func Release() {
	mg.Deps(Clean)
	Build("all")

	_ = os.MkdirAll(binReleasesDir, 0755)

	for _, t := range targets {
		name := fmt.Sprintf("podcastr_%s", t.platform())
		if t.goos == "windows" {
			name += ".exe"
		}

		releaseBin := filepath.Join(binReleasesDir, name)
		err := sh.Copy(releaseBin, filepath.Join(binDir, t.platform(), t.bin()))
		if err != nil {
			fmt.Println("Error copying binary", err)
			os.Exit(1)
		}

		if upxBin == "" || t.goos == "darwin" {
			continue
		}

		err = sh.RunV(upxBin, "-9", releaseBin)
		if err != nil {
			fmt.Println("Error compressing binary", err)
			os.Exit(1)
		}
	}
}

func Test() {
	_ = sh.RunV("go", "test", "./...")
}

func Coverage() {
	_ = sh.RunV("go", "test", "-coverprofile", "coverage.out", "./...")
	_ = sh.RunV("go", "tool", "cover", "-html", "coverage.out")
	_ = sh.Rm("coverage.out")
}
