package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"github.com/podcastr/podcastr/pkg/api/client"
	"github.com/podcastr/podcastr/pkg/api/models"
	"github.com/podcastr/podcastr/pkg/config"
	"github.com/podcastr/podcastr/pkg/utils"
	"github.com/rs/zerolog/log"
)

var ErrUnknownToggle = errors.New("unknown toggle, expected play, loop or shuffle")

type Flags struct {
	Api      *string
	Play     *string
	Next     *bool
	Previous *bool
	Toggle   *string
	Qr       *bool
	Version  *bool
}

// SetupFlags defines all common CLI flags.
func SetupFlags() *Flags {
	return &Flags{
		Api: flag.String(
			"api",
			"",
			"send method and params to API and print response",
		),
		Play: flag.String(
			"play",
			"",
			"play episode with given id on the running daemon",
		),
		Next: flag.Bool(
			"next",
			false,
			"skip to the next episode in the queue",
		),
		Previous: flag.Bool(
			"previous",
			false,
			"go back to the previous episode in the queue",
		),
		Toggle: flag.String(
			"toggle",
			"",
			"toggle player flag: play, loop or shuffle",
		),
		Qr: flag.Bool(
			"qr",
			false,
			"output a QR code of the player address",
		),
		Version: flag.Bool(
			"version",
			false,
			"print version and exit",
		),
	}
}

// Pre runs flag parsing and actions any immediate flags that don't
// require environment setup. Add any custom flags before running this.
func (f *Flags) Pre() {
	flag.Parse()

	if *f.Version {
		fmt.Printf("Podcastr v%s\n", config.Version)
		os.Exit(0)
	}
}

// apiArgs splits a "method:params" argument.
func apiArgs(s string) (string, string) {
	ps := strings.SplitN(s, ":", 2)
	if len(ps) > 1 {
		return ps[0], ps[1]
	}
	return ps[0], ""
}

func toggleMethod(name string) (string, error) {
	switch strings.ToLower(name) {
	case "play":
		return models.MethodTogglePlay, nil
	case "loop":
		return models.MethodToggleLoop, nil
	case "shuffle":
		return models.MethodToggleShuffle, nil
	default:
		return "", ErrUnknownToggle
	}
}

// PlayerAddress returns the REST player URL for a device address.
func PlayerAddress(ip net.IP, port string) string {
	return fmt.Sprintf("http://%s/api/v1/player", net.JoinHostPort(ip.String(), port))
}

// LocalPlayerAddress returns the REST player URL of this device.
func LocalPlayerAddress(cfg *config.UserConfig) (string, error) {
	ip, err := utils.GetLocalIp()
	if err != nil {
		return "", err
	}
	return PlayerAddress(ip, cfg.GetApiPort()), nil
}

// printPlayer writes a short summary of a player API response.
func printPlayer(w io.Writer, resp string) error {
	var pr models.PlayerResponse
	err := json.Unmarshal([]byte(resp), &pr)
	if err != nil {
		return err
	}

	if pr.CurrentEpisode == nil {
		_, err = fmt.Fprintln(w, "Nothing queued")
		return err
	}

	status := "Paused"
	if pr.IsPlaying {
		status = "Playing"
	}

	var flags []string
	if pr.IsLooping {
		flags = append(flags, "loop")
	}
	if pr.IsShuffling {
		flags = append(flags, "shuffle")
	}

	_, err = fmt.Fprintf(
		w,
		"%s: %s (%d/%d)",
		status,
		pr.CurrentEpisode.Title,
		pr.CurrentIndex+1,
		len(pr.EpisodeList),
	)
	if err != nil {
		return err
	}

	if len(flags) > 0 {
		_, err = fmt.Fprintf(w, " [%s]", strings.Join(flags, ", "))
		if err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(w)
	return err
}

func callPlayer(cfg *config.UserConfig, method string, params string) {
	resp, err := client.LocalClient(cfg, method, params)
	if err != nil {
		log.Error().Err(err).Str("method", method).Msg("error calling API")
		_, _ = fmt.Fprintf(os.Stderr, "Error calling API: %v\n", err)
		os.Exit(1)
	}

	err = printPlayer(os.Stdout, resp)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error decoding API response: %v\n", err)
		os.Exit(1)
	}

	os.Exit(0)
}

// Post actions all remaining common flags that require the environment to be
// set up. Logging is allowed.
func (f *Flags) Post(cfg *config.UserConfig) {
	if *f.Api != "" {
		method, params := apiArgs(*f.Api)

		resp, err := client.LocalClient(cfg, method, params)
		if err != nil {
			log.Error().Err(err).Msg("error calling API")
			_, _ = fmt.Fprintf(os.Stderr, "Error calling API: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(resp)
		os.Exit(0)
	} else if *f.Play != "" {
		data, err := json.Marshal(&models.PlayParams{
			Id: f.Play,
		})
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error encoding params: %v\n", err)
			os.Exit(1)
		}

		callPlayer(cfg, models.MethodPlay, string(data))
	} else if *f.Next {
		callPlayer(cfg, models.MethodNext, "")
	} else if *f.Previous {
		callPlayer(cfg, models.MethodPrevious, "")
	} else if *f.Toggle != "" {
		method, err := toggleMethod(*f.Toggle)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		callPlayer(cfg, method, "")
	}

	if *f.Qr {
		addr, err := LocalPlayerAddress(cfg)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error getting local IP: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(addr)
		qrterminal.Generate(
			addr,
			qrterminal.L,
			os.Stdout,
		)

		os.Exit(0)
	}
}

// Setup initializes the user config and logging. Returns a user config object.
func Setup(defaultConfig *config.UserConfig) *config.UserConfig {
	cfg, err := config.NewUserConfig(defaultConfig)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	err = utils.InitLogging(cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}

	return cfg
}
