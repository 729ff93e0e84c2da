//go:build linux || darwin

package utils

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/podcastr/podcastr/pkg/config"
	"github.com/rs/zerolog/log"
)

const PidFilename = "podcastr.pid"

type ServiceEntry func() (func() error, error)

// Service manages the daemon process lifecycle through a pid file in the
// data folder.
type Service struct {
	daemon  bool
	start   ServiceEntry
	stop    func() error
	pidPath string
}

type ServiceArgs struct {
	Entry    ServiceEntry
	NoDaemon bool
	DataDir  string
}

func NewService(args ServiceArgs) *Service {
	return &Service{
		daemon:  !args.NoDaemon,
		start:   args.Entry,
		pidPath: filepath.Join(args.DataDir, PidFilename),
	}
}

func (s *Service) createPidFile() error {
	return os.WriteFile(s.pidPath, []byte(fmt.Sprintf("%d", os.Getpid())), 0644)
}

func (s *Service) removePidFile() error {
	return os.Remove(s.pidPath)
}

// Pid returns the process ID of the running service daemon, or 0 if there
// is no pid file.
func (s *Service) Pid() (int, error) {
	if _, err := os.Stat(s.pidPath); err != nil {
		return 0, nil
	}

	pidFile, err := os.ReadFile(s.pidPath)
	if err != nil {
		return 0, fmt.Errorf("error reading pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(pidFile)))
	if err != nil {
		return 0, fmt.Errorf("error parsing pid: %w", err)
	}

	return pid, nil
}

// Running returns true if the service is running.
func (s *Service) Running() bool {
	pid, err := s.Pid()
	if err != nil || pid == 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}

func (s *Service) stopService() error {
	log.Info().Msg("stopping service")

	err := s.stop()
	if err != nil {
		log.Error().Err(err).Msg("error stopping service")
		return err
	}

	err = s.removePidFile()
	if err != nil {
		log.Error().Err(err).Msg("error removing pid file")
		return err
	}

	return nil
}

// Run starts the service in the current process and blocks until it
// receives SIGINT or SIGTERM.
func (s *Service) Run() error {
	if s.Running() {
		return fmt.Errorf("service already running")
	}

	log.Info().Msg("starting service")

	err := s.createPidFile()
	if err != nil {
		return fmt.Errorf("error creating pid file: %w", err)
	}

	stop, err := s.start()
	if err != nil {
		rmErr := s.removePidFile()
		if rmErr != nil {
			log.Error().Err(rmErr).Msg("error removing pid file")
		}
		return fmt.Errorf("error starting service: %w", err)
	}
	s.stop = stop

	if !s.daemon {
		return s.stopService()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	return s.stopService()
}

// Start launches a new service daemon in the background.
func (s *Service) Start() error {
	if s.Running() {
		return fmt.Errorf("service already running")
	}

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("error getting absolute binary path: %w", err)
	}

	cmd := exec.Command(exePath, "-service", "exec")
	cmd.Env = os.Environ()

	if _, ok := os.LookupEnv(config.UserConfigEnv); !ok {
		cmd.Env = append(cmd.Env, fmt.Sprintf(
			"%s=%s",
			config.UserConfigEnv,
			filepath.Join(filepath.Dir(s.pidPath), config.AppName+".ini"),
		))
	}

	err = cmd.Start()
	if err != nil {
		return fmt.Errorf("error starting service: %w", err)
	}

	return nil
}

// Stop signals the service daemon to shut down.
func (s *Service) Stop() error {
	if !s.Running() {
		return fmt.Errorf("service not running")
	}

	pid, err := s.Pid()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}

	return process.Signal(syscall.SIGTERM)
}

func (s *Service) Restart() error {
	if s.Running() {
		err := s.Stop()
		if err != nil {
			return err
		}
	}

	for s.Running() {
		time.Sleep(1 * time.Second)
	}

	return s.Start()
}

// ServiceHandler actions a -service flag value and exits.
func (s *Service) ServiceHandler(cmd *string) {
	var err error
	switch *cmd {
	case "":
		return
	case "exec":
		err = s.Run()
	case "start":
		err = s.Start()
	case "stop":
		err = s.Stop()
	case "restart":
		err = s.Restart()
	case "status":
		if s.Running() {
			os.Exit(0)
		}
		os.Exit(1)
	default:
		fmt.Printf("Unknown service argument: %s\n", *cmd)
		os.Exit(1)
	}

	if err != nil {
		log.Error().Err(err).Msg("service command failed")
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	os.Exit(0)
}
