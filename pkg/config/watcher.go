package config

import (
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const reloadDelay = 1 * time.Second

// StartWatcher reloads the config file whenever it changes on disk and calls
// onReload afterwards. Returns a function which stops the watcher.
func StartWatcher(cfg *UserConfig, onReload func(*UserConfig)) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	reload := func() {
		log.Info().Str("path", cfg.IniPath).Msg("config changed, reloading")
		err := cfg.LoadConfig()
		if err != nil {
			log.Error().Err(err).Msg("error reloading config")
			return
		}
		if onReload != nil {
			onReload(cfg)
		}
	}

	go func() {
		// fsnotify has no close-write event, so a single save usually shows
		// up as several writes and editors may replace the file entirely
		var lastReload time.Time
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) {
					if time.Since(lastReload) < reloadDelay {
						continue
					}
					time.Sleep(reloadDelay)
					lastReload = time.Now()
					reload()
				} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					time.Sleep(reloadDelay)
					if _, err := os.Stat(cfg.IniPath); err != nil {
						log.Warn().Str("path", cfg.IniPath).Msg("config file removed")
						continue
					}
					err := watcher.Add(cfg.IniPath)
					if err != nil {
						log.Error().Err(err).Msg("error watching config")
					}
					lastReload = time.Now()
					reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("config watcher error")
			}
		}
	}()

	err = watcher.Add(cfg.IniPath)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return watcher.Close, nil
}
