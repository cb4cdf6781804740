package server

import (
	"encoding/json"
	"io/ioutil"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"

	"github.com/roboticeyes/quataffine/event"
	"github.com/roboticeyes/quataffine/rotation"
)

// Config defines all the settings of the frame service
type Config struct {
	ListenAddr     string  `json:"ListenAddr"`
	JwtSigningKey  string  `json:"JwtSigningKey"` // token validation is off when empty
	Debug          bool    `json:"Debug"`
	JSONLogs       bool    `json:"JsonLogs"`
	EigenTolerance float64 `json:"EigenTolerance"`
	MaxBatch       int     `json:"MaxBatch"` // 0 means unlimited
}

// ConfigSource hands out the configuration that is active right now
type ConfigSource interface {
	Current() Config
}

// DefaultConfig returns the settings used for every field the config file
// leaves out
func DefaultConfig() Config {
	return Config{
		ListenAddr:     ":8080",
		EigenTolerance: rotation.DefaultEigenTolerance,
	}
}

// Current makes a plain Config usable as a static ConfigSource
func (c Config) Current() Config {
	return c
}

// LoadConfig reads a JSON config file on top of DefaultConfig
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "cannot read config %s", path)
	}
	if err := json.Unmarshal(buf, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "cannot parse config %s", path)
	}
	if cfg.EigenTolerance <= 0 {
		return cfg, errors.Errorf("config %s: EigenTolerance must be positive, got %v", path, cfg.EigenTolerance)
	}
	return cfg, nil
}

// ConfigWatcher keeps the config of a file current. A broken file on reload
// is logged and the previous config stays active.
type ConfigWatcher struct {
	path   string
	debug  bool // debug logging stays on whatever the file says
	config Config
	watch  *watcher.Watcher
	mutex  sync.RWMutex // guards config
}

// NewConfigWatcher loads the file once and starts watching it for writes.
// With debug set every reload keeps debug logging enabled.
func NewConfigWatcher(path string, interval time.Duration, debug bool) (*ConfigWatcher, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	w := &ConfigWatcher{
		path:   path,
		debug:  debug,
		config: cfg,
		watch:  watcher.New(),
	}
	w.watch.FilterOps(watcher.Write)
	if err := w.watch.Add(path); err != nil {
		return nil, errors.Wrapf(err, "cannot watch %s", path)
	}

	go w.handleEvents()
	go func() {
		if err := w.watch.Start(interval); err != nil {
			log.Error(err)
		}
	}()
	return w, nil
}

// Current returns the active config
func (w *ConfigWatcher) Current() Config {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.config
}

// Close stops watching the file
func (w *ConfigWatcher) Close() {
	w.watch.Close()
}

func (w *ConfigWatcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		log.WithFields(event.Fields{
			"path": w.path,
		}).Error("Keeping previous config: " + err.Error())
		return
	}
	event.ConfigureLogging(w.debug || cfg.Debug, cfg.JSONLogs)

	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.config = cfg
}

func (w *ConfigWatcher) handleEvents() {
	for {
		select {
		case <-w.watch.Event:
			log.Info("Config file got changed, reloading ", w.path)
			w.reload()
		case err := <-w.watch.Error:
			if err == watcher.ErrWatchedFileDeleted {
				// Usually happens because the watcher looks for the file as the OS is updating it
				continue
			}
			log.Error("Config file cannot be watched: ", err)
		case <-w.watch.Closed:
			return
		}
	}
}
