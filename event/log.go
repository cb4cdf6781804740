// Package event provides the logger shared by the geometry packages and the
// frame service.
package event

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Log is the global logrus instance. Library code only logs data-quality
// warnings and debug traces through it.
var (
	Log *log.Logger
)

// Fields type, used to pass to `WithFields`. Forwarded from logrus library
type Fields = log.Fields

func init() {
	Log = &log.Logger{
		Out:          os.Stderr,
		Formatter:    &log.TextFormatter{DisableColors: false, FullTimestamp: true},
		Hooks:        make(log.LevelHooks),
		Level:        log.InfoLevel,
		ExitFunc:     os.Exit,
		ReportCaller: false,
	}
}

// ConfigureLogging switches between debug and info level. With jsonFormat the
// service emits one JSON object per line instead of the text format.
func ConfigureLogging(debug, jsonFormat bool) {
	Log.SetLevel(log.InfoLevel)
	if debug {
		Log.SetLevel(log.DebugLevel)
	}
	if jsonFormat {
		Log.SetFormatter(&log.JSONFormatter{})
	} else {
		Log.SetFormatter(&log.TextFormatter{DisableColors: false, FullTimestamp: true})
	}
}

// SetOutput redirects the log output, mostly used to silence tests
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}
