package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roboticeyes/quataffine/event"
	"github.com/roboticeyes/quataffine/server"
)

func main() {
	var (
		configFile string
		addr       string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "framesvc",
		Short: "HTTP service for residue frame geometry",
		Long:  "Builds canonical residue frames from N, CA and C atoms and composes, rescales and applies rigid frames.",
		RunE: func(c *cobra.Command, args []string) error {
			var source server.ConfigSource
			cfg := server.DefaultConfig()

			if configFile != "" {
				w, err := server.NewConfigWatcher(configFile, time.Second, debug)
				if err != nil {
					return err
				}
				defer w.Close()
				cfg = w.Current()
				source = w
			}
			event.ConfigureLogging(debug || cfg.Debug, cfg.JSONLogs)

			if source == nil {
				source = cfg
			}
			if addr != "" {
				source = overrideAddr{source, addr}
			}
			return server.NewServer(source).Run()
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "JSON config file, reloaded on change")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address, overrides the config file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// overrideAddr pins the listen address while the rest of the config follows
// its source
type overrideAddr struct {
	server.ConfigSource
	addr string
}

func (o overrideAddr) Current() server.Config {
	cfg := o.ConfigSource.Current()
	cfg.ListenAddr = o.addr
	return cfg
}
