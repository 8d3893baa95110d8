package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/flagx"
)

var knownFlags = []string{"-a", "-t", "-d", "-k", "-l", "-n"}

// parseFlags overlays cfg with command-line flags. Only the flags listed in
// knownFlags are considered; everything else in args is ignored.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("shopkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the shopkeeper API")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	fs.StringVar(&cfg.KeyFile, "k", cfg.KeyFile, "path of the local secret")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.IntVar(&cfg.PageSize, "n", cfg.PageSize, "products per page")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
