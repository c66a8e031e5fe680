package app

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// errUsage means the command line was incomplete; usage has been printed.
var errUsage = errors.New("usage")

// Options is the parsed command line. Every flag can also be set through a
// PERISCOPE_ environment variable, e.g. PERISCOPE_LOG_LEVEL=debug.
type Options struct {
	Address    string
	ConfigPath string

	LogLevel  string
	Reconnect bool
	Mirror    string
	Snapshot  string
	Timeout   time.Duration
	Decorated bool
}

func parseOptions(args []string, stderr io.Writer) (*Options, error) {
	flags := pflag.NewFlagSet("periscope", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.String("log-level", "info", "log level: error, warn, info or debug")
	flags.Bool("reconnect", false, "reconnect with backoff instead of exiting when the connection fails")
	flags.String("mirror", "", "serve the controller state over HTTP on this address, e.g. :8080")
	flags.String("snapshot", "", "render the first update into this PNG file and exit")
	flags.Duration("timeout", 5*time.Second, "connection timeout")
	flags.Bool("decorated", false, "show the window title bar and borders")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: periscope [flags] <address> <config>\n\n")
		fmt.Fprintf(stderr, "  address   controller server, host[:port] (default port 2579) or ws://host/path\n")
		fmt.Fprintf(stderr, "  config    overlay definition (.toml, .yaml or .json)\n\nFlags:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() != 2 {
		flags.Usage()
		return nil, errUsage
	}

	v := viper.New()
	v.SetEnvPrefix("PERISCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}

	opts := &Options{
		Address:    flags.Arg(0),
		ConfigPath: flags.Arg(1),
		LogLevel:   v.GetString("log-level"),
		Reconnect:  v.GetBool("reconnect"),
		Mirror:     v.GetString("mirror"),
		Snapshot:   v.GetString("snapshot"),
		Timeout:    v.GetDuration("timeout"),
		Decorated:  v.GetBool("decorated"),
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", opts.Timeout)
	}
	return opts, nil
}
