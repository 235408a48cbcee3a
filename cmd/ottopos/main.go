// OttoPOS: order taking and kitchen board for a restaurant floor.
//
// Usage:
//
//	ottopos kitchen [flags]   live kitchen board
//	ottopos order   [flags]   order prompt for a till
//	ottopos stub    [flags]   in-memory development backend
package main

import (
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/hammamikhairi/ottopos/internal/config"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

type command struct {
	name    string
	summary string
	run     func(cfg config.Config, log *logger.Logger) error
}

var commands = []command{
	{"kitchen", "live kitchen board with new-order alerts", runKitchen},
	{"order", "take a new order or add to an existing one", runOrder},
	{"stub", "serve the order API from memory for development", runStub},
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage()
		return nil
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	var flags config.Flags
	fs := pflag.NewFlagSet("ottopos "+cmd.name, pflag.ContinueOnError)
	flags.Register(fs)
	fs.BoolP("help", "h", false, "show help")

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printCommandHelp(cmd, fs)
			return nil
		}
		return err
	}
	if help, _ := fs.GetBool("help"); help {
		printCommandHelp(cmd, fs)
		return nil
	}
	if rest := fs.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	cfg, err := config.Load(&flags)
	if err != nil {
		return err
	}

	log, closeLog := openLogger(cfg)
	defer closeLog()

	log.Info("ottopos %s starting (backend %s)", cmd.name, cfg.BaseURL)
	return cmd.run(cfg, log)
}

// openLogger sends logs to a file by default so the terminal UI stays
// clean.
func openLogger(cfg config.Config) (*logger.Logger, func()) {
	var out io.Writer = os.Stderr
	closer := func() {}

	if path := cfg.Log.File; path != "" && path != "stderr" {
		f, err := openLogFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", path, err)
		} else {
			out = f
			closer = func() { f.Close() }
		}
	}

	// Third-party libraries that use the standard logger (oto's backends)
	// write to the same place.
	stdlog.SetOutput(out)
	stdlog.SetFlags(stdlog.Ltime)

	return logger.New(cfg.LogLevel(), out), closer
}

// openLogFile creates the log directory if needed and opens path for
// appending.
func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "ottopos: restaurant order taking and kitchen board.\n\nUsage:\n  ottopos <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(os.Stderr, "\nRun 'ottopos <command> --help' for flags. Settings are also read from\n%s* environment variables, a .env file and an optional YAML file (-c).\n", config.EnvPrefix)
}

func printCommandHelp(cmd *command, fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "ottopos %s: %s\n\nUsage:\n  ottopos %s [flags]\n\nFlags:\n%s", cmd.name, cmd.summary, cmd.name, fs.FlagUsages())
}
