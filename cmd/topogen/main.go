package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"topogen/internal/logging"
	"topogen/internal/settings"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(a *app, args []string) error
}

var commands = []command{
	{
		name:  "init",
		short: "Scaffold a two-participant topology",
		usage: "topogen init [--force] [path]",
		long: `Prompt for a topology name, two participants and one data field, then
write a valid topology YAML to path (default topology.yaml).

Errors if path exists unless --force is given.
`,
		run: runInit,
	},
	{
		name:  "validate",
		short: "Check topologies without emitting documents",
		usage: "topogen validate [flags] <topology>...",
		long: `Run the parse, schema and semantic stages over each topology and print
every error and warning found. Exits non-zero if any topology fails.

Flags:
  --strict-positive   reject non-positive time values in the schema stage
`,
		run: runValidate,
	},
	{
		name:  "generate",
		short: "Compile a topology into a coupling configuration",
		usage: "topogen generate [flags] <topology>",
		long: `Compile a topology and write <name>-config.xml into the output directory,
with README.md, run.sh and clean.sh next to it.

Flags:
  -o, --output DIR    output directory (settings output_dir)
  --dry-run           print the document to stdout, write nothing
  --no-artifacts      write only the configuration document
  --overwrite         replace existing files (settings overwrite_existing)
  --publish           also upload the bundle to the configured S3 bucket
  --strict-positive   reject non-positive time values in the schema stage
`,
		run: runGenerate,
	},
	{
		name:  "read",
		short: "Recover a topology from a configuration document",
		usage: "topogen read [flags] <document.xml>",
		long: `Read a coupling configuration document back into the topology form and
print it as YAML. Reader and semantic warnings go to stderr.

Flags:
  -o, --output FILE   write the YAML to FILE instead of stdout
  --name NAME         topology name (default: file name minus -config.xml)
`,
		run: runRead,
	},
	{
		name:  "roundtrip",
		short: "Verify a topology survives emit and read back",
		usage: "topogen roundtrip <topology>",
		long: `Compile a topology, emit its document, read the document back and compare
both models. Prints the difference and exits non-zero when they disagree.
`,
		run: runRoundTrip,
	},
	{
		name:  "batch",
		short: "Compile every topology under a directory",
		usage: "topogen batch [flags] <dir>",
		long: `Find every .yaml, .yml, .json and .hcl file under dir, skipping the
settings ignore globs, and compile them in parallel. Results are printed
in path order.

Flags:
  --workers N         parallel compilations (settings workers)
  -o, --output DIR    write each bundle to DIR/<name>/
`,
		run: runBatch,
	},
}

// app carries the process environment so commands can run under test.
type app struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
	// dir is the working directory; settings and env files are found here.
	dir       string
	lookupEnv func(string) (string, bool)
	// tty enables styled output and the interactive prompt.
	tty    bool
	prompt func(questions []question) (map[string]string, error)
}

func newApp() *app {
	dir, _ := os.Getwd()
	a := &app{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		stdin:     os.Stdin,
		dir:       dir,
		lookupEnv: os.LookupEnv,
		tty:       term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd())),
	}
	if a.tty {
		a.prompt = promptTUI
	} else {
		a.prompt = func(qs []question) (map[string]string, error) { return promptLines(a.stdin, a.stdout, qs) }
	}
	return a
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "topogen — coupling configuration generator\n\n")
	fmt.Fprintf(w, "Usage:\n  topogen <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nCommon flags: --config FILE, --log-level LEVEL, --log-format console|json\n")
	fmt.Fprintf(w, "\nRun 'topogen help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "topogen: unknown command %q\n\nRun 'topogen help' for usage.\n", name)
}

func dispatch(a *app, args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(a.stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(a.stdout, args[1])
		} else {
			printUsage(a.stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(a, args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'topogen help' for usage.", args[0])
}

// ---------------------------------------------------------------------------
// Shared flags and settings
// ---------------------------------------------------------------------------

// commonFlags are accepted by every command that compiles or reads.
type commonFlags struct {
	config    string
	logLevel  string
	logFormat string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "settings file (default .topogen/settings.yaml)")
	fs.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&c.logFormat, "log-format", "", "console or json")
}

// newFlagSet returns a flag set that reports to stderr and returns errors
// instead of exiting.
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() { printCommandHelp(a.stderr, name) }
	return fs
}

// load resolves settings from the file, env files, TOPOGEN_* variables and
// then the common flags, and builds the logger.
func (a *app) load(c *commonFlags) (settings.Settings, *zap.Logger, error) {
	if err := settings.LoadEnvFiles(a.dir); err != nil {
		return settings.Settings{}, nil, err
	}
	s, err := settings.Load(a.dir, c.config)
	if err != nil {
		return s, nil, err
	}
	if err := s.ApplyEnv(a.lookupEnv); err != nil {
		return s, nil, err
	}
	if c.logLevel != "" {
		s.LogLevel = c.logLevel
	}
	if c.logFormat != "" {
		s.LogFormat = c.logFormat
	}
	return s, logging.New(s.LogLevel, s.LogFormat, a.stderr), nil
}

// errReported marks failures whose details were already printed.
var errReported = errors.New("see report above")

func main() {
	err := dispatch(newApp(), os.Args[1:])
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return
	case errors.Is(err, errReported):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "topogen: %v\n", err)
		os.Exit(1)
	}
}
