package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"pii-redactor/cmd"
	"pii-redactor/internal/core"
	"pii-redactor/internal/extract"
	"pii-redactor/internal/storage"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

type cliArgs struct {
	text     string
	file     bool
	dir      bool
	paths    []string
	entities *string
	numbers  *string
	bareSSN  bool
	verbose  bool
	envFile  string
}

func parseArgs(args []string, output io.Writer) (cliArgs, error) {
	fs := flag.NewFlagSet("redact", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(output, "Removes personally identifiable information (PII) like names and phone numbers from text strings and files.")
		fmt.Fprintln(output, "\nusage:\n  redact -s TEXT\n  redact -f INPUT OUTPUT\n  redact -d INPUT_DIR OUTPUT_DIR\n\noptions may appear anywhere among the paths:")
		fs.PrintDefaults()
	}

	var a cliArgs
	var entities, numbers string
	fs.StringVar(&a.text, "s", "", "input a text string to clean")
	fs.BoolVar(&a.file, "f", false, "clean the file INPUT and write the clean text to OUTPUT")
	fs.BoolVar(&a.dir, "d", false, "clean every supported file under INPUT_DIR into OUTPUT_DIR")
	fs.StringVar(&entities, "entities", "", "comma separated entity categories to redact (empty for none)")
	fs.StringVar(&numbers, "numbers", "", "comma separated number categories to redact (empty for none)")
	fs.BoolVar(&a.bareSSN, "bare-ssn", false, "also redact 9 digit social security numbers without dashes")
	fs.BoolVar(&a.verbose, "v", false, "print status messages")
	fs.StringVar(&a.envFile, "env", "", "path to load env from")

	paths, err := parseInterleaved(fs, args)
	if err != nil {
		return a, errUsage
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "entities":
			a.entities = &entities
		case "numbers":
			a.numbers = &numbers
		}
	})

	a.paths = paths
	modes := 0
	for _, set := range []bool{a.text != "", a.file, a.dir} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		fs.Usage()
		return a, errUsage
	}
	if (a.file || a.dir) && len(a.paths) != 2 {
		fs.Usage()
		return a, errUsage
	}
	return a, nil
}

// parseInterleaved parses flags that follow positional arguments too. Everything
// after a "--" terminator is positional.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func (a cliArgs) options() []core.Option {
	var opts []core.Option
	if a.entities != nil {
		opts = append(opts, core.WithEntityCategories(splitNames(*a.entities)...))
	}
	if a.numbers != nil {
		opts = append(opts, core.WithNumberCategories(splitNames(*a.numbers)...))
	}
	if a.bareSSN {
		opts = append(opts, core.WithBareSSN())
	}
	return opts
}

func splitNames(list string) []string {
	names := []string{}
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func cleanDir(ctx context.Context, engine *cmd.Engine, inDir, outDir string, workers int, opts []core.Option) error {
	names, err := engine.Storage.List(ctx, inDir)
	if err != nil {
		return fmt.Errorf("error listing %s: %w", inDir, err)
	}

	var jobs []core.FileJob
	for _, name := range names {
		if !extract.SupportedFormat(name) {
			slog.Debug("skipping unsupported file", "name", name)
			continue
		}
		jobs = append(jobs, core.FileJob{
			Input:  storage.Join(inDir, name),
			Output: storage.Join(outDir, name),
		})
	}
	if len(jobs) == 0 {
		slog.Warn("no supported files found", "dir", inDir)
		return nil
	}

	completed, err := engine.Redactor.CleanFiles(ctx, jobs, workers, opts...)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetDescription("cleaning files"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)

	failed, spans := 0, 0
	for task := range completed {
		_ = bar.Add(1)
		if task.Error != nil {
			failed++
			continue
		}
		for _, n := range task.Result.Counts {
			spans += n
		}
	}

	slog.Info("directory cleaned", "files", len(jobs), "failed", failed, "spans", spans)
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be cleaned", failed, len(jobs))
	}
	return nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a, err := parseArgs(args, stderr)
	if err != nil {
		return exitUsage
	}

	cfg, err := cmd.LoadConfig(a.envFile, a.verbose)
	if err != nil {
		fmt.Fprintf(stderr, "error loading config: %v\n", err)
		return exitError
	}

	engine, err := cmd.NewEngine(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "error creating redactor: %v\n", err)
		return exitError
	}
	defer engine.Close()

	opts := a.options()

	switch {
	case a.file:
		slog.Debug("cleaning file", "input", a.paths[0], "output", a.paths[1])
		err = engine.Redactor.CleanFile(ctx, a.paths[0], a.paths[1], opts...)
	case a.dir:
		err = cleanDir(ctx, engine, a.paths[0], a.paths[1], cfg.Workers, opts)
	default:
		var clean string
		clean, err = engine.Redactor.Clean(ctx, a.text, opts...)
		if err == nil {
			fmt.Fprintln(stdout, clean)
		}
	}

	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		var cfgErr *core.ConfigurationError
		if errors.As(err, &cfgErr) {
			return exitUsage
		}
		return exitError
	}
	return exitOK
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
