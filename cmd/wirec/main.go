// wirec compiles schema documents and prints the resulting wire layouts:
// member offsets, sizes, byte orders and text encodings, optionally with the
// layout fingerprint two peers can compare before exchanging data.
//
//	wirec [--format table|json|yaml|cbor] [--fingerprint] [--verbose] SCHEMA...
//
// Schema documents are YAML (.yaml, .yml) or JSONC (.json, .jsonc). The
// first schema error stops the run with exit status 1; unreadable files
// exit with 3.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/wirelayout/errors"
	"github.com/wippyai/wirelayout/schema"
	"github.com/wippyai/wirelayout/transcoder"
)

const (
	exitOK     = 0
	exitSchema = 1
	exitUsage  = 2
	exitFailed = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	format      string
	fingerprint bool
	verbose     bool
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	flagSet := pflag.NewFlagSet("wirec", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.format, "format", "f", "table", "output format: table, json, yaml or cbor")
	flagSet.BoolVar(&opts.fingerprint, "fingerprint", false, "include the layout fingerprint of every aggregate")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log compilation details to stderr")
	flagSet.Usage = func() {
		fmt.Fprintln(stderr, "Usage: wirec [flags] SCHEMA...")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}
	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return exitUsage
	}

	render, ok := renderers[opts.format]
	if !ok {
		fmt.Fprintf(stderr, "wirec: unknown format %q\n", opts.format)
		return exitUsage
	}

	if opts.verbose {
		logger := newLogger(stderr)
		defer func() { _ = logger.Sync() }()
		transcoder.SetLogger(logger)
		defer transcoder.SetLogger(nil)
	}

	layouts, err := compileAll(transcoder.NewCompiler(), flagSet.Args())
	if err != nil {
		fmt.Fprintf(stderr, "wirec: %v\n", err)
		if errors.IsSchema(err) {
			return exitSchema
		}
		return exitFailed
	}

	if err := render(stdout, layouts, opts); err != nil {
		fmt.Fprintf(stderr, "wirec: %v\n", err)
		return exitFailed
	}
	return exitOK
}

// compileAll loads every document and compiles its aggregates in
// declaration order, stopping at the first error.
func compileAll(c *transcoder.Compiler, paths []string) ([]*transcoder.CompiledType, error) {
	var out []*transcoder.CompiledType
	for _, path := range paths {
		aggs, err := schema.Load(path)
		if err != nil {
			return nil, err
		}
		for _, agg := range aggs {
			ct, err := c.CompileSchema(agg)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			out = append(out, ct)
		}
	}
	return out, nil
}

// newLogger writes human-readable debug logs to a terminal and JSON
// otherwise.
func newLogger(w io.Writer) *zap.Logger {
	var enc zapcore.Encoder
	if isTerminal(w) {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	} else {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.DebugLevel))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
