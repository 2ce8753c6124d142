package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	goflat "github.com/reoring/goflat"
	"github.com/reoring/goflat/i18n"
	"github.com/reoring/goflat/wire"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errUsage marks failures that exit with status 2.
var errUsage = errors.New("usage")

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	var err error
	switch args[0] {
	case "flatten":
		err = flattenCmd(args[1:], stdout, stderr)
	case "unflatten":
		err = unflattenCmd(args[1:], stdout, stderr)
	case "count":
		err = countCmd(args[1:], stdout, stderr)
	case "describe":
		err = describeCmd(args[1:], stdout, stderr)
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return 0
	default:
		usage(stderr)
		return 2
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	}
	fmt.Fprintf(stderr, "goflat %s: %v\n", args[0], err)
	return 1
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `goflat CLI

Usage:
  goflat flatten   -in FILE [-format F] [-out-format F]
  goflat unflatten -model FILE -flat FILE [-format F] [-out-format F]
  goflat count     -in FILE [-format F]
  goflat describe  -model FILE [-format F]

Common flags:
  -format F      input format: json, yaml or hcl (default: from the file extension)
  -out-format F  output format (default json)
  -max-depth N   maximum document nesting (0: unlimited)
  -max-bytes N   maximum document size (0: unlimited)
  -attr NAME     HCL attribute holding the document (default "value")
  -numbers M     number decoding: float64 (default), auto or json
  -lang L        message language: en or ja
  -v, -vv        debug or trace logging on stderr

Documents use {"$tuple": [...]}, {"$array": {"shape", "dtype", "data"}} and
{"$symbol": "name"} for tuples, arrays and placeholders (YAML: !tuple, !array, !symbol).`)
}

// common holds the flags every subcommand accepts.
type common struct {
	format    string
	outFormat string
	maxDepth  int
	maxBytes  int64
	attr      string
	numbers   string
	lang      string
	verbose   bool
	trace     bool

	log *slog.Logger
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", "", "input format (json, yaml, hcl); default from extension")
	fs.StringVar(&c.outFormat, "out-format", "json", "output format (json, yaml, hcl)")
	fs.IntVar(&c.maxDepth, "max-depth", 0, "maximum document nesting (0: unlimited)")
	fs.Int64Var(&c.maxBytes, "max-bytes", 0, "maximum document size in bytes (0: unlimited)")
	fs.StringVar(&c.attr, "attr", wire.DefaultHCLAttribute, "HCL attribute holding the document")
	fs.StringVar(&c.numbers, "numbers", "float64", "number decoding: float64, auto (int64 for integral literals) or json")
	fs.StringVar(&c.lang, "lang", "", "message language (en, ja)")
	fs.BoolVar(&c.verbose, "v", false, "enable debug logs")
	fs.BoolVar(&c.trace, "vv", false, "enable trace logs")
}

// parse parses args and installs the logger and language. The returned
// function restores the process-wide settings.
func (c *common) parse(fs *flag.FlagSet, args []string, stderr io.Writer) (func(), error) {
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return nil, errUsage
	}
	if _, err := wire.ParseFormat(c.outFormat); err != nil {
		fmt.Fprintln(stderr, err)
		return nil, errUsage
	}
	if _, err := c.numberMode(); err != nil {
		fmt.Fprintln(stderr, err)
		return nil, errUsage
	}
	if c.format != "" {
		if _, err := wire.ParseFormat(c.format); err != nil {
			fmt.Fprintln(stderr, err)
			return nil, errUsage
		}
	}

	level := slog.LevelWarn
	switch {
	case c.trace:
		level = goflat.LevelTrace
	case c.verbose:
		level = slog.LevelDebug
	}
	c.log = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	goflat.SetLogger(c.log)
	if c.lang != "" {
		i18n.SetLanguage(c.lang)
	}
	return func() {
		goflat.SetLogger(nil)
		i18n.SetLanguage("en")
	}, nil
}

func (c *common) load(path string) (any, error) {
	f, err := c.inputFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c.log.Debug("Decoding document.", "path", path, "format", f, "bytes", len(data))
	numbers, _ := c.numberMode()
	v, err := wire.Decode(data, f, wire.DecodeOpt{
		MaxDepth:     c.maxDepth,
		MaxBytes:     c.maxBytes,
		Numbers:      numbers,
		HCLAttribute: c.attr,
		Filename:     path,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func (c *common) numberMode() (wire.NumberMode, error) {
	switch c.numbers {
	case "float64":
		return wire.NumberFloat64, nil
	case "auto":
		return wire.NumberAuto, nil
	case "json":
		return wire.NumberJSONNumber, nil
	}
	return 0, fmt.Errorf("unknown -numbers mode %q", c.numbers)
}

func (c *common) inputFormat(path string) (wire.Format, error) {
	if c.format != "" {
		return wire.ParseFormat(c.format)
	}
	return wire.FormatFromPath(path)
}

func (c *common) emit(w io.Writer, v any) error {
	f, err := wire.ParseFormat(c.outFormat)
	if err != nil {
		return err
	}
	out, err := wire.Encode(v, f)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

type flagValue struct{ name, val string }

// required reports the first empty flag in the order given.
func required(fs *flag.FlagSet, stderr io.Writer, flags ...flagValue) error {
	for _, f := range flags {
		if f.val == "" {
			fmt.Fprintf(stderr, "-%s is required\n", f.name)
			fs.Usage()
			return errUsage
		}
	}
	return nil
}

func flattenCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("flatten", flag.ContinueOnError)
	var c common
	var in string
	fs.StringVar(&in, "in", "", "document to flatten")
	c.register(fs)
	restore, err := c.parse(fs, args, stderr)
	if err != nil {
		return err
	}
	defer restore()
	if err := required(fs, stderr, flagValue{"in", in}); err != nil {
		return err
	}

	v, err := c.load(in)
	if err != nil {
		return err
	}
	flat := goflat.FlattenSlice(v)
	c.log.Debug("Flattened document.", "path", in, "leaves", len(flat))
	return c.emit(stdout, flat)
}

func unflattenCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("unflatten", flag.ContinueOnError)
	var c common
	var modelPath, flatPath string
	fs.StringVar(&modelPath, "model", "", "document whose structure is restored")
	fs.StringVar(&flatPath, "flat", "", "document holding the flat sequence")
	c.register(fs)
	restore, err := c.parse(fs, args, stderr)
	if err != nil {
		return err
	}
	defer restore()
	if err := required(fs, stderr, flagValue{"model", modelPath}, flagValue{"flat", flatPath}); err != nil {
		return err
	}

	model, err := c.load(modelPath)
	if err != nil {
		return err
	}
	m, err := goflat.Compile(model)
	if err != nil {
		return fmt.Errorf("%s: %w", modelPath, err)
	}
	fv, err := c.load(flatPath)
	if err != nil {
		return err
	}
	flat, ok := fv.([]any)
	if !ok {
		return fmt.Errorf("%s: flat document must be a sequence, got %T", flatPath, fv)
	}
	c.log.Debug("Unflattening.", "model", m.String(), "leaves", m.Leaves(), "flat", len(flat))
	out, err := m.Unflatten(flat)
	if err != nil {
		return err
	}
	return c.emit(stdout, out)
}

func countCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("count", flag.ContinueOnError)
	var c common
	var in string
	fs.StringVar(&in, "in", "", "document whose leaves are counted")
	c.register(fs)
	restore, err := c.parse(fs, args, stderr)
	if err != nil {
		return err
	}
	defer restore()
	if err := required(fs, stderr, flagValue{"in", in}); err != nil {
		return err
	}

	v, err := c.load(in)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, goflat.LeafCount(v))
	return err
}

func describeCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("describe", flag.ContinueOnError)
	var c common
	var modelPath string
	fs.StringVar(&modelPath, "model", "", "document to compile as a model")
	c.register(fs)
	restore, err := c.parse(fs, args, stderr)
	if err != nil {
		return err
	}
	defer restore()
	if err := required(fs, stderr, flagValue{"model", modelPath}); err != nil {
		return err
	}

	model, err := c.load(modelPath)
	if err != nil {
		return err
	}
	m, err := goflat.Compile(model)
	if err != nil {
		return fmt.Errorf("%s: %w", modelPath, err)
	}
	_, err = fmt.Fprintf(stdout, "%s\nleaves: %d\n", m, m.Leaves())
	return err
}
