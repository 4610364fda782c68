// Command cominspect prints the vtable and object layouts of the demo
// classes or of a JSON definition file, generates typed Go stubs, and
// offers an interactive inspector for stepping reference counts.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-com/com"
	"github.com/wippyai/wasm-com/engine"
	"github.com/wippyai/wasm-com/factory"
	"github.com/wippyai/wasm-com/gen"
)

type options struct {
	idlFile     string
	genPackage  string
	output      string
	width       uint
	jsonOut     bool
	wasm        bool
	interactive bool
}

func main() {
	var opts options
	flag.StringVar(&opts.idlFile, "idl", "", "JSON definition file (default: built-in demo)")
	flag.UintVar(&opts.width, "width", 4, "pointer width in bytes (4 or 8)")
	flag.BoolVar(&opts.jsonOut, "json", false, "print layouts as JSON")
	flag.BoolVar(&opts.wasm, "wasm", false, "place objects in a wazero linear memory")
	flag.StringVar(&opts.genPackage, "gen", "", "generate Go stubs for the given package name")
	flag.StringVar(&opts.output, "o", "", "output file (default: stdout)")
	flag.BoolVar(&opts.interactive, "i", false, "interactive inspector")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: cominspect [-idl file.json] [-width 4|8] [-json]")
		fmt.Fprintln(os.Stderr, "       cominspect [-idl file.json] -gen <package> [-o file.go]")
		fmt.Fprintln(os.Stderr, "       cominspect [-idl file.json] -i  (interactive mode)")
		flag.PrintDefaults()
	}
	flag.Parse()

	log := newLogger()
	defer log.Sync() //nolint:errcheck
	com.SetLogger(log)
	factory.SetLogger(log)
	engine.SetLogger(log)

	if err := run(context.Background(), opts, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, log *zap.Logger) error {
	if opts.width != 4 && opts.width != 8 {
		return fmt.Errorf("pointer width must be 4 or 8, got %d", opts.width)
	}
	width := uint32(opts.width)
	so := spaceOptions{log: log, width: width, wasm: opts.wasm}

	var (
		cat *catalog
		err error
	)
	if opts.idlFile != "" {
		cat, err = loadIDL(ctx, opts.idlFile, so)
	} else {
		cat, err = loadDemo(ctx, so)
	}
	if err != nil {
		return err
	}
	defer cat.close(ctx) //nolint:errcheck

	if opts.interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("interactive mode needs a terminal")
		}
		return runInteractive(ctx, cat)
	}

	var out []byte
	switch {
	case opts.genPackage != "":
		out, err = gen.Generate(cat.interfaces, gen.Options{
			Package:      opts.genPackage,
			Generator:    "cominspect",
			PointerWidth: width,
		})
	case opts.jsonOut:
		out, err = encodeJSON(cat)
		out = append(out, '\n')
	default:
		return writeOutput(opts.output, func(w io.Writer) error { return printText(w, cat) })
	}
	if err != nil {
		return err
	}
	return writeOutput(opts.output, func(w io.Writer) error {
		_, err := w.Write(out)
		return err
	})
}

func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
