// Package daemon is the bridge's request loop: load the model once, then
// read one position per line, hand it to the searcher, and write exactly one
// move line back. All diagnostics go through the structured logger; the
// output stream carries nothing but moves.
package daemon

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chesshacks/azbridge/fen"
	"github.com/chesshacks/azbridge/nn"
	"github.com/chesshacks/azbridge/searcher"
)

// State of the request loop. Loading is transient; a load failure terminates
// the process without ever reaching Ready.
type State uint8

const (
	Loading State = iota
	Ready
)

// Options configure a Daemon.
type Options struct {
	// ModelPath locates the ONNX artifact. The literal "none" or an empty
	// value runs the bridge unguided.
	ModelPath string
	// Params are passed through to the searcher on every request.
	Params searcher.Params
	// Runtime, when non-nil, is used instead of loading ModelPath. For
	// embedding the daemon with an already-resident model.
	Runtime nn.Forward
}

type Daemon struct {
	opts  Options
	state State
	in    io.Reader
	out   io.Writer
}

func New(opts Options, in io.Reader, out io.Writer) *Daemon {
	return &Daemon{opts: opts, in: in, out: out}
}

func (d *Daemon) State() State { return d.state }

// Run drives the loop until the input stream closes. A model-load failure is
// returned immediately and is fatal; per-request failures are logged and the
// loop continues. The model is released on every exit path.
func (d *Daemon) Run() error {
	engine, release, err := d.load()
	if err != nil {
		return err
	}
	defer release()
	d.state = Ready
	log.Info().Msg("ready-for-input")

	s := searcher.New(engine, d.opts.Params)
	scanner := bufio.NewScanner(d.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		d.serve(s, line)
	}
	return scanner.Err()
}

func (d *Daemon) load() (*nn.Engine, func(), error) {
	if d.opts.Runtime != nil {
		return nn.NewEngine(d.opts.Runtime), func() {}, nil
	}
	if d.opts.ModelPath == "" || d.opts.ModelPath == "none" {
		log.Info().Msg("inference-disabled")
		return nil, func() {}, nil
	}
	model, err := nn.LoadModel(d.opts.ModelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load model %q: %w", d.opts.ModelPath, err)
	}
	release := func() {
		if cerr := model.Close(); cerr != nil {
			log.Err(cerr).Msg("release-model")
		}
	}
	return nn.NewEngine(model), release, nil
}

// serve resolves one request. At most one search attempt is made; search is
// already a budgeted best-effort procedure, so a failure is reported and the
// next line is read.
func (d *Daemon) serve(s searcher.Searcher, line string) {
	board, err := fen.Parse(line)
	if err != nil {
		log.Err(err).Msg("bad-position")
		return
	}
	start := time.Now()
	mv, err := s.Search(board)
	elapsed := time.Since(start)
	if err != nil {
		log.Err(err).Str("fen", line).Dur("search-time", elapsed).Msg("no-move-produced")
		return
	}
	fmt.Fprintln(d.out, mv.String())
	if f, ok := d.out.(interface{ Flush() error }); ok {
		if ferr := f.Flush(); ferr != nil {
			log.Err(ferr).Msg("flush-output")
		}
	}
	log.Debug().Str("move", mv.String()).Dur("search-time", elapsed).Msg("served-move")
}
