package daemon_test

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/chesshacks/azbridge/daemon"
	"github.com/chesshacks/azbridge/fen"
	"github.com/chesshacks/azbridge/policy"
	"github.com/chesshacks/azbridge/searcher"
)

var moveRe = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][nbrq]?$`)

type stubRuntime struct{}

func (stubRuntime) Forward(_ []float32) ([]float32, float32, error) {
	p := make([]float32, policy.Size)
	for i := range p {
		p[i] = 1.0
	}
	return p, 0.5, nil
}

func defaultParams() searcher.Params {
	return searcher.Params{MaxIterations: 15000, MaxSeconds: 5, CPuct: 2.0}
}

func TestOneMovePerPosition(t *testing.T) {
	is := is.New(t)
	in := strings.NewReader(fen.Startpos + "\n" +
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1\n")
	var out bytes.Buffer
	d := daemon.New(daemon.Options{Runtime: stubRuntime{}, Params: defaultParams()}, in, &out)

	is.NoErr(d.Run())
	is.Equal(d.State(), daemon.Ready)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	is.Equal(len(lines), 2)
	for _, l := range lines {
		is.True(moveRe.MatchString(l))
	}
}

func TestBlankLinesIgnored(t *testing.T) {
	is := is.New(t)
	in := strings.NewReader("\n\n   \n" + fen.Startpos + "\n\n")
	var out bytes.Buffer
	d := daemon.New(daemon.Options{Runtime: stubRuntime{}, Params: defaultParams()}, in, &out)

	is.NoErr(d.Run())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	is.Equal(len(lines), 1)
	is.True(moveRe.MatchString(lines[0]))
}

func TestMalformedLineIsNotFatal(t *testing.T) {
	is := is.New(t)
	in := strings.NewReader("this is not a fen\n" + fen.Startpos + "\n")
	var out bytes.Buffer
	d := daemon.New(daemon.Options{Runtime: stubRuntime{}, Params: defaultParams()}, in, &out)

	is.NoErr(d.Run())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	is.Equal(len(lines), 1)
	is.True(moveRe.MatchString(lines[0]))
}

func TestNoMovePositionIsNotFatal(t *testing.T) {
	is := is.New(t)
	// checkmate: no legal moves, so no output line, but the loop continues
	in := strings.NewReader("k7/2K5/8/8/8/8/8/R7 b - - 0 1\n" + fen.Startpos + "\n")
	var out bytes.Buffer
	d := daemon.New(daemon.Options{Runtime: stubRuntime{}, Params: defaultParams()}, in, &out)

	is.NoErr(d.Run())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	is.Equal(len(lines), 1)
}

func TestUnguidedMode(t *testing.T) {
	is := is.New(t)
	in := strings.NewReader(fen.Startpos + "\n")
	var out bytes.Buffer
	d := daemon.New(daemon.Options{ModelPath: "none", Params: defaultParams()}, in, &out)

	is.NoErr(d.Run())
	is.True(moveRe.MatchString(strings.TrimSpace(out.String())))
}

func TestUnloadableModelIsFatal(t *testing.T) {
	is := is.New(t)
	in := strings.NewReader(fen.Startpos + "\n")
	var out bytes.Buffer
	d := daemon.New(daemon.Options{ModelPath: "/no/such/model.onnx", Params: defaultParams()}, in, &out)

	err := d.Run()
	is.True(err != nil)
	is.Equal(d.State(), daemon.Loading)
	is.Equal(out.Len(), 0)
}

func TestBufferedOutputIsFlushed(t *testing.T) {
	is := is.New(t)
	in := strings.NewReader(fen.Startpos + "\n")
	var sink bytes.Buffer
	out := newFlushCounter(&sink)
	d := daemon.New(daemon.Options{Runtime: stubRuntime{}, Params: defaultParams()}, in, out)

	is.NoErr(d.Run())
	is.True(out.flushes >= 1)
	is.True(moveRe.MatchString(strings.TrimSpace(sink.String())))
}

type flushCounter struct {
	w       *bytes.Buffer
	flushes int
}

func newFlushCounter(w *bytes.Buffer) *flushCounter { return &flushCounter{w: w} }

func (f *flushCounter) Write(p []byte) (int, error) { return f.w.Write(p) }

func (f *flushCounter) Flush() error {
	f.flushes++
	return nil
}
