// Package client drives a bridge daemon as a child process and speaks its
// line protocol: one FEN written, one move read back. It exists for programs
// that want the resident-model daemon without linking the inference stack
// into their own binary.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/chesshacks/azbridge/config"
	"github.com/chesshacks/azbridge/fen"
)

// overheadBudget is the slack granted on top of the daemon's search budget
// for process and pipe overhead before a request is declared lost.
const overheadBudget = 10 * time.Second

// Options configure a bridge subprocess.
type Options struct {
	// BridgePath is the daemon executable.
	BridgePath string
	// ModelPath is forwarded to the daemon; "none" or empty runs unguided.
	ModelPath     string
	MaxIterations int
	MaxSeconds    int
	CPuct         float64
	// RandomFallback plays a uniformly random legal move when the bridge is
	// unavailable (failed to answer in time or closed its stream), instead
	// of returning an error. An illegal answer is always an error.
	RandomFallback bool
}

// Client owns one running bridge process. Not safe for concurrent BestMove
// calls; the protocol is strictly one request at a time.
type Client struct {
	opts      Options
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	moves     chan string
	done      chan struct{}
	closeOnce sync.Once
	overhead  time.Duration
	g         *errgroup.Group

	// stale counts answers still owed by timed-out requests. The protocol
	// has no request ids and the daemon answers in order, so after a timeout
	// the next answers on the stream belong to the abandoned requests and
	// must be discarded, not served for a later position.
	stale int
}

// Start launches the daemon and begins relaying its diagnostics into the log.
func Start(opts Options) (*Client, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = config.DefaultMaxIterations
	}
	if opts.MaxSeconds <= 0 {
		opts.MaxSeconds = config.DefaultMaxSeconds
	}
	if opts.CPuct <= 0 {
		opts.CPuct = config.DefaultCPuct
	}
	cmd := exec.Command(opts.BridgePath,
		"--model-path", opts.ModelPath,
		"--max-iterations", strconv.Itoa(opts.MaxIterations),
		"--max-seconds", strconv.Itoa(opts.MaxSeconds),
		"--cpuct", strconv.FormatFloat(opts.CPuct, 'f', -1, 64),
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start bridge %q: %w", opts.BridgePath, err)
	}
	return newClient(opts, cmd, stdin, stdout, stderr), nil
}

func newClient(opts Options, cmd *exec.Cmd, stdin io.WriteCloser, stdout, stderr io.Reader) *Client {
	c := &Client{
		opts:     opts,
		cmd:      cmd,
		stdin:    stdin,
		moves:    make(chan string, 1),
		done:     make(chan struct{}),
		overhead: overheadBudget,
		g:        &errgroup.Group{},
	}
	c.g.Go(func() error {
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			log.Debug().Str("bridge", sc.Text()).Msg("bridge-diagnostic")
		}
		return nil
	})
	c.g.Go(func() error {
		sc := bufio.NewScanner(stdout)
		for sc.Scan() {
			select {
			case c.moves <- sc.Text():
			case <-c.done:
				return nil
			}
		}
		close(c.moves)
		return nil
	})
	return c
}

// BestMove asks the bridge for a move in the given position. The position is
// validated locally first so the answer can be checked for legality. No
// retries: one request, one answer or one failure.
func (c *Client) BestMove(ctx context.Context, fenstr string) (string, error) {
	board, err := fen.Parse(fenstr)
	if err != nil {
		return "", err
	}
	legal := board.GenerateLegalMoves()
	if len(legal) == 0 {
		return "", fmt.Errorf("position %q has no legal moves", fenstr)
	}

	move, err := c.ask(ctx, fenstr)
	if err != nil {
		if c.opts.RandomFallback {
			log.Warn().Err(err).Msg("bridge-unavailable-playing-random")
			m := legal[frand.Intn(len(legal))]
			return m.String(), nil
		}
		return "", err
	}
	for i := range legal {
		if legal[i].String() == move {
			return move, nil
		}
	}
	return "", fmt.Errorf("bridge returned illegal move %q for %q", move, fenstr)
}

func (c *Client) ask(ctx context.Context, fenstr string) (string, error) {
	budget := time.Duration(c.opts.MaxSeconds)*time.Second + c.overhead
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	if _, err := io.WriteString(c.stdin, fenstr+"\n"); err != nil {
		return "", fmt.Errorf("write position: %w", err)
	}
	for {
		select {
		case mv, ok := <-c.moves:
			if !ok {
				return "", fmt.Errorf("bridge closed its output stream")
			}
			if c.stale > 0 {
				c.stale--
				log.Debug().Str("move", mv).Msg("discarded-stale-answer")
				continue
			}
			return mv, nil
		case <-ctx.Done():
			c.stale++
			return "", fmt.Errorf("wait for move: %w", ctx.Err())
		}
	}
}

// Close shuts the request pipe, waits for the bridge to exit, and reaps the
// relay goroutines.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	if c.stdin != nil {
		c.stdin.Close()
	}
	gerr := c.g.Wait()
	if c.cmd != nil {
		if werr := c.cmd.Wait(); werr != nil {
			return werr
		}
	}
	return gerr
}
