// azinfer is a debugging tool: load a model, read one FEN from stdin (or use
// the starting position), and print the full renormalized move distribution
// and value estimate. Useful for eyeballing model behavior outside the
// daemon's one-move-per-line protocol.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chesshacks/azbridge/fen"
	"github.com/chesshacks/azbridge/nn"
)

var modelPath = flag.String("model", "", "path to the ONNX model artifact")

func main() {
	flag.Parse()
	logger := zerolog.New(os.Stderr)
	log.Logger = logger

	if *modelPath == "" {
		log.Fatal().Msg("-model is required")
	}
	model, err := nn.LoadModel(*modelPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load-model")
	}
	defer model.Close()
	engine := nn.NewEngine(model)

	line := fen.Startpos
	sc := bufio.NewScanner(os.Stdin)
	if sc.Scan() && strings.TrimSpace(sc.Text()) != "" {
		line = strings.TrimSpace(sc.Text())
	}
	board, err := fen.Parse(line)
	if err != nil {
		log.Fatal().Err(err).Msg("bad-position")
	}

	pred, err := engine.Predict(board)
	if err != nil {
		log.Fatal().Err(err).Msg("predict-failed")
	}

	type entry struct {
		move string
		prob float64
	}
	entries := make([]entry, 0, len(pred.Policy))
	for mv, p := range pred.Policy {
		entries = append(entries, entry{mv, p})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].prob > entries[j].prob })

	fmt.Printf("position: %s\n", line)
	fmt.Printf("value: %.4f (raw %.4f)\n", pred.Value, pred.RawValue)
	for _, e := range entries {
		fmt.Printf("%-6s %.4f\n", e.move, e.prob)
	}
}
