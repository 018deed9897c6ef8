// Package fen parses position-notation strings into boards. The underlying
// move-generation library assumes its input is well formed, so this package
// validates the string first and converts parser panics into errors; a bad
// line from a caller must be a recoverable per-request failure, never a crash.
package fen

import (
	"fmt"
	"strings"

	"github.com/dylhunn/dragontoothmg"
)

// Startpos is the standard chess starting position.
const Startpos = dragontoothmg.Startpos

// Parse builds a board from a FEN string. The halfmove clock and fullmove
// number may be omitted; they default to 0 and 1.
func Parse(s string) (*dragontoothmg.Board, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) < 4 {
		return nil, fmt.Errorf("fen %q: got %d fields, want at least 4", s, len(fields))
	}
	if err := validatePlacement(fields[0]); err != nil {
		return nil, fmt.Errorf("fen %q: %w", s, err)
	}
	if fields[1] != "w" && fields[1] != "b" {
		return nil, fmt.Errorf("fen %q: bad side-to-move field %q", s, fields[1])
	}
	if len(fields) == 4 {
		fields = append(fields, "0")
	}
	if len(fields) == 5 {
		fields = append(fields, "1")
	}
	return parse(strings.Join(fields[:6], " "))
}

func parse(s string) (b *dragontoothmg.Board, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse fen %q: %v", s, r)
		}
	}()
	board := dragontoothmg.ParseFen(s)
	return &board, nil
}

func validatePlacement(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("piece placement has %d ranks, want 8", len(ranks))
	}
	for i, rank := range ranks {
		files := 0
		for _, r := range rank {
			switch {
			case r >= '1' && r <= '8':
				files += int(r - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", r):
				files++
			default:
				return fmt.Errorf("rank %d: bad character %q", 8-i, r)
			}
		}
		if files != 8 {
			return fmt.Errorf("rank %d: covers %d files, want 8", 8-i, files)
		}
	}
	return nil
}
