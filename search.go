package rxoffsets

import (
	"fmt"
	"io"
	"time"
)

// Search runs p over in.Text and reports every match with offsets
// relative to in.Content.
func Search(in Input, p *Pattern, callback func(MatchData)) error {
	base := in.Base()
	return p.FindAll(in.Text, func(m MatchData) {
		for i := range m.Spans {
			m.Spans[i] = m.Spans[i].shift(base)
		}
		callback(m)
	})
}

type RunConfig struct {
	Flags   Flags
	Engine  Engine
	Timeout time.Duration

	// Accept rejects a match when it returns false.
	// A nil Accept keeps every match.
	Accept func(in Input, m MatchData) bool
}

// Run processes a whole scratch file blob and writes one line per match to w.
// It returns the number of printed matches.
//
// A blob without a pattern/text separator is not an error:
// nothing is printed and 0 is returned.
func Run(blob string, config RunConfig, w io.Writer) (int, error) {
	in, ok := SplitInput(blob)
	if !ok {
		return 0, nil
	}
	p, err := Compile(CompileConfig{
		Src:     in.Pattern,
		Flags:   config.Flags,
		Engine:  config.Engine,
		Timeout: config.Timeout,
	})
	if err != nil {
		return 0, fmt.Errorf("compile pattern: %w", err)
	}

	n := 0
	var writeErr error
	err = Search(in, p, func(m MatchData) {
		if writeErr != nil {
			return
		}
		if config.Accept != nil && !config.Accept(in, m) {
			return
		}
		if _, err := fmt.Fprintln(w, FormatMatch(m)); err != nil {
			writeErr = err
			return
		}
		n++
	})
	if err != nil {
		return n, fmt.Errorf("search: %w", err)
	}
	return n, writeErr
}
