package main

import (
	"github.com/edevtools/rxoffsets"
)

// matchFields tells which match record fields the output needs
// beyond the offsets line.
type matchFields struct {
	line      bool
	text      bool
	matchLine bool
}

type worker struct {
	input  rxoffsets.Input
	fields matchFields

	// content is input.Content split into characters,
	// match offsets index it directly.
	content []rune

	// Matches arrive in order, so line numbers are counted
	// from the previous match position.
	linePos int
	line    int

	matches []match
}

func newWorker(input rxoffsets.Input, fields matchFields) *worker {
	return &worker{
		input:   input,
		fields:  fields,
		content: []rune(input.Content),
		line:    1,
	}
}

func (w *worker) grep(p *rxoffsets.Pattern, accept func(rxoffsets.MatchData) bool) error {
	return rxoffsets.Search(w.input, p, func(data rxoffsets.MatchData) {
		if accept != nil && !accept(data) {
			return
		}
		span := data.Spans[0]
		m := match{offsets: rxoffsets.FormatMatch(data)}
		if w.fields.line {
			m.line = w.lineOf(span.Start)
		}
		if w.fields.text || w.fields.matchLine {
			m.text = string(w.content[span.Start:span.End])
		}
		if w.fields.matchLine {
			w.initLineContext(&m, span.Start, span.End)
		}
		w.matches = append(w.matches, m)
	})
}

func (w *worker) lineOf(pos int) int {
	if pos < w.linePos {
		w.linePos = 0
		w.line = 1
	}
	for _, ch := range w.content[w.linePos:pos] {
		if ch == '\n' {
			w.line++
		}
	}
	w.linePos = pos
	return w.line
}

func (w *worker) initLineContext(m *match, startPos, endPos int) {
	isNewline := func(ch rune) bool {
		return ch == '\n' || ch == '\r'
	}

	start := startPos
	for start > 0 && !isNewline(w.content[start-1]) {
		start--
	}
	end := endPos
	for end < len(w.content) && !isNewline(w.content[end]) {
		end++
	}

	m.before = string(w.content[start:startPos])
	m.after = string(w.content[endPos:end])
}
