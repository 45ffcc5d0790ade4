package rxoffsets

import (
	"strconv"
	"strings"
)

// Span is a half-open [Start, End) character range.
// A span with Start == -1 belongs to a group that did not participate.
type Span struct {
	Start int
	End   int
}

func (s Span) Matched() bool { return s.Start >= 0 }

func (s Span) shift(delta int) Span {
	if !s.Matched() {
		return s
	}
	return Span{Start: s.Start + delta, End: s.End + delta}
}

// MatchData describes a single match.
// Spans[0] is the whole match, Spans[i] is the i-th capture group.
type MatchData struct {
	Spans []Span
}

// Group returns the span of the i-th group (0 is the whole match).
// The second result is false if the group is out of range or did not participate.
func (m MatchData) Group(i int) (Span, bool) {
	if i < 0 || i >= len(m.Spans) {
		return Span{Start: -1, End: -1}, false
	}
	s := m.Spans[i]
	return s, s.Matched()
}

// Text slices s by the i-th group span.
// s must be the string the offsets are relative to.
func (m MatchData) Text(s string, i int) string {
	span, ok := m.Group(i)
	if !ok {
		return ""
	}
	return sliceRunes(s, span.Start, span.End)
}

// FormatMatch renders m the way editors expect it:
// "start-end" for the whole match followed by ",start-end" for every
// group that participated. end is inclusive, so an empty match
// at position 5 prints as "5-4".
func FormatMatch(m MatchData) string {
	var sb strings.Builder
	for i, s := range m.Spans {
		if !s.Matched() {
			continue
		}
		if i != 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(s.Start))
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(s.End - 1))
	}
	return sb.String()
}

func sliceRunes(s string, start, end int) string {
	i := 0
	from, to := -1, len(s)
	for pos := range s {
		if i == start {
			from = pos
		}
		if i == end {
			to = pos
			break
		}
		i++
	}
	if from == -1 {
		// start is at (or past) the end of s.
		return ""
	}
	return s[from:to]
}
