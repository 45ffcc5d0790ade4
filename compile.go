package rxoffsets

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Engine selects the regular expression implementation.
type Engine int

const (
	// EngineRE2 uses the standard library regexp package.
	// It runs in linear time but has no lookaround or backreferences.
	EngineRE2 Engine = iota

	// EngineBacktrack uses a backtracking engine with a syntax close
	// to Python and Java patterns.
	EngineBacktrack
)

func (e Engine) String() string {
	switch e {
	case EngineRE2:
		return "re2"
	case EngineBacktrack:
		return "backtrack"
	default:
		return "Engine(" + strconv.Itoa(int(e)) + ")"
	}
}

// ParseEngine maps an engine name to Engine.
func ParseEngine(name string) (Engine, error) {
	switch name {
	case "", "re2":
		return EngineRE2, nil
	case "backtrack", "regexp2":
		return EngineBacktrack, nil
	default:
		return 0, fmt.Errorf("unknown engine %q", name)
	}
}

type CompileConfig struct {
	// Src is a pattern source text.
	Src string

	Flags Flags

	Engine Engine

	// Timeout limits a single match attempt for EngineBacktrack.
	// Zero means no limit. Ignored by EngineRE2.
	Timeout time.Duration
}

// Pattern is a compiled regular expression that reports
// character (not byte) offsets.
type Pattern struct {
	engine Engine

	re  *regexp.Regexp
	re2 *regexp2.Regexp

	names []string
}

func Compile(config CompileConfig) (*Pattern, error) {
	p := &Pattern{engine: config.Engine}
	switch config.Engine {
	case EngineRE2:
		re, err := regexp.Compile(config.Flags.re2Prefix() + config.Src)
		if err != nil {
			return nil, err
		}
		p.re = re
		p.names = re.SubexpNames()

	case EngineBacktrack:
		var opts regexp2.RegexOptions
		if config.Flags.Multiline {
			opts |= regexp2.Multiline
		}
		if config.Flags.IgnoreCase {
			opts |= regexp2.IgnoreCase
		}
		if config.Flags.DotAll {
			opts |= regexp2.Singleline
		}
		re, err := regexp2.Compile(config.Src, opts)
		if err != nil {
			return nil, err
		}
		if config.Timeout > 0 {
			re.MatchTimeout = config.Timeout
		}
		p.re2 = re
		p.names = backtrackGroupNames(re)

	default:
		return nil, fmt.Errorf("unsupported engine: %v", config.Engine)
	}
	return p, nil
}

// NumGroups reports the number of capture groups, not counting the whole match.
func (p *Pattern) NumGroups() int { return len(p.names) - 1 }

// GroupNames returns the group names indexed by group number.
// Unnamed groups have an empty name; index 0 is the whole match.
func (p *Pattern) GroupNames() []string { return p.names }

// GroupIndex returns the number of the group called name, or -1.
func (p *Pattern) GroupIndex(name string) int {
	for i, n := range p.names {
		if n != "" && n == name {
			return i
		}
	}
	return -1
}

// FindAll scans text left to right and calls callback for every
// non-overlapping match. Offsets are relative to text.
func (p *Pattern) FindAll(text string, callback func(MatchData)) error {
	if p.re != nil {
		p.findAllRE2(text, callback)
		return nil
	}
	return p.findAllBacktrack(text, callback)
}

func (p *Pattern) findAllRE2(text string, callback func(MatchData)) {
	all := p.re.FindAllStringSubmatchIndex(text, -1)
	if len(all) == 0 {
		return
	}
	runeIndex := runeIndexTable(text)
	for _, loc := range all {
		m := MatchData{Spans: make([]Span, len(loc)/2)}
		for i := range m.Spans {
			start, end := loc[2*i], loc[2*i+1]
			if start < 0 {
				m.Spans[i] = Span{Start: -1, End: -1}
				continue
			}
			m.Spans[i] = Span{Start: runeIndex[start], End: runeIndex[end]}
		}
		callback(m)
	}
}

func (p *Pattern) findAllBacktrack(text string, callback func(MatchData)) error {
	match, err := p.re2.FindStringMatch(text)
	for match != nil && err == nil {
		groups := match.Groups()
		m := MatchData{Spans: make([]Span, len(groups))}
		for i, g := range groups {
			if len(g.Captures) == 0 {
				m.Spans[i] = Span{Start: -1, End: -1}
				continue
			}
			m.Spans[i] = Span{Start: g.Index, End: g.Index + g.Length}
		}
		callback(m)
		match, err = p.re2.FindNextMatch(match)
	}
	return err
}

// runeIndexTable maps every byte offset of s (including len(s))
// to a character offset.
func runeIndexTable(s string) []int {
	table := make([]int, len(s)+1)
	n := 0
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		for j := 0; j < size; j++ {
			table[i+j] = n
		}
		i += size
		n++
	}
	table[len(s)] = n
	return table
}

func backtrackGroupNames(re *regexp2.Regexp) []string {
	numbers := re.GetGroupNumbers()
	names := make([]string, len(numbers))
	for _, name := range re.GetGroupNames() {
		num := re.GroupNumberFromName(name)
		if num < 0 || num >= len(names) {
			continue
		}
		if name != strconv.Itoa(num) {
			names[num] = name
		}
	}
	return names
}
