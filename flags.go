package rxoffsets

import (
	"strings"
)

// Flags is a set of regex engine options.
type Flags struct {
	Multiline  bool
	IgnoreCase bool
	DotAll     bool
}

// ParseFlags builds Flags from a short flag string like "mi".
// Characters other than m, i and d are ignored.
func ParseFlags(s string) Flags {
	return Flags{
		Multiline:  strings.ContainsRune(s, 'm'),
		IgnoreCase: strings.ContainsRune(s, 'i'),
		DotAll:     strings.ContainsRune(s, 'd'),
	}
}

func (f Flags) String() string {
	var sb strings.Builder
	if f.Multiline {
		sb.WriteByte('m')
	}
	if f.IgnoreCase {
		sb.WriteByte('i')
	}
	if f.DotAll {
		sb.WriteByte('d')
	}
	return sb.String()
}

// re2Prefix returns the inline flag group for the stdlib engine.
func (f Flags) re2Prefix() string {
	var sb strings.Builder
	if f.Multiline {
		sb.WriteByte('m')
	}
	if f.IgnoreCase {
		sb.WriteByte('i')
	}
	if f.DotAll {
		sb.WriteByte('s')
	}
	if sb.Len() == 0 {
		return ""
	}
	return "(?" + sb.String() + ")"
}
