package main

type match struct {
	// offsets is a formatted match offsets line.
	offsets string

	// line is a 1-based line number inside the trimmed input,
	// the pattern is line 1.
	line int

	// before and after complete the matched text to the full lines it touches.
	before string
	text   string
	after  string
}
