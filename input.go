// Package rxoffsets finds regexp matches in an editor scratch file
// and reports them as character offsets.
package rxoffsets

import (
	"strings"
	"unicode/utf8"
)

// Input is a scratch file split into a pattern line and the text to search.
type Input struct {
	// Content is the whole blob with surrounding whitespace trimmed.
	// All reported offsets are relative to it.
	Content string

	Pattern string
	Text    string
}

// SplitInput trims blob and splits it on the first newline.
// It reports false when there is no separator; callers treat that
// as "nothing to do", not as an error.
//
// "\r\n" and a lone "\r" are read as "\n", the way text-mode
// file reads see them.
func SplitInput(blob string) (Input, bool) {
	content := strings.TrimSpace(newlineReplacer.Replace(blob))
	i := strings.IndexByte(content, '\n')
	if i == -1 {
		return Input{}, false
	}
	return Input{
		Content: content,
		Pattern: content[:i],
		Text:    content[i+1:],
	}, true
}

var newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Base is the offset base: the number of characters that precede Text
// inside Content.
func (in Input) Base() int {
	return utf8.RuneCountInString(in.Content) - utf8.RuneCountInString(in.Text)
}
