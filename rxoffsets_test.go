package rxoffsets

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type runTest struct {
	blob  string
	flags string
	want  []string
}

func runLines(t *testing.T, blob string, config RunConfig) []string {
	t.Helper()
	var buf strings.Builder
	n, err := Run(blob, config, &buf)
	if err != nil {
		t.Fatalf("run %q: %v", blob, err)
	}
	lines := strings.Fields(buf.String())
	if n != len(lines) {
		t.Fatalf("run %q: reported %d matches, printed %d", blob, n, len(lines))
	}
	if len(lines) == 0 {
		return nil
	}
	return lines
}

func runTests(t *testing.T, engine Engine, tests []runTest) {
	t.Helper()
	for i := range tests {
		test := tests[i]
		t.Run(fmt.Sprintf("test%d", i), func(t *testing.T) {
			config := RunConfig{Flags: ParseFlags(test.flags), Engine: engine}
			have := runLines(t, test.blob, config)
			if diff := cmp.Diff(test.want, have); diff != "" {
				t.Errorf("run %q with %q flags (-want +have):\n%s", test.blob, test.flags, diff)
			}
		})
	}
}

var commonRunTests = []runTest{
	// No separator, nothing to do.
	{"abc", "", nil},
	{"abc\n", "", nil},
	{"  abc  \n\n ", "mid", nil},
	{"", "", nil},

	{"abc\nabcabc", "", []string{"4-6", "7-9"}},
	{"a\nxax", "", []string{"3-3"}},
	{"abc\nxyz", "", nil},

	// Surrounding whitespace is trimmed before computing the base.
	{"  \nabc\nxabc\n\n", "", []string{"5-7"}},

	{"ABC\nxabc", "", nil},
	{"ABC\nxabc", "i", []string{"5-7"}},

	{"^b\na\nb", "", nil},
	{"^b\na\nb", "m", []string{"5-5"}},

	{"a.b\na\nb", "", nil},
	{"a.b\na\nb", "d", []string{"4-6"}},

	// Unknown flag chars are ignored.
	{"ABC\nabc", "xyzi", []string{"4-6"}},

	// Non-participating groups are omitted.
	{"(a)|(b)\nab", "", []string{"8-8,8-8", "9-9,9-9"}},
	{"(a)(x)?(b)\nab", "", []string{"11-12,11-11,12-12"}},

	// Participating empty group.
	{"a(b*)\nac", "", []string{"6-6,7-6"}},

	// Carriage returns are read as newlines.
	{"abc\r\nxabc\r\nabc\r\n", "", []string{"5-7", "9-11"}},
	{"a\rxa", "", []string{"3-3"}},
	{"^b\r\na\r\nb", "m", []string{"5-5"}},

	// Offsets are in characters, not bytes.
	{"é\nééé", "", []string{"2-2", "3-3", "4-4"}},
	{"b\nébé", "", []string{"3-3"}},
}

func TestRunRE2(t *testing.T) {
	tests := append([]runTest{
		{"x*\nyy", "", []string{"3-2", "4-3", "5-4"}},
		// An empty match right after a non-empty one is skipped.
		{"a*\nbaa", "", []string{"3-2", "4-5"}},
	}, commonRunTests...)
	runTests(t, EngineRE2, tests)
}

func TestRunBacktrack(t *testing.T) {
	tests := append([]runTest{
		{"a(?=b)\nabac", "", []string{"7-7"}},
		{`(a)\1` + "\naa", "", []string{"6-7,6-6"}},
		// Unlike re2, an empty match right after a non-empty one is reported.
		{"a*\nbaa", "", []string{"3-2", "4-5", "6-5"}},
	}, commonRunTests...)
	runTests(t, EngineBacktrack, tests)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		blob   string
		engine Engine
	}{
		{"(\ntext", EngineRE2},
		{"(\ntext", EngineBacktrack},
		{"[a-\ntext", EngineRE2},
		{"a(?=b)\nab", EngineRE2},
	}

	for i := range tests {
		test := tests[i]
		t.Run(fmt.Sprintf("test%d", i), func(t *testing.T) {
			var buf strings.Builder
			_, err := Run(test.blob, RunConfig{Engine: test.engine}, &buf)
			if err == nil {
				t.Fatalf("expected %q to fail with %s engine", test.blob, test.engine)
			}
			if !strings.HasPrefix(err.Error(), "compile pattern: ") {
				t.Fatalf("unexpected error: %v", err)
			}
			if buf.Len() != 0 {
				t.Fatalf("unexpected output: %q", buf.String())
			}
		})
	}
}

func TestRunTimeout(t *testing.T) {
	blob := "(a+)+$\n" + strings.Repeat("a", 40) + "b"
	config := RunConfig{Engine: EngineBacktrack, Timeout: 10 * time.Millisecond}
	_, err := Run(blob, config, &strings.Builder{})
	if err == nil {
		t.Fatal("expected a timeout error")
	}
}

func TestRunAccept(t *testing.T) {
	config := RunConfig{
		Accept: func(in Input, m MatchData) bool {
			return m.Text(in.Content, 0) != "ab"
		},
	}
	have := runLines(t, "a\\w\nab ac ab ad", config)
	want := []string{"7-8", "13-14"}
	if diff := cmp.Diff(want, have); diff != "" {
		t.Errorf("accept (-want +have):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	blob := "([a-zé]+)(\\d)?\nfoo1 bär ébc9 x"
	// "bär" yields "b" and "r" as ä is not in the class.
	want := []string{"foo1", "foo", "1", "b", "b", "r", "r", "ébc9", "ébc", "9", "x", "x"}

	for _, engine := range []Engine{EngineRE2, EngineBacktrack} {
		in, ok := SplitInput(blob)
		if !ok {
			t.Fatal("split failed")
		}
		p, err := Compile(CompileConfig{Src: in.Pattern, Engine: engine})
		if err != nil {
			t.Fatal(err)
		}
		var have []string
		err = Search(in, p, func(m MatchData) {
			for i := range m.Spans {
				if _, ok := m.Group(i); ok {
					have = append(have, m.Text(in.Content, i))
				}
			}
		})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, have); diff != "" {
			t.Errorf("%s engine (-want +have):\n%s", engine, diff)
		}
	}
}

func TestSplitInput(t *testing.T) {
	tests := []struct {
		blob string
		ok   bool
		want Input
		base int
	}{
		{"abc", false, Input{}, 0},
		{"\n\n", false, Input{}, 0},
		{"a\nb", true, Input{Content: "a\nb", Pattern: "a", Text: "b"}, 2},
		{" a\nb\nc \n", true, Input{Content: "a\nb\nc", Pattern: "a", Text: "b\nc"}, 2},
		{"ü+\nüü", true, Input{Content: "ü+\nüü", Pattern: "ü+", Text: "üü"}, 3},
		{"a\r\nb", true, Input{Content: "a\nb", Pattern: "a", Text: "b"}, 2},
		{"a\rb\r\nc\r", true, Input{Content: "a\nb\nc", Pattern: "a", Text: "b\nc"}, 2},
		{"a\r", false, Input{}, 0},
	}

	for i := range tests {
		test := tests[i]
		t.Run(fmt.Sprintf("test%d", i), func(t *testing.T) {
			have, ok := SplitInput(test.blob)
			if ok != test.ok {
				t.Fatalf("split %q: have ok=%v, want %v", test.blob, ok, test.ok)
			}
			if diff := cmp.Diff(test.want, have); diff != "" {
				t.Fatalf("split %q (-want +have):\n%s", test.blob, diff)
			}
			if ok && have.Base() != test.base {
				t.Fatalf("base %q: have %d, want %d", test.blob, have.Base(), test.base)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		input string
		want  Flags
		str   string
	}{
		{"", Flags{}, ""},
		{"m", Flags{Multiline: true}, "m"},
		{"i", Flags{IgnoreCase: true}, "i"},
		{"d", Flags{DotAll: true}, "d"},
		{"dim", Flags{Multiline: true, IgnoreCase: true, DotAll: true}, "mid"},
		{"xqz", Flags{}, ""},
		{"mm-i", Flags{Multiline: true, IgnoreCase: true}, "mi"},
	}

	for i := range tests {
		test := tests[i]
		t.Run(fmt.Sprintf("test%d", i), func(t *testing.T) {
			have := ParseFlags(test.input)
			if diff := cmp.Diff(test.want, have); diff != "" {
				t.Fatalf("parse %q (-want +have):\n%s", test.input, diff)
			}
			if have.String() != test.str {
				t.Fatalf("string %q: have %q, want %q", test.input, have.String(), test.str)
			}
		})
	}
}

func TestFormatMatch(t *testing.T) {
	tests := []struct {
		spans []Span
		want  string
	}{
		{[]Span{{0, 1}}, "0-0"},
		{[]Span{{4, 4}}, "4-3"},
		{[]Span{{3, 9}, {3, 5}, {-1, -1}, {6, 9}}, "3-8,3-4,6-8"},
		{[]Span{{3, 9}, {-1, -1}, {-1, -1}}, "3-8"},
	}

	for i := range tests {
		test := tests[i]
		t.Run(fmt.Sprintf("test%d", i), func(t *testing.T) {
			have := FormatMatch(MatchData{Spans: test.spans})
			if have != test.want {
				t.Fatalf("format %v: have %q, want %q", test.spans, have, test.want)
			}
		})
	}
}

func TestGroupNames(t *testing.T) {
	tests := []struct {
		src    string
		engine Engine
		want   []string
	}{
		{`abc`, EngineRE2, []string{""}},
		{`(a)(?P<word>\w+)`, EngineRE2, []string{"", "", "word"}},
		{`abc`, EngineBacktrack, []string{""}},
		{`(a)(?<word>\w+)`, EngineBacktrack, []string{"", "", "word"}},
	}

	for i := range tests {
		test := tests[i]
		t.Run(fmt.Sprintf("test%d", i), func(t *testing.T) {
			p, err := Compile(CompileConfig{Src: test.src, Engine: test.engine})
			if err != nil {
				t.Fatalf("compile %q: %v", test.src, err)
			}
			if diff := cmp.Diff(test.want, p.GroupNames()); diff != "" {
				t.Fatalf("names %q (-want +have):\n%s", test.src, diff)
			}
			if p.NumGroups() != len(test.want)-1 {
				t.Fatalf("num groups %q: have %d", test.src, p.NumGroups())
			}
			if len(test.want) == 3 && p.GroupIndex("word") != 2 {
				t.Fatalf("group index %q: have %d", test.src, p.GroupIndex("word"))
			}
		})
	}
}

func TestParseEngine(t *testing.T) {
	for _, name := range []string{"", "re2", "backtrack", "regexp2"} {
		if _, err := ParseEngine(name); err != nil {
			t.Errorf("parse %q: %v", name, err)
		}
	}
	if _, err := ParseEngine("pcre"); err == nil {
		t.Errorf("expected pcre to be rejected")
	}
}

func BenchmarkRun(b *testing.B) {
	blob := "(\\w+)@(\\w+)\\.com\n" + strings.Repeat("mail foo@example.com to bär@test.com\n", 100)
	engines := []Engine{EngineRE2, EngineBacktrack}
	for _, engine := range engines {
		b.Run(engine.String(), func(b *testing.B) {
			config := RunConfig{Engine: engine}
			for i := 0; i < b.N; i++ {
				if _, err := Run(blob, config, &strings.Builder{}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
