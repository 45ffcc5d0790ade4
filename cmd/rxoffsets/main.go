package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"text/template"
	"text/template/parse"
	"time"

	"github.com/edevtools/rxoffsets"
	"github.com/edevtools/rxoffsets/filters"
)

const (
	exitOK    = 0
	exitError = 2
)

const defaultFormat = `{{.Offsets}}`

func main() {
	exitCode, err := mainNoExit(os.Args[1:], os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
	}
	os.Exit(exitCode)
}

func mainNoExit(argv []string, stdout io.Writer) (int, error) {
	log.SetFlags(0)

	var args arguments
	if err := parseFlags(&args, argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, nil
		}
		return exitError, err
	}

	p := &program{
		args:   args,
		stdout: stdout,
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"validate flags", p.validateFlags},
		{"start profiling", p.startProfiling},
		{"read input", p.readInput},
		{"compile pattern", p.compilePattern},
		{"compile filter", p.compileFilter},
		{"compile output format", p.compileOutputFormat},
		{"execute pattern", p.executePattern},
		{"print matches", p.printMatches},
		{"finish profiling", p.finishProfiling},
	}

	for _, step := range steps {
		if args.verbose {
			log.Printf("debug: starting %q step", step.name)
		}
		if err := step.fn(); err != nil {
			return exitError, fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return exitOK, nil
}

type arguments struct {
	verbose   bool
	multiline bool

	engine  string
	timeout time.Duration

	format string

	noColor    bool
	matchColor string

	cpuProfile string
	memProfile string

	filename string
	flags    string
	filter   string
}

func parseFlags(args *arguments, argv []string) error {
	fs := flag.NewFlagSet("rxoffsets", flag.ContinueOnError)
	fs.Usage = func() {
		const usage = `Usage: rxoffsets [flags...] file [regexp-flags]
Where:
  flags are command-line arguments that are listed in -help (see below)
  file is a scratch file: the first line is a pattern, the rest is a text to search
  regexp-flags is a string of m (multiline), i (ignore case) and d (dot matches newline)
Output:
  one line per match: start-end for the whole match followed by
  ,start-end for every capture group that participated in the match;
  offsets are in characters relative to the trimmed file contents,
  end offsets are inclusive
Examples:
  # Print match offsets, case-insensitive.
  rxoffsets /tmp/scratch.txt i
  # Use a backtracking engine to get lookarounds and backreferences.
  rxoffsets -engine backtrack /tmp/scratch.txt
  # Report only matches where the first group matched.
  rxoffsets -filter '$1.Matched()' /tmp/scratch.txt
  # Show matched lines instead of offsets.
  rxoffsets -format '{{.Line}}: {{.MatchLine}}' /tmp/scratch.txt

Exit status:
  0 on success, even if nothing is matched
  2 if error occurred

Supported command-line flags:
`
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	fs.BoolVar(&args.verbose, "v", false,
		`verbose mode: turn on additional debug logging`)
	fs.StringVar(&args.memProfile, "memprofile", "",
		`write memory profile to the specified file`)
	fs.StringVar(&args.cpuProfile, "cpuprofile", "",
		`write CPU profile to the specified file`)

	fs.StringVar(&args.engine, "engine", envVarOrDefault("RXOFFSETS_ENGINE", "re2"),
		`regexp engine: "re2" or "backtrack", can also override via $RXOFFSETS_ENGINE`)
	fs.DurationVar(&args.timeout, "timeout", 5*time.Second,
		`match timeout for the backtrack engine, 0 for unlimited`)
	fs.StringVar(&args.filter, "filter", "",
		`Go expression that rejects matches, like '$1.Matched() && $$.Text() != "x"'`)
	fs.StringVar(&args.format, "format", defaultFormat,
		`specify an alternate format for the output, using the syntax Go templates`)
	fs.BoolVar(&args.multiline, "m", false,
		`multiline mode: print {{.Match}} and {{.MatchLine}} without escaping newlines to \n`)

	fs.BoolVar(&args.noColor, "no-color", false,
		`disable colored output`)
	fs.StringVar(&args.matchColor, "color-match", envVarOrDefault("RXOFFSETS_COLOR_MATCH", "dark-red"),
		`{{.Match}} text color, can also override via $RXOFFSETS_COLOR_MATCH`)

	if err := fs.Parse(argv); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) != 0 {
		args.filename = rest[0]
	}
	if len(rest) >= 2 {
		args.flags = rest[1]
	}

	if args.verbose {
		log.Printf("debug: file: %s", args.filename)
		log.Printf("debug: regexp flags: %q", args.flags)
		log.Printf("debug: filter: %s", args.filter)
	}
	return nil
}

type program struct {
	args arguments

	stdout io.Writer

	engine rxoffsets.Engine
	flags  rxoffsets.Flags
	colors bool

	// input is valid only when hasInput is true.
	input    rxoffsets.Input
	hasInput bool

	pattern *rxoffsets.Pattern

	filterInfo filters.Info
	filterExpr *filters.Expr
	filterVars []int

	w *worker

	outputTemplate *template.Template

	cpuProfile bytes.Buffer
}

func (p *program) validateFlags() error {
	if p.args.filename == "" {
		return fmt.Errorf("file can't be empty")
	}

	engine, err := rxoffsets.ParseEngine(p.args.engine)
	if err != nil {
		return fmt.Errorf("engine: %v", err)
	}
	p.engine = engine

	if p.args.timeout < 0 {
		return fmt.Errorf("timeout: negative duration %s", p.args.timeout)
	}

	if _, err := colorizeText("", p.args.matchColor); err != nil {
		return fmt.Errorf("color-match: %v", err)
	}
	p.colors = !p.args.noColor && isTerminal(p.stdout)

	p.flags = rxoffsets.ParseFlags(p.args.flags)
	if p.args.verbose {
		log.Printf("debug: engine=%s flags=%q colors=%v", p.engine, p.flags, p.colors)
	}

	return nil
}

func (p *program) startProfiling() error {
	if p.args.cpuProfile == "" {
		return nil
	}

	if err := pprof.StartCPUProfile(&p.cpuProfile); err != nil {
		return fmt.Errorf("could not start CPU profile: %v", err)
	}

	return nil
}

func (p *program) readInput() error {
	data, err := os.ReadFile(p.args.filename)
	if err != nil {
		return err
	}
	p.input, p.hasInput = rxoffsets.SplitInput(string(data))
	if !p.hasInput && p.args.verbose {
		log.Printf("debug: no pattern/text separator, nothing to do")
	}
	return nil
}

func (p *program) compilePattern() error {
	if !p.hasInput {
		return nil
	}
	config := rxoffsets.CompileConfig{
		Src:     p.input.Pattern,
		Flags:   p.flags,
		Engine:  p.engine,
		Timeout: p.args.timeout,
	}
	pattern, err := rxoffsets.Compile(config)
	if err != nil {
		return err
	}
	p.pattern = pattern
	return nil
}

func (p *program) compileFilter() error {
	varOps := map[string]filters.Operation{
		"Matched": opVarMatched,
		"IsEmpty": opVarIsEmpty,
		"Text":    opVarText,
	}
	optab := filters.NewOperationTable(varOps)
	expr, info, err := filters.Parse(optab, p.args.filter)
	if err != nil {
		return err
	}
	if err := checkFilterCond(&info, expr); err != nil {
		return err
	}
	p.filterInfo = info
	p.filterExpr = expr
	if p.args.verbose && len(info.Vars) != 0 {
		log.Printf("debug: filter vars: %s", p.filterInfo.String())
	}

	if p.pattern == nil {
		return nil
	}
	p.filterVars = make([]int, len(info.Vars))
	var resolveErr error
	filters.Walk(expr, func(e *filters.Expr) bool {
		if resolveErr != nil {
			return false
		}
		if e.Op.IsBuiltin() {
			return true
		}
		group, err := resolveFilterVar(p.pattern, e.Str)
		if err != nil {
			resolveErr = err
			return false
		}
		p.filterVars[e.Num] = group
		return true
	})
	return resolveErr
}

func (p *program) compileOutputFormat() error {
	format := p.args.format
	var err error
	p.outputTemplate, err = template.New("output-format").Parse(format)
	if err != nil {
		return err
	}
	return nil
}

func (p *program) executePattern() error {
	if !p.hasInput {
		return nil
	}

	p.w = newWorker(p.input, usedTemplateFields(p.outputTemplate))
	accept := func(m rxoffsets.MatchData) bool {
		return applyFilter(p.filterExpr, p.filterVars, p.w.content, m)
	}
	if err := p.w.grep(p.pattern, accept); err != nil {
		return err
	}
	if p.args.verbose {
		log.Printf("debug: found %d matches", len(p.w.matches))
	}
	return nil
}

func (p *program) printMatches() error {
	if p.w == nil {
		return nil
	}
	for _, m := range p.w.matches {
		if err := p.printMatch(m); err != nil {
			return err
		}
	}
	return nil
}

func (p *program) finishProfiling() error {
	if p.args.cpuProfile != "" {
		pprof.StopCPUProfile()
		err := os.WriteFile(p.args.cpuProfile, p.cpuProfile.Bytes(), 0o600)
		if err != nil {
			return fmt.Errorf("write CPU profile: %v", err)
		}
	}

	if p.args.memProfile != "" {
		f, err := os.Create(p.args.memProfile)
		if err != nil {
			return fmt.Errorf("create mem profile: %v", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("write mem profile: %v", err)
		}
	}

	return nil
}

func (p *program) printMatch(m match) error {
	s, err := renderTemplate(m, renderConfig{
		tmpl:       p.outputTemplate,
		colors:     p.colors,
		multiline:  p.args.multiline,
		matchColor: p.args.matchColor,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.stdout, s)
	return err
}

type renderConfig struct {
	tmpl       *template.Template
	colors     bool
	multiline  bool
	matchColor string
}

func renderTemplate(m match, config renderConfig) (string, error) {
	data := make(map[string]interface{}, 4)

	data["Offsets"] = m.offsets
	data["Line"] = m.line
	data["Match"] = m.text
	data["MatchLine"] = m.before + m.text + m.after

	if config.colors {
		colored := mustColorizeText(m.text, config.matchColor)
		data["Match"] = colored
		data["MatchLine"] = m.before + colored + m.after
	}

	if !config.multiline {
		data["Match"] = strings.ReplaceAll(data["Match"].(string), "\n", `\n`)
		data["MatchLine"] = strings.ReplaceAll(data["MatchLine"].(string), "\n", `\n`)
	}

	var buf strings.Builder
	if err := config.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// usedTemplateFields reports which match fields tmpl refers to.
// A bare dot passes the whole record, so it counts as every field.
func usedTemplateFields(tmpl *template.Template) matchFields {
	var fields matchFields
	markField := func(name string) {
		switch name {
		case "Line":
			fields.line = true
		case "Match":
			fields.text = true
		case "MatchLine":
			fields.matchLine = true
		}
	}

	var walk func(n parse.Node)
	walkBranch := func(n *parse.BranchNode) {
		walk(n.Pipe)
		walk(n.List)
		walk(n.ElseList)
	}
	walk = func(n parse.Node) {
		switch n := n.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, x := range n.Nodes {
				walk(x)
			}
		case *parse.PipeNode:
			if n == nil {
				return
			}
			for _, cmd := range n.Cmds {
				walk(cmd)
			}
		case *parse.ActionNode:
			walk(n.Pipe)
		case *parse.CommandNode:
			for _, arg := range n.Args {
				walk(arg)
			}
		case *parse.ChainNode:
			walk(n.Node)
		case *parse.IfNode:
			walkBranch(&n.BranchNode)
		case *parse.RangeNode:
			walkBranch(&n.BranchNode)
		case *parse.WithNode:
			walkBranch(&n.BranchNode)
		case *parse.TemplateNode:
			walk(n.Pipe)
		case *parse.FieldNode:
			markField(n.Ident[0])
		case *parse.VariableNode:
			if len(n.Ident) > 1 && n.Ident[0] == "$" {
				markField(n.Ident[1])
			} else if len(n.Ident) == 1 && n.Ident[0] == "$" {
				fields = matchFields{line: true, text: true, matchLine: true}
			}
		case *parse.DotNode:
			fields = matchFields{line: true, text: true, matchLine: true}
		}
	}

	for _, t := range tmpl.Templates() {
		if t.Tree != nil {
			walk(t.Tree.Root)
		}
	}
	return fields
}
