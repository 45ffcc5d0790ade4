package main

import (
	"fmt"
	"log"
	"strconv"

	"github.com/edevtools/rxoffsets"
	"github.com/edevtools/rxoffsets/filters"
)

const (
	opVarMatched filters.Operation = iota + 1
	opVarIsEmpty
	opVarText
)

// resolveFilterVar maps a filter variable name to a group number of p.
func resolveFilterVar(p *rxoffsets.Pattern, varname string) (int, error) {
	if filters.IsRootVarname(varname) {
		return 0, nil
	}
	if n, err := strconv.Atoi(varname); err == nil {
		if n < 0 || n > p.NumGroups() {
			return 0, fmt.Errorf("$%s: pattern has %d groups", varname, p.NumGroups())
		}
		return n, nil
	}
	if n := p.GroupIndex(varname); n != -1 {
		return n, nil
	}
	return 0, fmt.Errorf("$%s: no such named group", varname)
}

// checkFilterCond rejects filters that are not boolean conditions,
// like a bare string literal or a comparison against Matched().
func checkFilterCond(info *filters.Info, f *filters.Expr) error {
	switch f.Op {
	case filters.OpNop, opVarMatched, opVarIsEmpty:
		return nil
	case filters.OpNot:
		return checkFilterCond(info, f.Args[0])
	case filters.OpAnd, filters.OpOr:
		if err := checkFilterCond(info, f.Args[0]); err != nil {
			return err
		}
		return checkFilterCond(info, f.Args[1])
	case filters.OpEq, filters.OpNotEq:
		if err := checkFilterString(info, f.Args[0]); err != nil {
			return err
		}
		return checkFilterString(info, f.Args[1])
	default:
		return fmt.Errorf("%s is not a condition", filters.Sprint(info, f))
	}
}

func checkFilterString(info *filters.Info, f *filters.Expr) error {
	switch f.Op {
	case filters.OpString, opVarText:
		return nil
	default:
		return fmt.Errorf("%s is not a string", filters.Sprint(info, f))
	}
}

// applyFilter reports whether m should be kept.
// vars maps filter variable IDs to group numbers.
func applyFilter(f *filters.Expr, vars []int, content []rune, m rxoffsets.MatchData) bool {
	switch f.Op {
	case filters.OpNop:
		return true

	case filters.OpNot:
		return !applyFilter(f.Args[0], vars, content, m)

	case filters.OpAnd:
		return applyFilter(f.Args[0], vars, content, m) && applyFilter(f.Args[1], vars, content, m)

	case filters.OpOr:
		return applyFilter(f.Args[0], vars, content, m) || applyFilter(f.Args[1], vars, content, m)

	case filters.OpEq:
		return filterString(f.Args[0], vars, content, m) == filterString(f.Args[1], vars, content, m)
	case filters.OpNotEq:
		return filterString(f.Args[0], vars, content, m) != filterString(f.Args[1], vars, content, m)

	case opVarMatched:
		_, ok := m.Group(vars[f.Num])
		return ok

	case opVarIsEmpty:
		span, ok := m.Group(vars[f.Num])
		return ok && span.Start == span.End

	default:
		log.Printf("error: can't handle %s filter op as a condition", f.Op)
	}

	return true
}

func filterString(f *filters.Expr, vars []int, content []rune, m rxoffsets.MatchData) string {
	switch f.Op {
	case filters.OpString:
		return f.Str
	case opVarText:
		span, ok := m.Group(vars[f.Num])
		if !ok {
			return ""
		}
		return string(content[span.Start:span.End])
	default:
		log.Printf("error: can't handle %s filter op as a string", f.Op)
		return ""
	}
}
