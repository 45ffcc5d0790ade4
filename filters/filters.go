// Package filters implements a tiny Go-like expression language
// that is used to reject regexp matches.
//
// Pattern groups are referenced as variables:
// $$ is the whole match, $1, $2, ... are numbered groups
// and $name is a named group.
//
//	$1.Matched() && $name.Text() != "foo"
package filters

import (
	"fmt"
	"math"
	"strings"
)

type Info struct {
	Vars []string

	OpTab *OperationsTable
}

// IsRootVarname reports whether varname refers to the whole match ($$).
func IsRootVarname(varname string) bool {
	return varname == dollardollarVar
}

func (info *Info) String() string {
	parts := make([]string, 0, len(info.Vars))
	for _, varname := range info.Vars {
		parts = append(parts, "$"+varname)
	}
	return strings.Join(parts, " ")
}

type Expr struct {
	Op   Operation
	Num  int32
	Args []*Expr
	Str  string
}

type OperationsTable struct {
	opByVarFunc map[string]Operation
	nameByOp    map[Operation]string
}

func NewOperationTable(varFuncs map[string]Operation) *OperationsTable {
	tab := &OperationsTable{
		opByVarFunc: make(map[string]Operation),
		nameByOp:    make(map[Operation]string),
	}
	for funcName, op := range varFuncs {
		tab.opByVarFunc[funcName] = op
		tab.nameByOp[op] = funcName
	}
	return tab
}

func Parse(tab *OperationsTable, s string) (*Expr, Info, error) {
	p := filterParser{tab: tab}
	return p.Parse(s)
}

func Sprint(info *Info, e *Expr) string {
	parts := make([]string, 0, len(e.Args))
	if e.Str != "" {
		parts = append(parts, fmt.Sprintf("%q", e.Str))
	}
	for _, arg := range e.Args {
		parts = append(parts, Sprint(info, arg))
	}
	opString := ""
	if e.Op.IsBuiltin() {
		opString = e.Op.String()
	} else {
		opString = "%" + info.OpTab.nameByOp[e.Op]
	}
	if len(parts) == 0 {
		return opString
	}
	return "(" + opString + " " + strings.Join(parts, " ") + ")"
}

// Walk visits e and its arguments in depth-first order.
// Returning false from callback skips the children of the current node.
func Walk(e *Expr, callback func(e *Expr) bool) {
	if !callback(e) {
		return
	}
	for _, arg := range e.Args {
		Walk(arg, callback)
	}
}

// Operation is an expression opcode.
// Values below opFirstBuiltin are reserved for user-defined var methods.
type Operation uint32

func (op Operation) IsBuiltin() bool {
	return op >= opFirstBuiltin || op == OpInvalid
}

const (
	OpInvalid Operation = 0

	// OpNop = do nothing (accepts everything when used as a root)
	OpNop Operation = math.MaxUint32 - iota

	// OpString is a string literal that holds the value inside $Str.
	OpString

	// OpNot = !$Args[0]
	OpNot

	// OpAnd = $Args[0] && $Args[1]
	OpAnd

	// OpOr = $Args[0] || $Args[1]
	OpOr

	// OpEq = $Args[0] == $Args[1]
	OpEq

	// OpNotEq = $Args[0] != $Args[1]
	OpNotEq

	opFirstBuiltin
)

func (op Operation) String() string {
	switch op {
	case OpInvalid:
		return "Invalid"
	case OpNop:
		return "Nop"
	case OpString:
		return "String"
	case OpNot:
		return "Not"
	case OpAnd:
		return "And"
	case OpOr:
		return "Or"
	case OpEq:
		return "Eq"
	case OpNotEq:
		return "NotEq"
	default:
		return fmt.Sprintf("Operation(%d)", uint32(op))
	}
}
