package filters

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strconv"
	"strings"
)

const mangledPatternVar = "__vAR_"
const dollardollarVar = "_Dollar2_"

// preprocess turns pattern vars into valid Go identifiers.
// A $ inside a string or char literal is left as is.
func preprocess(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "$") {
		return s
	}

	var literals [][2]int
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(s))
	var sc scanner.Scanner
	sc.Init(file, []byte(s), func(token.Position, string) {}, 0)
	for {
		pos, tok, lit := sc.Scan()
		if tok == token.EOF {
			break
		}
		if tok == token.STRING || tok == token.CHAR {
			start := file.Offset(pos)
			end := start + len(lit)
			if strings.HasPrefix(lit, "`") {
				// Raw string lits have \r stripped, measure the source instead.
				end = len(s)
				if i := strings.IndexByte(s[start+1:], '`'); i != -1 {
					end = start + 1 + i + 1
				}
			}
			literals = append(literals, [2]int{start, end})
		}
	}

	var sb strings.Builder
	sb.Grow(len(s) * 2)
	for i := 0; i < len(s); i++ {
		if len(literals) != 0 && i >= literals[0][0] {
			end := literals[0][1]
			if end > len(s) {
				end = len(s)
			}
			sb.WriteString(s[i:end])
			i = end - 1
			literals = literals[1:]
			continue
		}
		switch {
		case strings.HasPrefix(s[i:], "$$"):
			sb.WriteString(mangledPatternVar + dollardollarVar)
			i++
		case s[i] == '$':
			sb.WriteString(mangledPatternVar)
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func isPatternVar(s string) bool { return strings.HasPrefix(s, mangledPatternVar) }

func patternVarName(s string) string { return strings.TrimPrefix(s, mangledPatternVar) }

type filterParser struct {
	info Info

	tab *OperationsTable

	varnameToID map[string]int32
}

func (p *filterParser) Parse(s string) (*Expr, Info, error) {
	p.info.OpTab = p.tab

	s = preprocess(s)
	if s == "" {
		return &Expr{Op: OpNop}, p.info, nil
	}

	root, err := parser.ParseExpr(s)
	if err != nil {
		return nil, Info{}, err
	}

	p.varnameToID = make(map[string]int32)

	e, err := p.convertExpr(root)
	if err != nil {
		return nil, p.info, err
	}
	return e, p.info, nil
}

func (p *filterParser) internVar(varname string) int32 {
	id, ok := p.varnameToID[varname]
	if !ok {
		id = int32(len(p.info.Vars))
		p.info.Vars = append(p.info.Vars, varname)
		p.varnameToID[varname] = id
	}
	return id
}

func (p *filterParser) convertExpr(root ast.Expr) (*Expr, error) {
	switch root := root.(type) {
	case *ast.UnaryExpr:
		return p.convertUnaryExpr(root)
	case *ast.BinaryExpr:
		return p.convertBinaryExpr(root)
	case *ast.ParenExpr:
		return p.convertExpr(root.X)
	case *ast.CallExpr:
		return p.convertCallExpr(root)
	case *ast.BasicLit:
		return p.convertBasicLit(root)
	default:
		return nil, fmt.Errorf("convert expr: unsupported %T", root)
	}
}

func (p *filterParser) convertBasicLit(root *ast.BasicLit) (*Expr, error) {
	switch root.Kind {
	case token.STRING:
		val, err := strconv.Unquote(root.Value)
		return &Expr{Op: OpString, Str: val}, err
	default:
		return nil, fmt.Errorf("convert basic lit: unsupported %s", root.Kind)
	}
}

func (p *filterParser) convertCallExpr(root *ast.CallExpr) (*Expr, error) {
	selector, ok := root.Fun.(*ast.SelectorExpr)
	if !ok {
		return nil, fmt.Errorf("convert call expr: unsupported %v function", root.Fun)
	}
	if len(root.Args) != 0 {
		return nil, fmt.Errorf("convert call expr: %s expects no arguments", selector.Sel.Name)
	}
	ident, ok := selector.X.(*ast.Ident)
	if !ok || !isPatternVar(ident.Name) {
		return nil, fmt.Errorf("convert method expr: unsupported %T object", selector.X)
	}
	varName := patternVarName(ident.Name)
	if varName == "" {
		return nil, fmt.Errorf("convert method expr: empty var name")
	}
	op, ok := p.tab.opByVarFunc[selector.Sel.Name]
	if !ok {
		return nil, fmt.Errorf("convert method expr: unsupported %s method", selector.Sel.Name)
	}
	id := p.internVar(varName)
	return &Expr{Op: op, Num: id, Str: varName}, nil
}

func (p *filterParser) convertUnaryExpr(root *ast.UnaryExpr) (*Expr, error) {
	switch root.Op {
	case token.NOT:
		x, err := p.convertExpr(root.X)
		if err != nil {
			return nil, err
		}
		return &Expr{Op: OpNot, Args: []*Expr{x}}, nil

	default:
		return nil, fmt.Errorf("convert unary expr: unsupported %s", root.Op)
	}
}

func (p *filterParser) convertBinaryExpr(root *ast.BinaryExpr) (*Expr, error) {
	// Normalize `"lit" == $x.Text()` into `$x.Text() == "lit"`.
	if _, ok := root.X.(*ast.BasicLit); ok {
		if _, ok := root.Y.(*ast.BasicLit); !ok {
			switch root.Op {
			case token.EQL, token.NEQ:
				return p.convertBinaryExprXY(root.Op, root.Y, root.X)
			}
		}
	}

	return p.convertBinaryExprXY(root.Op, root.X, root.Y)
}

func (p *filterParser) convertBinaryExprXY(op token.Token, x, y ast.Expr) (*Expr, error) {
	lhs, err := p.convertExpr(x)
	if err != nil {
		return nil, err
	}
	rhs, err := p.convertExpr(y)
	if err != nil {
		return nil, err
	}

	switch op {
	case token.LAND:
		return &Expr{Op: OpAnd, Args: []*Expr{lhs, rhs}}, nil
	case token.LOR:
		return &Expr{Op: OpOr, Args: []*Expr{lhs, rhs}}, nil

	case token.EQL:
		return &Expr{Op: OpEq, Args: []*Expr{lhs, rhs}}, nil
	case token.NEQ:
		return &Expr{Op: OpNotEq, Args: []*Expr{lhs, rhs}}, nil
	}

	return nil, fmt.Errorf("convert binary expr: unsupported %s", op)
}
