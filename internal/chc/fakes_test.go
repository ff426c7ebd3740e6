package chc_test

import (
	"fmt"

	"github.com/holiman/uint256"

	"kanso/internal/ast"
	"kanso/internal/chc"
)

// fakeReporter collects warnings instead of printing them, so tests can
// assert on what the encoder reported without any terminal I/O.
type fakeReporter struct {
	warnings []string
}

func (f *fakeReporter) Warning(pos ast.Position, message string) {
	f.warnings = append(f.warnings, message)
}

// fakeEncoder is a minimal SymbolicEncoder good enough to drive the block
// graph and call encoder in isolation: it resolves ast.IdentExpr and
// ast.BinaryExpr directly and backs every SSA-versioned variable with a
// plain chc.Variable keyed by SSAState.Key.
type fakeEncoder struct {
	terms  map[string]chc.Term
	widths map[string]uint
	sorts  map[string]chc.Sort
}

func newFakeEncoder() *fakeEncoder {
	return &fakeEncoder{
		terms:  make(map[string]chc.Term),
		widths: make(map[string]uint),
		sorts:  make(map[string]chc.Sort),
	}
}

func (f *fakeEncoder) CurrentValue(ssa *chc.SSAState, name string) chc.Term {
	key := ssa.Key(name)
	if t, ok := f.terms[key]; ok {
		return t
	}
	t := &chc.Variable{Name: key, Sort: f.sortOfName(name)}
	f.terms[key] = t
	return t
}

func (f *fakeEncoder) ValueAtIndex(ssa *chc.SSAState, name string, version int) chc.Term {
	key := ssa.KeyAt(name, version)
	if t, ok := f.terms[key]; ok {
		return t
	}
	t := &chc.Variable{Name: key, Sort: f.sortOfName(name)}
	f.terms[key] = t
	return t
}

func (f *fakeEncoder) Expr(ssa *chc.SSAState, expr ast.Expr) (chc.Term, error) {
	switch e := expr.(type) {
	case *ast.IdentExpr:
		return f.CurrentValue(ssa, e.Name), nil
	case *ast.BinaryExpr:
		left, err := f.Expr(ssa, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := f.Expr(ssa, e.Right)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case "+", "-", "*", "/", "%":
			return &chc.Apply{Op: e.Op, Args: []chc.Term{left, right}, Sort: chc.SortInt}, nil
		default:
			return &chc.Apply{Op: e.Op, Args: []chc.Term{left, right}, Sort: chc.SortBool}, nil
		}
	case *ast.ParenExpr:
		return f.Expr(ssa, e.Value)
	case *ast.FieldAccessExpr:
		return f.CurrentValue(ssa, e.Field), nil
	case *ast.LiteralExpr:
		if e.Value == "true" || e.Value == "false" {
			return chc.BoolLit(e.Value == "true"), nil
		}
		v, err := uint256.FromDecimal(e.Value)
		if err != nil {
			return nil, err
		}
		return &chc.IntLit{Value: v}, nil
	default:
		return nil, fmt.Errorf("fakeEncoder: cannot lower %T", expr)
	}
}

func (f *fakeEncoder) CreateVariable(name string, sort chc.Sort) chc.Term {
	return &chc.Variable{Name: name, Sort: sort}
}

func (f *fakeEncoder) StateVariables(storage *ast.Struct) []string {
	names := make([]string, 0, len(storage.Items))
	for _, item := range storage.Items {
		if field, ok := item.(*ast.StructField); ok {
			names = append(names, field.Name.Value)
		}
	}
	return names
}

func (f *fakeEncoder) SortOf(t *ast.VariableType) chc.Sort {
	if t == nil {
		return chc.SortInt
	}
	return chc.SortForBuiltin(t.Name.Value)
}

func (f *fakeEncoder) IntWidth(expr ast.Expr) (uint, bool) {
	name := exprKey(expr)
	bits, ok := f.widths[name]
	if !ok {
		return 256, true
	}
	return bits, true
}

// withWidth registers the integer bit width a test wants IntWidth to
// report for the given identifier name.
func (f *fakeEncoder) withWidth(name string, bits uint) *fakeEncoder {
	f.widths[name] = bits
	return f
}

func (f *fakeEncoder) sortOfName(name string) chc.Sort {
	if s, ok := f.sorts[name]; ok {
		return s
	}
	return chc.SortInt
}

func exprKey(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.IdentExpr:
		return e.Name
	case *ast.AssignStmt:
		return exprKey(e.Target)
	case *ast.BinaryExpr:
		return exprKey(e.Left)
	default:
		return ""
	}
}
