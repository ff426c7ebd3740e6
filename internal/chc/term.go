package chc

import "github.com/holiman/uint256"

// Term is a background-theory expression: a predicate argument or a piece
// of a Constraint's formula. The core never interprets a Term beyond
// combining it into rules; a SymbolicEncoder produces and a Solver
// consumes them.
type Term interface {
	TermSort() Sort
	String() string
}

// Variable names an uninterpreted theory variable. Block-local variables
// are named by SSAState.Key so they stay unique across the whole analysis.
type Variable struct {
	Name string
	Sort Sort
}

func (v *Variable) TermSort() Sort { return v.Sort }
func (v *Variable) String() string { return v.Name }

// IntLit is an exact integer constant, backed by uint256 so 256-bit
// arithmetic bounds render without floating-point rounding.
type IntLit struct {
	Value *uint256.Int
}

func (l *IntLit) TermSort() Sort    { return SortInt }
func (l *IntLit) String() string    { return l.Value.Dec() }

// BoolLit is a boolean constant.
type BoolLit bool

func (b BoolLit) TermSort() Sort { return SortBool }
func (b BoolLit) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Apply is an uninterpreted or background-theory operator application,
// e.g. "+", "-", "=", "and", "not", an array select, or a struct accessor.
type Apply struct {
	Op   string
	Args []Term
	Sort Sort
}

func (a *Apply) TermSort() Sort { return a.Sort }
func (a *Apply) String() string {
	s := "(" + a.Op
	for _, arg := range a.Args {
		s += " " + arg.String()
	}
	return s + ")"
}

func Eq(a, b Term) Term  { return &Apply{Op: "=", Args: []Term{a, b}, Sort: SortBool} }
func Neq(a, b Term) Term { return &Apply{Op: "distinct", Args: []Term{a, b}, Sort: SortBool} }
func Gt(a, b Term) Term  { return &Apply{Op: ">", Args: []Term{a, b}, Sort: SortBool} }
func Lt(a, b Term) Term  { return &Apply{Op: "<", Args: []Term{a, b}, Sort: SortBool} }
func Sub(a, b Term) Term { return &Apply{Op: "-", Args: []Term{a, b}, Sort: SortInt} }
func Div(a, b Term) Term { return &Apply{Op: "/", Args: []Term{a, b}, Sort: SortInt} }

func And(terms ...Term) Term {
	filtered := make([]Term, 0, len(terms))
	for _, t := range terms {
		if t != nil {
			filtered = append(filtered, t)
		}
	}
	switch len(filtered) {
	case 0:
		return BoolLit(true)
	case 1:
		return filtered[0]
	default:
		return &Apply{Op: "and", Args: filtered, Sort: SortBool}
	}
}

func Not(a Term) Term {
	if a == nil {
		return nil
	}
	return &Apply{Op: "not", Args: []Term{a}, Sort: SortBool}
}

// MaxForBits returns 2^bits - 1 exactly, the inclusive upper bound of an
// unsigned integer of the given width.
func MaxForBits(bits uint) *uint256.Int {
	if bits >= 256 {
		allOnes := new(uint256.Int)
		return allOnes.Not(allOnes)
	}
	shifted := new(uint256.Int).Lsh(uint256.NewInt(1), bits)
	return new(uint256.Int).Sub(shifted, uint256.NewInt(1))
}
