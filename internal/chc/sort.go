package chc

import "kanso/internal/builtins"

// Sort is the background theory sort backing a predicate argument or term.
type Sort int

const (
	SortInt Sort = iota
	SortBool
	SortAddress
	// SortArray backs the blockchain-state symbol, modeled as an SMT
	// array from key sort to value sort. Storage fields, Table-typed ones
	// included, are framed as SortInt.
	SortArray
)

func (s Sort) String() string {
	switch s {
	case SortInt:
		return "Int"
	case SortBool:
		return "Bool"
	case SortAddress:
		return "Address"
	case SortArray:
		return "Array"
	default:
		return "?"
	}
}

// BitsFor returns the bit width of an unsigned integer builtin type.
// Kanso has no signed integer types, so this is the full arithmetic tower.
func BitsFor(typeName string) uint {
	switch builtins.BuiltinType(typeName) {
	case builtins.U8:
		return 8
	case builtins.U16:
		return 16
	case builtins.U32:
		return 32
	case builtins.U64:
		return 64
	case builtins.U128:
		return 128
	default:
		return 256
	}
}

// SortForBuiltin maps a Kanso builtin type name to its background sort.
func SortForBuiltin(typeName string) Sort {
	switch builtins.BuiltinType(typeName) {
	case builtins.Bool:
		return SortBool
	case builtins.Address:
		return SortAddress
	default:
		return SortInt
	}
}
