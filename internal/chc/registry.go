package chc

import (
	"fmt"

	"kanso/internal/ast"
)

// declKey identifies a memoized predicate: one per (kind, AST node) pair,
// keeping predicate names unique within one analysis.
type declKey struct {
	kind PredicateKind
	node ast.Node
}

// Registry allocates and names every predicate created during an
// analysis, and hands each one to the Solver as it is declared.
type Registry struct {
	solver       Solver
	declared     map[declKey]*Predicate
	all          []*Predicate
	blockCounter int
	errorCounter int
}

func NewRegistry(solver Solver) *Registry {
	return &Registry{
		solver:   solver,
		declared: make(map[declKey]*Predicate),
	}
}

// Declare returns the single predicate registered for (kind, node),
// creating and registering it with the solver on first use.
func (r *Registry) Declare(kind PredicateKind, node ast.Node, name string, sorts []Sort) *Predicate {
	key := declKey{kind: kind, node: node}
	if p, ok := r.declared[key]; ok {
		return p
	}
	p := &Predicate{Name: name, Kind: kind, Sorts: sorts, Node: node}
	r.declared[key] = p
	r.register(p)
	return p
}

// Fresh always mints a new predicate, for kinds that legitimately recur
// for the same AST node (loop bodies revisited, ghost blocks, one error
// predicate per verification-target site).
func (r *Registry) Fresh(kind PredicateKind, node ast.Node, prefix string, sorts []Sort) *Predicate {
	name := prefix
	switch kind {
	case FunctionBlock:
		r.blockCounter++
		name = fmt.Sprintf("%s$b%d", prefix, r.blockCounter)
	case Error:
		r.errorCounter++
		name = fmt.Sprintf("%s$e%d", prefix, r.errorCounter)
	}
	p := &Predicate{Name: name, Kind: kind, Sorts: sorts, Node: node}
	r.register(p)
	return p
}

func (r *Registry) register(p *Predicate) {
	r.all = append(r.all, p)
	if r.solver != nil {
		_ = r.solver.RegisterRelation(p.Name, p.Sorts)
	}
}

// All returns every predicate declared during this analysis, in creation
// order.
func (r *Registry) All() []*Predicate { return r.all }

// emitRule hands a completed rule to the solver behind reg, warning
// through rep at pos if the solver rejects it. Shared by every component
// that mints Horn rules directly against a Registry (the block graph
// builder's own emit method, and the interface/constructor induction
// rules that aren't tied to one block).
func emitRule(reg *Registry, rep Reporter, pos ast.Position, rule *Rule) {
	if reg.solver == nil {
		return
	}
	if err := reg.solver.AddRule(rule); err != nil {
		rep.Warning(pos, fmt.Sprintf("rule %s rejected: %s", rule.Name, err.Error()))
	}
}
