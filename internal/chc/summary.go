package chc

import (
	"fmt"

	"kanso/internal/ast"
)

// ContractSummaries holds the one-per-contract interface/nondet-interface/
// constructor predicates plus one function-summary predicate per
// function, declared up front so call sites anywhere in the contract can
// resolve a callee's summary regardless of source order.
type ContractSummaries struct {
	reg *Registry

	interfacePred *Predicate
	nondetPred    *Predicate
	implicitCtor  *Predicate
	ctorSummary   *Predicate

	functionSummaries map[string]*Predicate
}

func NewContractSummaries(reg *Registry) *ContractSummaries {
	return &ContractSummaries{reg: reg, functionSummaries: make(map[string]*Predicate)}
}

// DeclareContract declares the interface/nondet-interface/implicit-
// constructor predicates. sorts is the (error, address, state,
// storageVars...) frame prefix every function-block predicate in the
// contract also shares. The constructor summary is declared separately
// by DeclareConstructorSummary once its own shape (trivial vs. an
// explicit constructor's params/return) is known.
//
// contract.Name, not contract itself, is passed as the declaring node:
// *ast.Contract carries no position/metadata methods of its own, only
// its Name identifier does.
func (cs *ContractSummaries) DeclareContract(contract *ast.Contract, sorts []Sort) {
	cs.interfacePred = cs.reg.Declare(Interface, &contract.Name, fmt.Sprintf("%s$interface", contract.Name.Value), sorts)
	cs.nondetPred = cs.reg.Declare(NondetInterface, &contract.Name, fmt.Sprintf("%s$nondet", contract.Name.Value), doubleSorts(sorts))
	cs.implicitCtor = cs.reg.Declare(ImplicitConstructor, &contract.Name, fmt.Sprintf("%s$implicit_ctor", contract.Name.Value), sorts)
}

// DeclareConstructorSummary declares the constructor-summary predicate.
// Its arity matches buildFunctionSummarySorts when an explicit
// constructor exists (the same pre/params/post/return shape Finish
// always builds constructor-exit args in); callers pass plain
// contract-state sorts when the contract has no explicit constructor.
func (cs *ContractSummaries) DeclareConstructorSummary(contract *ast.Contract, sorts []Sort) *Predicate {
	cs.ctorSummary = cs.reg.Declare(ConstructorSummary, &contract.Name, fmt.Sprintf("%s$ctor_summary", contract.Name.Value), sorts)
	return cs.ctorSummary
}

func (cs *ContractSummaries) DeclareFunction(fn *ast.Function, sorts []Sort) *Predicate {
	p := cs.reg.Declare(FunctionSummary, fn, fmt.Sprintf("%s$summary", fn.Name.Value), sorts)
	cs.functionSummaries[fn.Name.Value] = p
	return p
}

func (cs *ContractSummaries) FunctionSummary(name string) *Predicate { return cs.functionSummaries[name] }
func (cs *ContractSummaries) HasFunctionSummary(name string) bool {
	_, ok := cs.functionSummaries[name]
	return ok
}

func (cs *ContractSummaries) Interface() *Predicate           { return cs.interfacePred }
func (cs *ContractSummaries) NondetInterface() *Predicate     { return cs.nondetPred }
func (cs *ContractSummaries) ImplicitConstructor() *Predicate { return cs.implicitCtor }
func (cs *ContractSummaries) ConstructorSummary() *Predicate  { return cs.ctorSummary }

// doubleSorts builds a nondet-interface's (pre-frame, post-frame)
// signature from the plain contract frame; each half carries its own
// error flag.
func doubleSorts(sorts []Sort) []Sort {
	out := make([]Sort, 0, len(sorts)*2)
	out = append(out, sorts...)
	out = append(out, sorts...)
	return out
}

// buildFunctionSummarySorts lays out a function summary's arity as
// (state-pre, params, state-post, return), where "state" is the
// contract-wide (error, address, blockchain-state, storage fields...)
// tuple — the same prefix every function-block predicate in the
// contract shares, but without the per-function params/locals suffix a
// block predicate also carries.
func buildFunctionSummarySorts(stateSorts []Sort, fn *ast.Function, enc SymbolicEncoder) []Sort {
	sorts := make([]Sort, 0, len(stateSorts)*2+len(fn.Params)+1)
	sorts = append(sorts, stateSorts...)
	for _, p := range fn.Params {
		sorts = append(sorts, enc.SortOf(p.Type))
	}
	sorts = append(sorts, stateSorts...)
	if fn.Return != nil {
		sorts = append(sorts, enc.SortOf(fn.Return))
	}
	return sorts
}
