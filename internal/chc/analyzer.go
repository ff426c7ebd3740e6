package chc

import (
	"fmt"
	"time"

	"kanso/internal/ast"
)

// AnalyzerOptions configures one Analyze run.
type AnalyzerOptions struct {
	// WarnOnUnknownQueries reports targets the solver could not decide
	// (neither proved safe nor refuted) through Reporter rather than
	// silently dropping them.
	WarnOnUnknownQueries bool
	// SolverTimeout holds a per-query time budget. Analyze does not read
	// it and Solver.Query takes no timeout argument, so it bounds no
	// query by itself.
	SolverTimeout time.Duration
}

func DefaultOptions() AnalyzerOptions {
	return AnalyzerOptions{WarnOnUnknownQueries: true, SolverTimeout: 30 * time.Second}
}

// Analyzer drives one contract through predicate declaration, rule
// emission, and target discharge: the CHC encoding's single entry point.
type Analyzer struct {
	opts   AnalyzerOptions
	enc    SymbolicEncoder
	solver Solver
	rep    Reporter

	reg     *Registry
	targets *TargetEngine

	unhandled []string
}

func NewAnalyzer(enc SymbolicEncoder, solver Solver, rep Reporter, opts AnalyzerOptions) *Analyzer {
	return &Analyzer{opts: opts, enc: enc, solver: solver, rep: rep}
}

// Analyze encodes contract's functions as Horn clauses and queries every
// registered verification target, recording each target's verdict (and
// counterexample, if unsafe) for the caller to inspect afterward.
func (a *Analyzer) Analyze(contract *ast.Contract) error {
	a.reg = NewRegistry(a.solver)
	a.targets = NewTargetEngine()
	a.unhandled = nil

	storage := findStorageStruct(contract)
	var storageVars []string
	if storage != nil {
		storageVars = a.enc.StateVariables(storage)
	}

	stateSorts := []Sort{SortInt, SortAddress, SortArray}
	for range storageVars {
		stateSorts = append(stateSorts, SortInt)
	}

	summaries := NewContractSummaries(a.reg)
	summaries.DeclareContract(contract, stateSorts)

	functions := collectFunctions(contract)
	for _, fn := range functions {
		summaries.DeclareFunction(fn, buildFunctionSummarySorts(stateSorts, fn, a.enc))
	}

	callEncoder := NewCallEncoder(a.reg, a.enc, a.rep, summaries)
	builder := NewBlockGraphBuilder(a.reg, a.enc, a.rep, callEncoder, a.targets)

	var constructor *ast.Function
	var nonConstructors []*ast.Function
	for _, fn := range functions {
		if isConstructor(fn) {
			constructor = fn
			continue
		}
		nonConstructors = append(nonConstructors, fn)
	}

	if constructor != nil {
		summaries.DeclareConstructorSummary(contract, buildFunctionSummarySorts(stateSorts, constructor, a.enc))
	} else {
		summaries.DeclareConstructorSummary(contract, doubleSorts(stateSorts))
	}

	for _, fn := range nonConstructors {
		a.encodeFunction(builder, contract, fn, storageVars, summaries.FunctionSummary(fn.Name.Value))
	}
	if constructor != nil {
		a.encodeFunction(builder, contract, constructor, storageVars, summaries.ConstructorSummary())
	}

	induction := NewInterfaceEncoder(a.reg, a.enc, a.rep, a.targets, summaries, stateSorts)
	induction.BootstrapBaseRule(contract)
	induction.ConstructorFlow(contract, constructor)
	for _, fn := range nonConstructors {
		induction.InductiveRule(contract, fn)
		induction.FunctionExit(contract, fn)
	}

	for _, target := range a.targets.All() {
		if target.Kind == TargetAssert && target.Function != nil {
			reachable := callEncoder.Graph().Reachable(target.Function.Name.Value)
			target.ReachableAssertions = a.targets.AssertionsIn(reachable)
		}
		a.discharge(target)
	}
	return nil
}

func (a *Analyzer) encodeFunction(builder *BlockGraphBuilder, contract *ast.Contract, fn *ast.Function, storageVars []string, summary *Predicate) {
	if fn.Body == nil {
		return
	}
	entry := builder.Start(contract, fn, storageVars)
	tail := builder.BuildFunction(entry)
	builder.Finish(entry, tail, summary)
}

func (a *Analyzer) discharge(target *Target) {
	sorts := target.Pred.Sorts
	args := make([]Term, len(sorts))
	for i, s := range sorts {
		args[i] = a.enc.CreateVariable(fmt.Sprintf("%s$q%d", target.Pred.Name, i), s)
	}
	goal := &Atom{Pred: target.Pred, Args: args}

	result, cex, err := a.solver.Query(goal)
	if err != nil {
		target.Result = Unknown
		a.unhandled = append(a.unhandled, target.Pred.Name)
		a.rep.Warning(target.Node.NodePos(), fmt.Sprintf("E%d: query for %s failed: %s", ErrorSolverError, target.Pred.Name, err.Error()))
		return
	}

	// A sat verdict without a witness DAG is unreconstructable; retry once
	// with solver-level optimizations disabled before giving up on a model.
	if result == Unsafe && cex == nil {
		if retryResult, retryCex, retryErr := a.solver.QueryWithoutOptimizations(goal); retryErr == nil {
			result, cex = retryResult, retryCex
		}
	}

	target.Result = result
	target.Cex = cex

	switch result {
	case Unknown:
		a.unhandled = append(a.unhandled, target.Pred.Name)
		if a.opts.WarnOnUnknownQueries {
			a.rep.Warning(target.Node.NodePos(), fmt.Sprintf("could not decide %s target %s", target.Kind, target.Pred.Name))
		}
	case Conflicting:
		a.unhandled = append(a.unhandled, target.Pred.Name)
		a.rep.Warning(target.Node.NodePos(), fmt.Sprintf("E%d: solvers disagreed on %s target %s", ErrorConflictingSolvers, target.Kind, target.Pred.Name))
	}
}

// UnhandledQueries lists the targets the last Analyze call could neither
// prove safe nor refute.
func (a *Analyzer) UnhandledQueries() []string { return a.unhandled }

func (a *Analyzer) SafeTargets() []*Target   { return a.targets.Safe() }
func (a *Analyzer) UnsafeTargets() []*Target { return a.targets.Unsafe() }

func findStorageStruct(contract *ast.Contract) *ast.Struct {
	for _, item := range contract.Items {
		if s, ok := item.(*ast.Struct); ok && s.Attribute != nil && s.Attribute.Name == "storage" {
			return s
		}
	}
	return nil
}

func collectFunctions(contract *ast.Contract) []*ast.Function {
	var out []*ast.Function
	for _, item := range contract.Items {
		if fn, ok := item.(*ast.Function); ok {
			out = append(out, fn)
		}
	}
	return out
}

func isConstructor(fn *ast.Function) bool {
	return fn.Attribute != nil && fn.Attribute.Name == "create"
}
