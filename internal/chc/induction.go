package chc

import (
	"fmt"

	"kanso/internal/ast"
)

// InterfaceEncoder emits the contract-level rules that compose one
// transaction out of a public function's summary, and that wire the
// constructor's exit into the contract's reachable-state predicates. It
// runs once per contract, after every function-summary predicate has
// been declared and after BlockGraphBuilder has connected each
// function's body into its own summary.
type InterfaceEncoder struct {
	reg       *Registry
	enc       SymbolicEncoder
	rep       Reporter
	targets   *TargetEngine
	summaries *ContractSummaries

	stateSorts []Sort
	ruleSeq    int
}

func NewInterfaceEncoder(reg *Registry, enc SymbolicEncoder, rep Reporter, targets *TargetEngine, summaries *ContractSummaries, stateSorts []Sort) *InterfaceEncoder {
	return &InterfaceEncoder{reg: reg, enc: enc, rep: rep, targets: targets, summaries: summaries, stateSorts: stateSorts}
}

// BootstrapBaseRule asserts the zero-step base case every nondet-interface
// chain starts from: a transaction history that hasn't moved yet holds
// for an arbitrary starting state with no error pending.
func (ie *InterfaceEncoder) BootstrapBaseRule(contract *ast.Contract) {
	state := ie.freshState(fmt.Sprintf("%s$nondet_base", contract.Name.Value))
	state[0] = ie.zero()

	args := append(append([]Term{}, state...), state...)
	ie.emit(contract, fmt.Sprintf("%s$nondet_base", contract.Name.Value), &Rule{Head: &Atom{Pred: ie.summaries.NondetInterface(), Args: args}})
}

// InductiveRule emits the inductive transaction rule for one public,
// non-constructor function f:
//
//	nondet-interface(err=0, addr, s1, S̄1) ∧ function-summary(f)(args) ⇒ nondet-interface(err', addr, s2, S̄2)
//
// chaining a verified call onto any already-reachable transaction
// history. Gated on fn.External — Kanso has no separate "public"
// modifier, so the external/entry-point flag is what distinguishes a
// callable transaction root from an internal helper.
func (ie *InterfaceEncoder) InductiveRule(contract *ast.Contract, fn *ast.Function) {
	if !fn.External {
		return
	}
	summary := ie.summaries.FunctionSummary(fn.Name.Value)
	if summary == nil {
		return
	}

	addr := ie.enc.CreateVariable(fmt.Sprintf("%s$nondet_addr", fn.Name.Value), SortAddress)

	prior := ie.freshState(fmt.Sprintf("%s$nondet_prior", fn.Name.Value))
	prior[1] = addr

	pre := ie.freshState(fmt.Sprintf("%s$nondet_pre", fn.Name.Value))
	pre[0] = ie.zero()
	pre[1] = addr

	post := ie.freshState(fmt.Sprintf("%s$nondet_post", fn.Name.Value))
	post[1] = addr

	summaryArgs := append(append([]Term{}, pre...), ie.freshParams(fn)...)
	summaryArgs = append(summaryArgs, post...)
	if fn.Return != nil {
		summaryArgs = append(summaryArgs, ie.enc.CreateVariable(fmt.Sprintf("%s$nondet_ret", fn.Name.Value), ie.enc.SortOf(fn.Return)))
	}

	body := []BodyElem{
		&Atom{Pred: ie.summaries.NondetInterface(), Args: append(append([]Term{}, prior...), pre...)},
		&Atom{Pred: summary, Args: summaryArgs},
	}
	head := &Atom{Pred: ie.summaries.NondetInterface(), Args: append(append([]Term{}, prior...), post...)}

	ie.ruleSeq++
	ie.emit(contract, fmt.Sprintf("%s$nondet_step%d", fn.Name.Value, ie.ruleSeq), &Rule{Body: body, Head: head})
}

// FunctionExit wires the non-constructor exit described for f's
// endVisit: f's summary closes the reachable-state relation interface(C),
// and — since f is public — a violation of f's own body (error != 0 on
// the way out) is registered as an Assert target reachable from
// interface(C)'s own precondition.
func (ie *InterfaceEncoder) FunctionExit(contract *ast.Contract, fn *ast.Function) {
	if !fn.External {
		return
	}
	summary := ie.summaries.FunctionSummary(fn.Name.Value)
	iface := ie.summaries.Interface()
	if summary == nil || iface == nil {
		return
	}

	pre := ie.freshState(fmt.Sprintf("%s$iface_pre", fn.Name.Value))
	post := ie.freshState(fmt.Sprintf("%s$iface_post", fn.Name.Value))

	summaryArgs := append(append([]Term{}, pre...), ie.freshParams(fn)...)
	summaryArgs = append(summaryArgs, post...)
	if fn.Return != nil {
		summaryArgs = append(summaryArgs, ie.enc.CreateVariable(fmt.Sprintf("%s$iface_ret", fn.Name.Value), ie.enc.SortOf(fn.Return)))
	}

	callBody := []BodyElem{
		&Atom{Pred: iface, Args: pre},
		&Atom{Pred: summary, Args: summaryArgs},
	}

	errPred := ie.reg.Fresh(Error, fn, fmt.Sprintf("%s$iface_err_assert", fn.Name.Value), ie.stateSorts)
	ie.targets.Register(TargetAssert, contract, fn, fn, errPred)
	assertBody := append(append([]BodyElem{}, callBody...), &Constraint{Formula: Neq(post[0], ie.zero())})
	ie.ruleSeq++
	ie.emit(contract, fmt.Sprintf("%s$iface_assert%d", fn.Name.Value, ie.ruleSeq), &Rule{Body: assertBody, Head: &Atom{Pred: errPred, Args: post}})

	closeBody := append(append([]BodyElem{}, callBody...), &Constraint{Formula: Eq(post[0], ie.zero())})
	ie.ruleSeq++
	ie.emit(contract, fmt.Sprintf("%s$iface_close%d", fn.Name.Value, ie.ruleSeq), &Rule{Body: closeBody, Head: &Atom{Pred: iface, Args: post}})
}

// ConstructorFlow runs the five-step constructor sequence: declare and
// assert implicit-constructor(C) as a fact, connect it (directly, or via
// an explicit constructor's own summary-exit rule already wired by
// BlockGraphBuilder.Finish) into constructor-summary(C), register an
// Assert target for a nonzero constructor error, and close interface(C)
// for the zero-error case. ctor is nil when the contract has no explicit
// constructor.
func (ie *InterfaceEncoder) ConstructorFlow(contract *ast.Contract, ctor *ast.Function) {
	implicit := ie.summaries.ImplicitConstructor()
	ctorSummary := ie.summaries.ConstructorSummary()
	iface := ie.summaries.Interface()
	if implicit == nil || ctorSummary == nil || iface == nil {
		return
	}

	implicitState := ie.freshState(fmt.Sprintf("%s$implicit_ctor", contract.Name.Value))
	implicitState[0] = ie.zero()
	ie.emit(contract, fmt.Sprintf("%s$implicit_ctor_fact", contract.Name.Value), &Rule{Head: &Atom{Pred: implicit, Args: implicitState}})

	if ctor == nil {
		// No explicit constructor: the implicit fact passes straight
		// through to the constructor summary unchanged.
		identityArgs := append(append([]Term{}, implicitState...), implicitState...)
		ie.emit(contract, fmt.Sprintf("%s$ctor_identity", contract.Name.Value), &Rule{
			Body: []BodyElem{&Atom{Pred: implicit, Args: implicitState}},
			Head: &Atom{Pred: ctorSummary, Args: identityArgs},
		})
	}

	sorts := ctorSummary.Sorts
	paramCount := 0
	if ctor != nil {
		paramCount = len(ctor.Params)
	}
	postStart := len(ie.stateSorts) + paramCount
	args := make([]Term, len(sorts))
	for i, s := range sorts {
		args[i] = ie.enc.CreateVariable(fmt.Sprintf("%s$ctor_exit_%d", contract.Name.Value, i), s)
	}
	post := args[postStart : postStart+len(ie.stateSorts)]

	errPred := ie.reg.Fresh(Error, &contract.Name, fmt.Sprintf("%s$ctor_err_assert", contract.Name.Value), sorts)
	ie.targets.Register(TargetAssert, contract, ctor, &contract.Name, errPred)
	ie.emit(contract, fmt.Sprintf("%s$ctor_assert", contract.Name.Value), &Rule{
		Body: []BodyElem{&Atom{Pred: ctorSummary, Args: args}, &Constraint{Formula: Neq(post[0], ie.zero())}},
		Head: &Atom{Pred: errPred, Args: args},
	})

	ie.emit(contract, fmt.Sprintf("%s$ctor_close", contract.Name.Value), &Rule{
		Body: []BodyElem{&Atom{Pred: ctorSummary, Args: args}, &Constraint{Formula: Eq(post[0], ie.zero())}},
		Head: &Atom{Pred: iface, Args: post},
	})
}

func (ie *InterfaceEncoder) freshState(prefix string) []Term {
	state := make([]Term, len(ie.stateSorts))
	for i, s := range ie.stateSorts {
		state[i] = ie.enc.CreateVariable(fmt.Sprintf("%s_%d", prefix, i), s)
	}
	return state
}

func (ie *InterfaceEncoder) freshParams(fn *ast.Function) []Term {
	params := make([]Term, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = ie.enc.CreateVariable(fmt.Sprintf("%s$arg_%s", fn.Name.Value, p.Name.Value), ie.enc.SortOf(p.Type))
	}
	return params
}

func (ie *InterfaceEncoder) zero() Term { return &IntLit{Value: MaxForBits(0)} }

func (ie *InterfaceEncoder) emit(contract *ast.Contract, name string, rule *Rule) {
	rule.Name = name
	emitRule(ie.reg, ie.rep, contract.Name.NodePos(), rule)
}
