package chc

import (
	"fmt"

	"kanso/internal/ast"
)

// unknownCallees names Kanso stdlib entry points that hand control to
// code this analysis cannot see into at all — the delegatecall/raw-call
// family. Every such call triggers full knowledge erasure rather than
// even the havoc-and-reassert treatment an ordinary external call gets.
var unknownCallees = map[string]bool{
	"call":         true,
	"delegatecall": true,
	"staticcall":   true,
	"create":       true,
	"create2":      true,
}

// CallEncoder decides, per call site, whether to apply a callee's own
// function summary (internal call), havoc observable state and assert
// the nondet-interface relation (external call to a known interface), or
// erase all knowledge of the caller's state entirely (unknown call).
type CallEncoder struct {
	reg        *Registry
	enc        SymbolicEncoder
	rep        Reporter
	summaries  *ContractSummaries
	graph      *CallGraph
	frame      []string
	stateNames []string
}

func NewCallEncoder(reg *Registry, enc SymbolicEncoder, rep Reporter, summaries *ContractSummaries) *CallEncoder {
	return &CallEncoder{reg: reg, enc: enc, rep: rep, summaries: summaries, graph: NewCallGraph()}
}

// SetFrame tells the encoder which variable names a full knowledge
// erasure must bump, matching the block graph builder's per-function
// frame.
func (ce *CallEncoder) SetFrame(names []string) { ce.frame = names }

// SetStateNames tells the encoder the contract-wide (error, address,
// state, storage fields...) prefix an internal call's summary
// application must thread through, matching a function summary's
// declared pre/post arity.
func (ce *CallEncoder) SetStateNames(names []string) { ce.stateNames = names }

func (ce *CallEncoder) Graph() *CallGraph { return ce.graph }

func (ce *CallEncoder) Encode(contract *ast.Contract, fn *ast.Function, block *Block, call *ast.CallExpr) {
	name := calleeName(call.Callee)
	if name == "" {
		return
	}
	ce.graph.Add(fn.Name.Value, name)

	args := make([]Term, 0, len(call.Args))
	for _, a := range call.Args {
		t, err := ce.enc.Expr(block.SSA, a)
		if err != nil {
			ce.rep.Warning(a.NodePos(), err.Error())
			continue
		}
		args = append(args, t)
	}

	switch {
	case unknownCallees[name]:
		ce.eraseKnowledge(block)
	case ce.summaries.HasFunctionSummary(name):
		ce.applyInternalSummary(block, name, args)
	default:
		ce.applyExternalInterface(contract, block)
	}
}

func calleeName(expr ast.Expr) string {
	switch c := expr.(type) {
	case *ast.IdentExpr:
		return c.Name
	case *ast.CalleePath:
		if len(c.Parts) == 0 {
			return ""
		}
		return c.Parts[len(c.Parts)-1].Value
	case *ast.FieldAccessExpr:
		return c.Field
	default:
		return ""
	}
}

// eraseKnowledge bumps every frame-tracked variable (plus the blockchain
// state and error symbols) to a fresh, unconstrained SSA version, the
// "knowledge erasure" invariant an unknown call must trigger.
func (ce *CallEncoder) eraseKnowledge(block *Block) {
	for _, name := range ce.frame {
		block.SSA.Bump(name)
	}
	block.SSA.Bump(StateSymbol)
	block.SSA.Bump(ErrorSymbol)
}

// applyInternalSummary conjoins the callee's function-summary relation
// into the caller's pending constraints, then advances the caller's
// state/error SSA versions to the summary's post-state outputs. The
// argument layout (state-pre, params, state-post, return) must match
// buildFunctionSummarySorts exactly.
func (ce *CallEncoder) applyInternalSummary(block *Block, name string, args []Term) {
	summary := ce.summaries.FunctionSummary(name)
	if summary == nil {
		ce.eraseKnowledge(block)
		return
	}

	callArgs := make([]Term, 0, len(ce.stateNames)*2+len(args)+1)
	for _, n := range ce.stateNames {
		callArgs = append(callArgs, ce.enc.CurrentValue(block.SSA, n))
	}
	callArgs = append(callArgs, args...)

	for _, n := range ce.stateNames {
		block.SSA.Bump(n)
	}
	for _, n := range ce.stateNames {
		callArgs = append(callArgs, ce.enc.CurrentValue(block.SSA, n))
	}

	if callee, ok := summary.Node.(*ast.Function); ok && callee.Return != nil {
		ret := ce.enc.CreateVariable(fmt.Sprintf("%s$ret", name), ce.enc.SortOf(callee.Return))
		callArgs = append(callArgs, ret)
	}

	block.Pending = append(block.Pending, &Atom{Pred: summary, Args: callArgs})
}

// applyExternalInterface havocs observable state across the call, then
// asserts the nondet-interface relation for the callee contract so the
// reachable post-state is still constrained to whatever that contract's
// own verified summaries allow.
func (ce *CallEncoder) applyExternalInterface(contract *ast.Contract, block *Block) {
	nondet := ce.summaries.NondetInterface()
	if nondet == nil {
		ce.eraseKnowledge(block)
		return
	}

	pre := make([]Term, 0, len(ce.stateNames))
	for _, n := range ce.stateNames {
		pre = append(pre, ce.enc.CurrentValue(block.SSA, n))
	}
	ce.eraseKnowledge(block)
	post := make([]Term, 0, len(ce.stateNames))
	for _, n := range ce.stateNames {
		post = append(post, ce.enc.CurrentValue(block.SSA, n))
	}

	callArgs := make([]Term, 0, len(pre)+len(post))
	callArgs = append(callArgs, pre...)
	callArgs = append(callArgs, post...)
	block.Pending = append(block.Pending, &Atom{Pred: nondet, Args: callArgs})
	_ = contract // contract kept for a future per-callee nondet specialization
}
