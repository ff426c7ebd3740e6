package chc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"kanso/internal/ast"
	"kanso/internal/chc"
)

func newCallEncoder(t *testing.T) (*chc.CallEncoder, *chc.ContractSummaries, *chc.Registry, *fakeEncoder) {
	t.Helper()
	ctrl := gomock.NewController(t)
	solver := NewMockSolver(ctrl)
	solver.EXPECT().RegisterRelation(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	reg := chc.NewRegistry(solver)
	enc := newFakeEncoder()
	rep := &fakeReporter{}
	summaries := chc.NewContractSummaries(reg)
	ce := chc.NewCallEncoder(reg, enc, rep, summaries)
	return ce, summaries, reg, enc
}

func TestUnknownCalleeErasesFrameKnowledge(t *testing.T) {
	ce, _, _, enc := newCallEncoder(t)
	ce.SetFrame([]string{"x"})
	ce.SetStateNames([]string{chc.ErrorSymbol, chc.AddressSymbol, chc.StateSymbol})

	pred := &chc.Predicate{Name: "fn$entry"}
	block := &chc.Block{Pred: pred, SSA: chc.NewSSAState(pred.Name)}
	before := enc.CurrentValue(block.SSA, "x")

	call := &ast.CallExpr{Callee: &ast.IdentExpr{Name: "delegatecall"}}
	contract := &ast.Contract{Name: ast.Ident{Value: "C"}}
	fn := &ast.Function{Name: ast.Ident{Value: "fn"}}
	ce.Encode(contract, fn, block, call)

	after := enc.CurrentValue(block.SSA, "x")
	assert.NotEqual(t, before.String(), after.String(), "erasing knowledge must bump x to a fresh SSA version")
	assert.Empty(t, block.Pending, "an unknown call contributes no summary/interface atom")
}

func TestInternalCallAppliesFunctionSummary(t *testing.T) {
	ce, summaries, _, enc := newCallEncoder(t)
	ce.SetFrame([]string{chc.ErrorSymbol, chc.AddressSymbol, chc.StateSymbol})
	ce.SetStateNames([]string{chc.ErrorSymbol, chc.AddressSymbol, chc.StateSymbol})

	fn := &ast.Function{Name: ast.Ident{Value: "helper"}}
	summary := summaries.DeclareFunction(fn, []chc.Sort{chc.SortInt, chc.SortAddress, chc.SortArray, chc.SortInt, chc.SortArray})

	pred := &chc.Predicate{Name: "caller$entry"}
	block := &chc.Block{Pred: pred, SSA: chc.NewSSAState(pred.Name)}

	call := &ast.CallExpr{Callee: &ast.IdentExpr{Name: "helper"}, Args: []ast.Expr{&ast.IdentExpr{Name: "amount"}}}
	contract := &ast.Contract{Name: ast.Ident{Value: "C"}}
	caller := &ast.Function{Name: ast.Ident{Value: "caller"}}
	ce.Encode(contract, caller, block, call)

	require.Len(t, block.Pending, 1)
	atom, ok := block.Pending[0].(*chc.Atom)
	require.True(t, ok)
	assert.Same(t, summary, atom.Pred)
	_ = enc
}

func TestExternalCallAssertsNondetInterface(t *testing.T) {
	ce, summaries, reg, _ := newCallEncoder(t)
	ce.SetFrame([]string{chc.ErrorSymbol, chc.AddressSymbol, chc.StateSymbol})
	ce.SetStateNames([]string{chc.ErrorSymbol, chc.AddressSymbol, chc.StateSymbol})

	contract := &ast.Contract{Name: ast.Ident{Value: "C"}}
	summaries.DeclareContract(contract, []chc.Sort{chc.SortInt, chc.SortAddress, chc.SortArray})

	pred := &chc.Predicate{Name: "caller$entry"}
	block := &chc.Block{Pred: pred, SSA: chc.NewSSAState(pred.Name)}

	call := &ast.CallExpr{Callee: &ast.IdentExpr{Name: "unknownOtherContractFn"}}
	fn := &ast.Function{Name: ast.Ident{Value: "caller"}}
	ce.Encode(contract, fn, block, call)

	require.Len(t, block.Pending, 1)
	atom, ok := block.Pending[0].(*chc.Atom)
	require.True(t, ok)
	assert.Same(t, summaries.NondetInterface(), atom.Pred)
	_ = reg
}

func TestCallGraphRecordsCallerCallee(t *testing.T) {
	ce, _, _, _ := newCallEncoder(t)
	ce.SetFrame(nil)
	ce.SetStateNames(nil)

	pred := &chc.Predicate{Name: "caller$entry"}
	block := &chc.Block{Pred: pred, SSA: chc.NewSSAState(pred.Name)}

	call := &ast.CallExpr{Callee: &ast.IdentExpr{Name: "delegatecall"}}
	contract := &ast.Contract{Name: ast.Ident{Value: "C"}}
	fn := &ast.Function{Name: ast.Ident{Value: "caller"}}
	ce.Encode(contract, fn, block, call)

	assert.Equal(t, []string{"delegatecall"}, ce.Graph().Callees("caller"))
}

func TestCallGraphReachableWalksTransitively(t *testing.T) {
	g := chc.NewCallGraph()
	g.Add("a", "b")
	g.Add("b", "c")
	g.Add("c", "a") // a cycle back to the start must not loop forever

	reachable := g.Reachable("a")

	assert.ElementsMatch(t, []string{"a", "b", "c"}, reachable)
}
