package chc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"kanso/internal/ast"
	"kanso/internal/chc"
)

func newInterfaceEncoder(t *testing.T) (*chc.InterfaceEncoder, *chc.ContractSummaries, *chc.TargetEngine, *MockSolver) {
	t.Helper()
	ctrl := gomock.NewController(t)
	solver := NewMockSolver(ctrl)
	solver.EXPECT().RegisterRelation(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	reg := chc.NewRegistry(solver)
	enc := newFakeEncoder()
	rep := &fakeReporter{}
	stateSorts := []chc.Sort{chc.SortInt, chc.SortAddress, chc.SortArray}
	summaries := chc.NewContractSummaries(reg)
	contract := &ast.Contract{Name: ast.Ident{Value: "Bank"}}
	summaries.DeclareContract(contract, stateSorts)

	targets := chc.NewTargetEngine()
	ie := chc.NewInterfaceEncoder(reg, enc, rep, targets, summaries, stateSorts)
	return ie, summaries, targets, solver
}

func TestBootstrapBaseRuleAssertsNondetInterfaceFact(t *testing.T) {
	ie, _, _, solver := newInterfaceEncoder(t)
	contract := &ast.Contract{Name: ast.Ident{Value: "Bank"}}

	var captured *chc.Rule
	solver.EXPECT().AddRule(gomock.Any()).DoAndReturn(func(r *chc.Rule) error {
		captured = r
		return nil
	})

	ie.BootstrapBaseRule(contract)

	require.NotNil(t, captured)
	assert.Empty(t, captured.Body, "the base case is a fact, not an implication")
	assert.Len(t, captured.Head.Args, 6, "pre/post state halves doubled")
}

func TestInductiveRuleSkipsNonExternalFunctions(t *testing.T) {
	ie, summaries, _, solver := newInterfaceEncoder(t)
	contract := &ast.Contract{Name: ast.Ident{Value: "Bank"}}
	fn := &ast.Function{Name: ast.Ident{Value: "helper"}, External: false}
	summaries.DeclareFunction(fn, []chc.Sort{chc.SortInt, chc.SortAddress, chc.SortArray, chc.SortInt, chc.SortAddress, chc.SortArray})

	solver.EXPECT().AddRule(gomock.Any()).Times(0)

	ie.InductiveRule(contract, fn)
}

func TestInductiveRuleChainsNondetInterfaceThroughSummary(t *testing.T) {
	ie, summaries, _, solver := newInterfaceEncoder(t)
	contract := &ast.Contract{Name: ast.Ident{Value: "Bank"}}
	fn := &ast.Function{Name: ast.Ident{Value: "withdraw"}, External: true}
	summaries.DeclareFunction(fn, []chc.Sort{chc.SortInt, chc.SortAddress, chc.SortArray, chc.SortInt, chc.SortAddress, chc.SortArray})

	var captured *chc.Rule
	solver.EXPECT().AddRule(gomock.Any()).DoAndReturn(func(r *chc.Rule) error {
		captured = r
		return nil
	})

	ie.InductiveRule(contract, fn)

	require.NotNil(t, captured)
	require.Len(t, captured.Body, 2)
	nondetBody, ok := captured.Body[0].(*chc.Atom)
	require.True(t, ok)
	assert.Same(t, summaries.NondetInterface(), nondetBody.Pred)
	summaryBody, ok := captured.Body[1].(*chc.Atom)
	require.True(t, ok)
	assert.Same(t, summaries.FunctionSummary("withdraw"), summaryBody.Pred)
	assert.Same(t, summaries.NondetInterface(), captured.Head.Pred)
}

func TestFunctionExitRegistersAssertTargetAndClosesInterface(t *testing.T) {
	ie, summaries, targets, solver := newInterfaceEncoder(t)
	contract := &ast.Contract{Name: ast.Ident{Value: "Bank"}}
	fn := &ast.Function{Name: ast.Ident{Value: "withdraw"}, External: true}
	summaries.DeclareFunction(fn, []chc.Sort{chc.SortInt, chc.SortAddress, chc.SortArray, chc.SortInt, chc.SortAddress, chc.SortArray})

	solver.EXPECT().AddRule(gomock.Any()).Return(nil).Times(2)

	ie.FunctionExit(contract, fn)

	require.Len(t, targets.All(), 1)
	assert.Equal(t, chc.TargetAssert, targets.All()[0].Kind)
}

func TestConstructorFlowWithoutExplicitConstructorWiresIdentity(t *testing.T) {
	ie, summaries, targets, solver := newInterfaceEncoder(t)
	contract := &ast.Contract{Name: ast.Ident{Value: "Bank"}}
	stateSorts := []chc.Sort{chc.SortInt, chc.SortAddress, chc.SortArray}
	summaries.DeclareConstructorSummary(contract, append(append([]chc.Sort{}, stateSorts...), stateSorts...))

	// implicit fact, identity passthrough, assert rule, close rule
	solver.EXPECT().AddRule(gomock.Any()).Return(nil).Times(4)

	ie.ConstructorFlow(contract, nil)

	require.Len(t, targets.All(), 1)
	assert.Equal(t, chc.TargetAssert, targets.All()[0].Kind)
	assert.Nil(t, targets.All()[0].Function, "no explicit constructor to attribute the target to")
}

func TestConstructorFlowWithExplicitConstructorSkipsIdentityRule(t *testing.T) {
	ie, summaries, targets, solver := newInterfaceEncoder(t)
	contract := &ast.Contract{Name: ast.Ident{Value: "Bank"}}
	stateSorts := []chc.Sort{chc.SortInt, chc.SortAddress, chc.SortArray}
	ctor := &ast.Function{
		Name:   ast.Ident{Value: "create"},
		Params: []*ast.FunctionParam{{Name: ast.Ident{Value: "initial"}, Type: &ast.VariableType{Name: ast.Ident{Value: "U256"}}}},
	}
	enc := newFakeEncoder()
	summaries.DeclareConstructorSummary(contract, buildFunctionSummarySortsForTest(stateSorts, ctor, enc))

	// implicit fact, assert rule, close rule — no identity passthrough
	solver.EXPECT().AddRule(gomock.Any()).Return(nil).Times(3)

	ie.ConstructorFlow(contract, ctor)

	require.Len(t, targets.All(), 1)
	assert.Same(t, ctor, targets.All()[0].Function)
}
