package chc_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"kanso/internal/ast"
	"kanso/internal/chc"
	"kanso/internal/parser"
)

func parseOneFunction(t *testing.T, source string) (*ast.Contract, *ast.Struct, *ast.Function) {
	t.Helper()
	contract, parseErrors, scanErrors := parser.ParseSource("test.ka", source)
	require.Empty(t, parseErrors)
	require.Empty(t, scanErrors)
	require.NotNil(t, contract)

	var storage *ast.Struct
	var fn *ast.Function
	for _, item := range contract.Items {
		switch node := item.(type) {
		case *ast.Struct:
			if node.Attribute != nil && node.Attribute.Name == "storage" {
				storage = node
			}
		case *ast.Function:
			fn = node
		}
	}
	require.NotNil(t, fn, "expected exactly one function in the test fixture")
	return contract, storage, fn
}

func newTestBuilder(t *testing.T, solver chc.Solver) (*chc.BlockGraphBuilder, *chc.TargetEngine, *fakeReporter) {
	t.Helper()
	reg := chc.NewRegistry(solver)
	enc := newFakeEncoder()
	rep := &fakeReporter{}
	targets := chc.NewTargetEngine()
	summaries := chc.NewContractSummaries(reg)
	calls := chc.NewCallEncoder(reg, enc, rep, summaries)
	return chc.NewBlockGraphBuilder(reg, enc, rep, calls, targets), targets, rep
}

func TestRequireRegistersAnAssertTarget(t *testing.T) {
	source := `contract Bank {
    #[storage]
    struct State {
        balance: U256,
    }

    fn withdraw(amount: U256) writes State {
        let mut bal = State.balance;
        require!(bal >= amount, errors::InsufficientBalance);
        bal -= amount;
        State.balance = bal;
    }
}`
	contract, storage, fn := parseOneFunction(t, source)
	storageVars := []string{"balance"}
	_ = storage

	ctrl := gomock.NewController(t)
	solver := NewMockSolver(ctrl)
	solver.EXPECT().RegisterRelation(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	solver.EXPECT().AddRule(gomock.Any()).Return(nil).AnyTimes()

	builder, targets, rep := newTestBuilder(t, solver)
	entry := builder.Start(contract, fn, storageVars)
	tail := builder.BuildFunction(entry)
	summary := &chc.Predicate{Name: "withdraw$summary", Sorts: nil}
	builder.Finish(entry, tail, summary)

	require.Empty(t, rep.warnings)

	var kinds []chc.TargetKind
	for _, target := range targets.All() {
		kinds = append(kinds, target.Kind)
	}
	require.Contains(t, kinds, chc.TargetAssert, "require! must register an assert target")
	require.Contains(t, kinds, chc.TargetUnderflow, "bal -= amount must register an underflow target")
}

func TestIfStatementJoinsBothBranches(t *testing.T) {
	source := `contract Bank {
    #[storage]
    struct State {
        balance: U256,
    }

    fn touch(amount: U256) writes State {
        if amount > 0 {
            State.balance = amount;
        } else {
            State.balance = 0;
        }
    }
}`
	contract, _, fn := parseOneFunction(t, source)

	ctrl := gomock.NewController(t)
	solver := NewMockSolver(ctrl)
	solver.EXPECT().RegisterRelation(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	solver.EXPECT().AddRule(gomock.Any()).Return(nil).AnyTimes()

	builder, _, rep := newTestBuilder(t, solver)
	entry := builder.Start(contract, fn, []string{"balance"})
	tail := builder.BuildFunction(entry)

	require.Empty(t, rep.warnings)
	require.NotNil(t, tail, "falling off an if/else with no return should yield a join block")
}

func TestWhileLoopExitsWithoutReturn(t *testing.T) {
	source := `contract Counter {
    #[storage]
    struct State {
        count: U256,
    }

    fn run(limit: U256) writes State {
        let mut i = 0;
        while i < limit {
            i += 1;
        }
        State.count = i;
    }
}`
	contract, _, fn := parseOneFunction(t, source)

	ctrl := gomock.NewController(t)
	solver := NewMockSolver(ctrl)
	solver.EXPECT().RegisterRelation(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	solver.EXPECT().AddRule(gomock.Any()).Return(nil).AnyTimes()

	builder, targets, rep := newTestBuilder(t, solver)
	entry := builder.Start(contract, fn, []string{"count"})
	tail := builder.BuildFunction(entry)

	require.Empty(t, rep.warnings)
	require.NotNil(t, tail)

	found := false
	for _, target := range targets.All() {
		if target.Kind == chc.TargetOverflow {
			found = true
		}
	}
	require.True(t, found, "i += 1 must register an overflow target")
}

func TestReturnStopsBlockTraversal(t *testing.T) {
	source := `contract Bank {
    #[storage]
    struct State {
        balance: U256,
    }

    fn peek() -> U256 reads State {
        return State.balance;
    }
}`
	contract, _, fn := parseOneFunction(t, source)

	ctrl := gomock.NewController(t)
	solver := NewMockSolver(ctrl)
	solver.EXPECT().RegisterRelation(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	solver.EXPECT().AddRule(gomock.Any()).Return(nil).AnyTimes()

	builder, _, rep := newTestBuilder(t, solver)
	entry := builder.Start(contract, fn, []string{"balance"})
	tail := builder.BuildFunction(entry)

	require.Empty(t, rep.warnings)
	require.Nil(t, tail, "a function body that always returns has no fallthrough tail")
}
