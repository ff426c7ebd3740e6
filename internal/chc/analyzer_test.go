package chc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"kanso/internal/chc"
	"kanso/internal/parser"
)

func TestAnalyzeEncodesEveryFunctionAndDischargesEveryTarget(t *testing.T) {
	source := `contract Bank {
    #[storage]
    struct State {
        balance: U256,
    }

    #[create]
    fn create(initial: U256) writes State {
        State.balance = initial;
    }

    fn withdraw(amount: U256) writes State {
        let mut bal = State.balance;
        require!(bal >= amount, errors::InsufficientBalance);
        bal -= amount;
        State.balance = bal;
    }
}`
	contract, parseErrors, scanErrors := parser.ParseSource("bank.ka", source)
	require.Empty(t, parseErrors)
	require.Empty(t, scanErrors)
	require.NotNil(t, contract)

	ctrl := gomock.NewController(t)
	solver := NewMockSolver(ctrl)
	solver.EXPECT().RegisterRelation(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	solver.EXPECT().AddRule(gomock.Any()).Return(nil).AnyTimes()
	solver.EXPECT().Query(gomock.Any()).Return(chc.Safe, nil, nil).AnyTimes()

	enc := newFakeEncoder()
	rep := &fakeReporter{}
	analyzer := chc.NewAnalyzer(enc, solver, rep, chc.DefaultOptions())

	err := analyzer.Analyze(contract)
	require.NoError(t, err)

	assert.Empty(t, rep.warnings, "every expression in this fixture is within the fake encoder's vocabulary")
	assert.NotEmpty(t, analyzer.SafeTargets(), "require! and bal -= amount must each register a dischargeable target")
	assert.Empty(t, analyzer.UnsafeTargets())
	assert.Empty(t, analyzer.UnhandledQueries())
}

func TestAnalyzeReportsUnknownQueriesWhenConfigured(t *testing.T) {
	source := `contract Bank {
    #[storage]
    struct State {
        balance: U256,
    }

    fn withdraw(amount: U256) writes State {
        require!(amount > 0, errors::InvalidAmount);
    }
}`
	contract, parseErrors, scanErrors := parser.ParseSource("bank.ka", source)
	require.Empty(t, parseErrors)
	require.Empty(t, scanErrors)

	ctrl := gomock.NewController(t)
	solver := NewMockSolver(ctrl)
	solver.EXPECT().RegisterRelation(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	solver.EXPECT().AddRule(gomock.Any()).Return(nil).AnyTimes()
	solver.EXPECT().Query(gomock.Any()).Return(chc.Unknown, nil, nil).AnyTimes()

	enc := newFakeEncoder()
	rep := &fakeReporter{}
	opts := chc.DefaultOptions()
	opts.WarnOnUnknownQueries = true
	analyzer := chc.NewAnalyzer(enc, solver, rep, opts)

	require.NoError(t, analyzer.Analyze(contract))

	assert.NotEmpty(t, analyzer.UnhandledQueries())
	assert.NotEmpty(t, rep.warnings)
}

func TestAnalyzeWithNoStorageStructUsesAnEmptyStateFrame(t *testing.T) {
	source := `contract Pure {
    fn square(x: U256) -> U256 {
        return x * x;
    }
}`
	contract, parseErrors, scanErrors := parser.ParseSource("pure.ka", source)
	require.Empty(t, parseErrors)
	require.Empty(t, scanErrors)

	ctrl := gomock.NewController(t)
	solver := NewMockSolver(ctrl)
	solver.EXPECT().RegisterRelation(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	solver.EXPECT().AddRule(gomock.Any()).Return(nil).AnyTimes()
	solver.EXPECT().Query(gomock.Any()).Return(chc.Safe, nil, nil).AnyTimes()

	enc := newFakeEncoder()
	rep := &fakeReporter{}
	analyzer := chc.NewAnalyzer(enc, solver, rep, chc.DefaultOptions())
	require.NoError(t, analyzer.Analyze(contract))

	assert.NotEmpty(t, analyzer.SafeTargets(), "x * x must still register an overflow target with no storage struct present")
}
