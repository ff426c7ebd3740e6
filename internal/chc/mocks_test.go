// Code generated by hand in the style of gomock's generator; keep the
// method surface in sync with the Solver interface in interfaces.go.
package chc_test

import (
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"

	"kanso/internal/chc"
)

// MockSolver is a mock of the chc.Solver interface.
type MockSolver struct {
	ctrl     *gomock.Controller
	recorder *MockSolverMockRecorder
}

// MockSolverMockRecorder is the mock recorder for MockSolver.
type MockSolverMockRecorder struct {
	mock *MockSolver
}

// NewMockSolver creates a new mock instance.
func NewMockSolver(ctrl *gomock.Controller) *MockSolver {
	mock := &MockSolver{ctrl: ctrl}
	mock.recorder = &MockSolverMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSolver) EXPECT() *MockSolverMockRecorder {
	return m.recorder
}

// RegisterRelation mocks base method.
func (m *MockSolver) RegisterRelation(name string, sorts []chc.Sort) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RegisterRelation", name, sorts)
	ret0, _ := ret[0].(error)
	return ret0
}

// RegisterRelation indicates an expected call of RegisterRelation.
func (mr *MockSolverMockRecorder) RegisterRelation(name, sorts any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RegisterRelation", reflect.TypeOf((*MockSolver)(nil).RegisterRelation), name, sorts)
}

// AddRule mocks base method.
func (m *MockSolver) AddRule(rule *chc.Rule) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AddRule", rule)
	ret0, _ := ret[0].(error)
	return ret0
}

// AddRule indicates an expected call of AddRule.
func (mr *MockSolverMockRecorder) AddRule(rule any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AddRule", reflect.TypeOf((*MockSolver)(nil).AddRule), rule)
}

// Query mocks base method.
func (m *MockSolver) Query(goal *chc.Atom) (chc.QueryResult, *chc.CexNode, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Query", goal)
	ret0, _ := ret[0].(chc.QueryResult)
	ret1, _ := ret[1].(*chc.CexNode)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// Query indicates an expected call of Query.
func (mr *MockSolverMockRecorder) Query(goal any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Query", reflect.TypeOf((*MockSolver)(nil).Query), goal)
}

// QueryWithoutOptimizations mocks base method.
func (m *MockSolver) QueryWithoutOptimizations(goal *chc.Atom) (chc.QueryResult, *chc.CexNode, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "QueryWithoutOptimizations", goal)
	ret0, _ := ret[0].(chc.QueryResult)
	ret1, _ := ret[1].(*chc.CexNode)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// QueryWithoutOptimizations indicates an expected call of QueryWithoutOptimizations.
func (mr *MockSolverMockRecorder) QueryWithoutOptimizations(goal any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "QueryWithoutOptimizations", reflect.TypeOf((*MockSolver)(nil).QueryWithoutOptimizations), goal)
}
