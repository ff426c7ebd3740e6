package chc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kanso/internal/ast"
	"kanso/internal/chc"
)

func TestRegisterAssignsStableErrorIDs(t *testing.T) {
	te := chc.NewTargetEngine()
	contract := &ast.Contract{Name: ast.Ident{Value: "C"}}
	fn := &ast.Function{Name: ast.Ident{Value: "f"}}
	node := &ast.ReturnStmt{}
	pred := &chc.Predicate{Name: "f$err_overflow"}

	target := te.Register(chc.TargetOverflow, contract, fn, node, pred)

	assert.Equal(t, chc.ErrorOverflow, target.ErrorID)
	assert.Equal(t, chc.Unknown, target.Result, "a freshly registered target has no verdict yet")
}

func TestSafeAndUnsafePartitionByResult(t *testing.T) {
	te := chc.NewTargetEngine()
	contract := &ast.Contract{Name: ast.Ident{Value: "C"}}
	fn := &ast.Function{Name: ast.Ident{Value: "f"}}
	node := &ast.ReturnStmt{}

	safeTarget := te.Register(chc.TargetAssert, contract, fn, node, &chc.Predicate{Name: "a"})
	unsafeTarget := te.Register(chc.TargetUnderflow, contract, fn, node, &chc.Predicate{Name: "b"})
	safeTarget.Result = chc.Safe
	unsafeTarget.Result = chc.Unsafe

	assert.Equal(t, []*chc.Target{safeTarget}, te.Safe())
	assert.Equal(t, []*chc.Target{unsafeTarget}, te.Unsafe())
	assert.Len(t, te.All(), 2)
}

func TestAssertionsInAggregatesByFunctionName(t *testing.T) {
	te := chc.NewTargetEngine()
	siteA := &ast.ReturnStmt{}
	siteB := &ast.ReturnStmt{}
	siteC := &ast.ReturnStmt{}

	te.RegisterAssertion("f", siteA)
	te.RegisterAssertion("f", siteB)
	te.RegisterAssertion("g", siteC)

	assert.Equal(t, []ast.Node{siteA, siteB}, te.AssertionsIn([]string{"f"}))
	assert.Equal(t, []ast.Node{siteA, siteB, siteC}, te.AssertionsIn([]string{"f", "g"}))
	assert.Empty(t, te.AssertionsIn([]string{"h"}))
}

func TestErrorIDsAreStable(t *testing.T) {
	assert.Equal(t, 6328, chc.ErrorAssert)
	assert.Equal(t, 2529, chc.ErrorPopEmptyArray)
	assert.Equal(t, 3944, chc.ErrorUnderflow)
	assert.Equal(t, 4984, chc.ErrorOverflow)
	assert.Equal(t, 4281, chc.ErrorDivByZero)
	assert.Equal(t, 1218, chc.ErrorSolverError)
	assert.Equal(t, 1988, chc.ErrorConflictingSolvers)
}
